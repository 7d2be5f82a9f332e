package vm

import (
	"fmt"
	"math"
)

// executeOneOp dispatches a single decoded opcode
func (vm *VM) executeOneOp(op Opcode) (Value, bool, error) {
	switch op {
	case OP_CONSTANT:
		v, err := vm.readConstant()
		if err != nil {
			return NilVal(), false, err
		}
		vm.push(v)

	case OP_NIL:
		vm.push(NilVal())
	case OP_TRUE:
		vm.push(BoolVal(true))
	case OP_FALSE:
		vm.push(BoolVal(false))

	case OP_ADD:
		b := vm.pop()
		a := vm.pop()
		if a.IsString() || b.IsString() {
			vm.push(StringVal(a.String() + b.String()))
			break
		}
		x, y, err := vm.numbers(a, b)
		if err != nil {
			return NilVal(), false, err
		}
		vm.push(NumberVal(x + y))

	case OP_SUBTRACT, OP_MULTIPLY, OP_DIVIDE, OP_MODULO:
		if err := vm.arithmetic(op); err != nil {
			return NilVal(), false, err
		}

	case OP_NEGATE:
		n, err := vm.pop().ToNumber()
		if err != nil {
			return NilVal(), false, vm.runtimeError("%s", err.Error())
		}
		vm.push(NumberVal(-n))

	case OP_EQUAL:
		b := vm.pop()
		a := vm.pop()
		vm.push(BoolVal(a.Equals(b)))
	case OP_NOT_EQUAL:
		b := vm.pop()
		a := vm.pop()
		vm.push(BoolVal(!a.Equals(b)))

	case OP_GREATER, OP_LESS, OP_GREATER_EQUAL, OP_LESS_EQUAL:
		if err := vm.compare(op); err != nil {
			return NilVal(), false, err
		}

	case OP_NOT:
		vm.push(BoolVal(!vm.pop().IsTruthy()))
	case OP_AND:
		b := vm.pop()
		a := vm.pop()
		vm.push(BoolVal(a.IsTruthy() && b.IsTruthy()))
	case OP_OR:
		b := vm.pop()
		a := vm.pop()
		vm.push(BoolVal(a.IsTruthy() || b.IsTruthy()))

	case OP_DEFINE_GLOBAL:
		name, err := vm.readName()
		if err != nil {
			return NilVal(), false, err
		}
		vm.globals[name] = vm.pop()

	case OP_GET_GLOBAL:
		name, err := vm.readName()
		if err != nil {
			return NilVal(), false, err
		}
		v, ok := vm.globals[name]
		if !ok {
			return NilVal(), false, vm.runtimeError("Undefined variable '%s' at line %d", name, vm.currentLine())
		}
		vm.push(v)

	case OP_SET_GLOBAL:
		name, err := vm.readName()
		if err != nil {
			return NilVal(), false, err
		}
		vm.globals[name] = vm.peek(0)

	case OP_GET_LOCAL:
		slot := int(vm.readByte())
		if slot >= vm.sp {
			panic(errStackUnderflow)
		}
		vm.push(vm.stack[slot])

	case OP_SET_LOCAL:
		slot := int(vm.readByte())
		if slot >= vm.sp {
			panic(errStackUnderflow)
		}
		vm.stack[slot] = vm.peek(0)

	case OP_JUMP:
		offset := vm.readShort()
		if err := vm.jumpTo(vm.ip + offset); err != nil {
			return NilVal(), false, err
		}

	case OP_JUMP_IF_FALSE:
		offset := vm.readShort()
		if !vm.peek(0).IsTruthy() {
			if err := vm.jumpTo(vm.ip + offset); err != nil {
				return NilVal(), false, err
			}
		}

	case OP_LOOP:
		offset := vm.readShort()
		if err := vm.jumpTo(vm.ip - offset); err != nil {
			return NilVal(), false, err
		}

	case OP_RETURN:
		if vm.sp == 0 {
			return NilVal(), true, nil
		}
		return vm.pop(), true, nil

	case OP_POP:
		vm.pop()
	case OP_DUP:
		vm.push(vm.peek(0))
	case OP_SWAP:
		b := vm.pop()
		a := vm.pop()
		vm.push(b)
		vm.push(a)

	case OP_PRINT:
		v := vm.pop()
		if _, err := fmt.Fprintln(vm.out, v.String()); err != nil {
			return NilVal(), false, vm.ioError(err)
		}

	case OP_CONCAT:
		b := vm.pop()
		a := vm.pop()
		vm.push(StringVal(a.String() + b.String()))

	case OP_LOOP_START:
		vm.enterLoop(vm.opIP)
	case OP_LOOP_END:
		vm.exitLoop()

	default:
		// OP_CALL has no calling convention yet; unknown bytes land here too.
		return NilVal(), false, vm.runtimeError("Unimplemented opcode: %s", op)
	}

	return NilVal(), false, nil
}

func (vm *VM) jumpTo(target int) error {
	if target < 0 || target > len(vm.chunk.Code) {
		return vm.runtimeError("%s", errTruncatedBytecode.Error())
	}
	vm.ip = target
	return nil
}

// numbers coerces both operands
func (vm *VM) numbers(a, b Value) (float64, float64, error) {
	x, err := a.ToNumber()
	if err != nil {
		return 0, 0, vm.runtimeError("%s", err.Error())
	}
	y, err := b.ToNumber()
	if err != nil {
		return 0, 0, vm.runtimeError("%s", err.Error())
	}
	return x, y, nil
}

func (vm *VM) arithmetic(op Opcode) error {
	b := vm.pop()
	a := vm.pop()
	x, y, err := vm.numbers(a, b)
	if err != nil {
		return err
	}

	var r float64
	switch op {
	case OP_SUBTRACT:
		r = x - y
	case OP_MULTIPLY:
		r = x * y
	case OP_DIVIDE:
		if y == 0 {
			return vm.runtimeError("Division by zero")
		}
		r = x / y
	case OP_MODULO:
		if y == 0 {
			return vm.runtimeError("Modulo by zero")
		}
		r = math.Mod(x, y)
	}
	vm.push(NumberVal(r))
	return nil
}

func (vm *VM) compare(op Opcode) error {
	b := vm.pop()
	a := vm.pop()
	x, y, err := vm.numbers(a, b)
	if err != nil {
		return err
	}

	var r bool
	switch op {
	case OP_GREATER:
		r = x > y
	case OP_LESS:
		r = x < y
	case OP_GREATER_EQUAL:
		r = x >= y
	case OP_LESS_EQUAL:
		r = x <= y
	}
	vm.push(BoolVal(r))
	return nil
}
