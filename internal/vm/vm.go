package vm

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/tliron/commonlog"

	"github.com/Z2ZATL/Luma-CL/internal/config"
	"github.com/Z2ZATL/Luma-CL/internal/diagnostics"
)

var log = commonlog.GetLogger("luma.vm")

var errTruncatedBytecode = errors.New("Instruction pointer out of bounds")
var errStackUnderflow = errors.New("Stack underflow")
var errStackOverflow = errors.New("Stack overflow")

// VM is the virtual machine that executes bytecode
type VM struct {
	stack [StackMax]Value
	sp    int // Stack pointer (points to next free slot)

	chunk *Chunk
	ip    int
	opIP  int // offset of the instruction being executed

	// Globals persist across Interpret calls until Reset
	globals map[string]Value

	// Per-offset dispatch counts, used for hot loop detection and stats
	counts       map[int]uint64
	loopHeaders  []int
	hotThreshold uint64

	out      io.Writer
	observer Observer
	trace    bool

	// Context is checked for cancellation every few thousand instructions
	Context context.Context
}

// New creates a VM writing program output to stdout
func New() *VM {
	return &VM{
		globals:      make(map[string]Value),
		counts:       make(map[int]uint64),
		hotThreshold: DefaultHotThreshold,
		out:          os.Stdout,
	}
}

// SetOutput redirects the output of show
func (vm *VM) SetOutput(w io.Writer) {
	vm.out = w
}

// SetContext sets the context for cancellation
func (vm *VM) SetContext(ctx context.Context) {
	vm.Context = ctx
}

// SetObserver installs a profiling observer (nil to remove)
func (vm *VM) SetObserver(o Observer) {
	vm.observer = o
}

// SetHotThreshold sets the loop header count above which a loop is reported
func (vm *VM) SetHotThreshold(n uint64) {
	vm.hotThreshold = n
}

// SetTrace enables per-instruction debug logging
func (vm *VM) SetTrace(on bool) {
	vm.trace = on
}

// Interpret runs chunk from the beginning on an empty stack.
// Globals and execution counts carry over from previous runs.
func (vm *VM) Interpret(chunk *Chunk) (Value, error) {
	if chunk == nil {
		return NilVal(), vm.runtimeError("No chunk to execute")
	}
	vm.chunk = chunk
	vm.ip = 0
	vm.opIP = 0
	vm.sp = 0
	vm.loopHeaders = vm.loopHeaders[:0]

	return vm.execute()
}

func (vm *VM) execute() (Value, error) {
	opsSinceCheck := 0

	for {
		// Check for cancellation periodically
		opsSinceCheck++
		if opsSinceCheck >= config.ContextInterval {
			opsSinceCheck = 0
			if vm.Context != nil {
				select {
				case <-vm.Context.Done():
					return NilVal(), &diagnostics.DiagnosticError{
						Code:    diagnostics.ErrR001,
						Line:    vm.chunk.LineAt(vm.ip),
						Message: "Execution cancelled: " + vm.Context.Err().Error(),
						Err:     vm.Context.Err(),
					}
				default:
				}
			}
		}

		res, done, err := vm.step()
		if err != nil {
			return NilVal(), err
		}
		if done {
			return res, nil
		}
	}
}

// step executes a single instruction
func (vm *VM) step() (res Value, done bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			switch r {
			case errStackUnderflow, errStackOverflow:
				err = vm.stackError(r.(error))
			case errTruncatedBytecode:
				err = vm.runtimeError("%s", r.(error).Error())
			default:
				panic(r) // Re-panic other errors
			}
			res = NilVal()
			done = false
		}
	}()

	if vm.ip >= len(vm.chunk.Code) {
		// Falling off the end returns the top of the stack
		if vm.sp > 0 {
			return vm.stack[vm.sp-1], true, nil
		}
		return NilVal(), true, nil
	}
	if vm.ip < 0 {
		panic(errTruncatedBytecode)
	}

	vm.opIP = vm.ip
	vm.counts[vm.opIP]++
	op := Opcode(vm.chunk.Code[vm.ip])
	vm.ip++

	if vm.trace {
		log.Debugf("%s", strings.TrimRight(DisassembleInstruction(vm.chunk, vm.opIP), "\n"))
	}

	if vm.observer == nil {
		return vm.executeOneOp(op)
	}

	start := time.Now()
	res, done, err = vm.executeOneOp(op)
	vm.observer.OnStep(vm.opIP, op, time.Since(start))
	return res, done, err
}

func (vm *VM) push(v Value) {
	if vm.sp >= StackMax {
		panic(errStackOverflow)
	}
	vm.stack[vm.sp] = v
	vm.sp++
}

func (vm *VM) pop() Value {
	if vm.sp <= 0 {
		panic(errStackUnderflow)
	}
	vm.sp--
	return vm.stack[vm.sp]
}

func (vm *VM) peek(distance int) Value {
	idx := vm.sp - 1 - distance
	if idx < 0 {
		panic(errStackUnderflow)
	}
	return vm.stack[idx]
}

// Read helpers
func (vm *VM) readByte() byte {
	if vm.ip >= len(vm.chunk.Code) {
		panic(errTruncatedBytecode)
	}
	b := vm.chunk.Code[vm.ip]
	vm.ip++
	return b
}

func (vm *VM) readShort() int {
	high := vm.readByte()
	low := vm.readByte()
	return int(high)<<8 | int(low)
}

func (vm *VM) readConstant() (Value, error) {
	idx := vm.readShort()
	if idx >= len(vm.chunk.Constants) {
		return NilVal(), vm.runtimeError("Constant index %d out of bounds", idx)
	}
	return vm.chunk.Constants[idx], nil
}

func (vm *VM) readName() (string, error) {
	v, err := vm.readConstant()
	if err != nil {
		return "", err
	}
	if !v.IsString() {
		return "", vm.runtimeError("Expected string constant")
	}
	return v.AsString(), nil
}

// currentLine is the source line of the executing instruction
func (vm *VM) currentLine() int {
	if vm.chunk == nil {
		return 0
	}
	return vm.chunk.LineAt(vm.opIP)
}

func (vm *VM) runtimeError(format string, args ...interface{}) error {
	return diagnostics.NewError(diagnostics.ErrR001, vm.currentLine(), format, args...)
}

func (vm *VM) stackError(err error) error {
	return &diagnostics.DiagnosticError{
		Code:    diagnostics.ErrS001,
		Line:    vm.currentLine(),
		Message: err.Error(),
		Err:     err,
	}
}

// enterLoop records a loop header the first time it is reached
func (vm *VM) enterLoop(offset int) {
	if n := len(vm.loopHeaders); n > 0 && vm.loopHeaders[n-1] == offset {
		return
	}
	vm.loopHeaders = append(vm.loopHeaders, offset)
}

// exitLoop reports the innermost loop if its header ran often enough
func (vm *VM) exitLoop() {
	n := len(vm.loopHeaders)
	if n == 0 {
		return
	}
	header := vm.loopHeaders[n-1]
	vm.loopHeaders = vm.loopHeaders[:n-1]

	count := vm.counts[header]
	if count <= vm.hotThreshold {
		return
	}
	log.Noticef("Hot loop detected at instruction %d", header)
	if h, ok := vm.observer.(HotLoopObserver); ok {
		h.OnHotLoop(header, count)
	}
}
