package vm

import (
	"sort"

	"github.com/Z2ZATL/Luma-CL/internal/diagnostics"
)

// ExecutionStat is the dispatch count of one instruction offset
type ExecutionStat struct {
	Offset int
	Count  uint64
}

// SetGlobal sets a global variable
func (vm *VM) SetGlobal(name string, value Value) {
	vm.globals[name] = value
}

// GetGlobal returns a copy of a global variable
func (vm *VM) GetGlobal(name string) (Value, bool) {
	v, ok := vm.globals[name]
	return v, ok
}

// GetGlobals returns a copy of the globals table
func (vm *VM) GetGlobals() map[string]Value {
	out := make(map[string]Value, len(vm.globals))
	for k, v := range vm.globals {
		out[k] = v
	}
	return out
}

// ExecutionStats returns per-offset dispatch counts, most executed first
func (vm *VM) ExecutionStats() []ExecutionStat {
	stats := make([]ExecutionStat, 0, len(vm.counts))
	for offset, count := range vm.counts {
		stats = append(stats, ExecutionStat{Offset: offset, Count: count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Offset < stats[j].Offset
	})
	return stats
}

// Reset clears the stack, globals, counters and loaded chunk
func (vm *VM) Reset() {
	vm.sp = 0
	vm.ip = 0
	vm.opIP = 0
	vm.chunk = nil
	vm.globals = make(map[string]Value)
	vm.counts = make(map[int]uint64)
	vm.loopHeaders = vm.loopHeaders[:0]
}

// StackDepth returns the number of values on the operand stack
func (vm *VM) StackDepth() int {
	return vm.sp
}

// Push pushes a value for hosts driving the stack directly
func (vm *VM) Push(v Value) (err error) {
	defer vm.recoverStack(&err)
	vm.push(v)
	return nil
}

// Pop pops a value for hosts driving the stack directly
func (vm *VM) Pop() (v Value, err error) {
	defer vm.recoverStack(&err)
	return vm.pop(), nil
}

func (vm *VM) recoverStack(err *error) {
	if r := recover(); r != nil {
		if r == errStackOverflow || r == errStackUnderflow {
			*err = vm.stackError(r.(error))
			return
		}
		panic(r)
	}
}

func (vm *VM) ioError(err error) error {
	return diagnostics.Wrap(diagnostics.ErrI001, vm.currentLine(), err)
}
