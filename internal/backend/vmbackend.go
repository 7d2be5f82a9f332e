package backend

import (
	"fmt"

	"github.com/Z2ZATL/Luma-CL/internal/pipeline"
	"github.com/Z2ZATL/Luma-CL/internal/vm"
)

// VMBackend executes chunks on a long-lived VM, so globals persist between
// runs (the REPL and server sessions rely on this).
type VMBackend struct {
	machine *vm.VM
}

// NewVM creates a VM backend. A nil machine gets a fresh VM.
func NewVM(machine *vm.VM) *VMBackend {
	if machine == nil {
		machine = vm.New()
	}
	return &VMBackend{machine: machine}
}

// Machine returns the underlying VM.
func (b *VMBackend) Machine() *vm.VM {
	return b.machine
}

// Run executes ctx.Chunk
func (b *VMBackend) Run(ctx *pipeline.PipelineContext) (vm.Value, error) {
	if ctx.Chunk == nil {
		return vm.NilVal(), fmt.Errorf("no chunk to execute")
	}
	if ctx.Output != nil {
		b.machine.SetOutput(ctx.Output)
	}
	return b.machine.Interpret(ctx.Chunk)
}

func (b *VMBackend) Name() string {
	return "vm"
}
