package backend

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/Z2ZATL/Luma-CL/internal/diagnostics"
	"github.com/Z2ZATL/Luma-CL/internal/pipeline"
	"github.com/Z2ZATL/Luma-CL/internal/vm"
)

// DisasmBackend writes the chunk listing instead of executing it.
type DisasmBackend struct{}

func NewDisasm() *DisasmBackend {
	return &DisasmBackend{}
}

func (b *DisasmBackend) Run(ctx *pipeline.PipelineContext) (vm.Value, error) {
	if ctx.Chunk == nil {
		return vm.NilVal(), fmt.Errorf("no chunk to disassemble")
	}
	name := "script"
	if ctx.FilePath != "" {
		name = filepath.Base(ctx.FilePath)
	}
	if _, err := io.WriteString(ctx.Output, vm.Disassemble(ctx.Chunk, name)); err != nil {
		return vm.NilVal(), diagnostics.Wrap(diagnostics.ErrI001, 0, err)
	}
	return vm.NilVal(), nil
}

func (b *DisasmBackend) Name() string {
	return "disasm"
}
