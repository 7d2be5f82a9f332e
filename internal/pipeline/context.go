package pipeline

import (
	"io"
	"os"

	"github.com/Z2ZATL/Luma-CL/internal/ast"
	"github.com/Z2ZATL/Luma-CL/internal/vm"
)

// Processor is one stage of the pipeline.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx *PipelineContext) *PipelineContext

func (f ProcessorFunc) Process(ctx *PipelineContext) *PipelineContext {
	return f(ctx)
}

// PipelineContext carries one source file through lexing, parsing,
// compilation and execution.
type PipelineContext struct {
	SourceCode string
	FilePath   string

	Program *ast.Program
	Chunk   *vm.Chunk
	Result  vm.Value

	// Output receives program output. Defaults to stdout.
	Output io.Writer

	Errors []error
}

func NewPipelineContext(sourceCode string) *PipelineContext {
	return &PipelineContext{
		SourceCode: sourceCode,
		Result:     vm.NilVal(),
		Output:     os.Stdout,
	}
}

// Failed reports whether any stage recorded an error.
func (ctx *PipelineContext) Failed() bool {
	return len(ctx.Errors) > 0
}

// Err returns the first recorded error, or nil.
func (ctx *PipelineContext) Err() error {
	if len(ctx.Errors) == 0 {
		return nil
	}
	return ctx.Errors[0]
}

// AddError records err if it is non-nil.
func (ctx *PipelineContext) AddError(err error) {
	if err != nil {
		ctx.Errors = append(ctx.Errors, err)
	}
}
