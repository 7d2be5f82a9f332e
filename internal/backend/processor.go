package backend

import (
	"github.com/Z2ZATL/Luma-CL/internal/parser"
	"github.com/Z2ZATL/Luma-CL/internal/pipeline"
	"github.com/Z2ZATL/Luma-CL/internal/vm"
)

// ParseProcessor turns ctx.SourceCode into ctx.Program.
type ParseProcessor struct{}

func (ParseProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	// A preloaded chunk needs no front end
	if ctx.Failed() || ctx.Program != nil || ctx.Chunk != nil {
		return ctx
	}

	program, err := parser.ParseFile(ctx.FilePath, ctx.SourceCode)
	if err != nil {
		ctx.AddError(err)
		return ctx
	}
	ctx.Program = program
	return ctx
}

// CompileProcessor turns ctx.Program into ctx.Chunk.
type CompileProcessor struct{}

func (CompileProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Failed() || ctx.Chunk != nil || ctx.Program == nil {
		return ctx
	}

	chunk, err := vm.NewCompiler().Compile(ctx.Program)
	if err != nil {
		ctx.AddError(err)
		return ctx
	}
	if ctx.FilePath != "" {
		chunk.File = ctx.FilePath
	}
	ctx.Chunk = chunk
	return ctx
}

// ExecutionProcessor implements pipeline.Processor to run a Backend
type ExecutionProcessor struct {
	Backend Backend
}

// NewExecutionProcessor creates a new pipeline step for the given backend
func NewExecutionProcessor(b Backend) *ExecutionProcessor {
	return &ExecutionProcessor{Backend: b}
}

func (p *ExecutionProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	// If previous steps failed, don't run execution
	if ctx.Failed() || ctx.Chunk == nil {
		return ctx
	}

	result, err := p.Backend.Run(ctx)
	if err != nil {
		ctx.AddError(err)
		return ctx
	}
	ctx.Result = result
	return ctx
}

// Frontend builds the parse and compile stages.
func Frontend() *pipeline.Pipeline {
	return pipeline.New(ParseProcessor{}, CompileProcessor{})
}

// Standard builds the parse, compile and execute pipeline for b.
func Standard(b Backend) *pipeline.Pipeline {
	return Frontend().Then(NewExecutionProcessor(b))
}
