// Package backend provides the pipeline stages that turn source into a
// chunk and the execution backends that consume it.
package backend

import (
	"github.com/Z2ZATL/Luma-CL/internal/pipeline"
	"github.com/Z2ZATL/Luma-CL/internal/vm"
)

// Backend is the interface for execution backends
type Backend interface {
	// Run consumes ctx.Chunk and returns the program result
	Run(ctx *pipeline.PipelineContext) (vm.Value, error)

	// Name returns the backend name for display
	Name() string
}
