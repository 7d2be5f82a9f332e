// Package pipeline threads one Luma source file through the front end,
// the compiler and a backend.
package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("luma.pipeline")

// Pipeline is an ordered list of stages sharing one context.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Then returns a pipeline with more stages appended.
func (p *Pipeline) Then(processors ...Processor) *Pipeline {
	all := make([]Processor, 0, len(p.processors)+len(processors))
	all = append(all, p.processors...)
	return &Pipeline{processors: append(all, processors...)}
}

// Run passes ctx through every stage. Stages skip their work when the
// context has already failed, so all of them are called.
func (p *Pipeline) Run(ctx *PipelineContext) *PipelineContext {
	for _, processor := range p.processors {
		start := time.Now()
		before := len(ctx.Errors)
		ctx = processor.Process(ctx)
		if len(ctx.Errors) > before {
			log.Debugf("%s failed after %s: %s", stageName(processor), time.Since(start), ctx.Errors[before])
		} else {
			log.Debugf("%s done in %s", stageName(processor), time.Since(start))
		}
	}
	return ctx
}

func stageName(p Processor) string {
	name := fmt.Sprintf("%T", p)
	return strings.TrimPrefix(name[strings.LastIndex(name, ".")+1:], "*")
}
