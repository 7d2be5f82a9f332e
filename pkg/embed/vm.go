// Package luma embeds the Luma VM in Go programs.
package luma

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/Z2ZATL/Luma-CL/internal/backend"
	"github.com/Z2ZATL/Luma-CL/internal/parser"
	"github.com/Z2ZATL/Luma-CL/internal/pipeline"
	"github.com/Z2ZATL/Luma-CL/internal/vm"
)

// ErrClosed is returned by every call on a closed VM.
var ErrClosed = errors.New("vm closed")

// Result mirrors the outcome of a single Execute call.
type Result struct {
	Success      bool
	ErrorMessage string
}

// Option configures a VM.
type Option func(*VM)

// WithOutput redirects the output of show.
func WithOutput(w io.Writer) Option {
	return func(v *VM) { v.output = w }
}

// WithObserver installs a profiling observer.
func WithObserver(o vm.Observer) Option {
	return func(v *VM) { v.machine.SetObserver(o) }
}

// WithContext bounds every execution by ctx.
func WithContext(ctx context.Context) Option {
	return func(v *VM) { v.machine.SetContext(ctx) }
}

// VM wraps the underlying Luma VM and provides a high-level embedding API.
// Globals persist across calls until Close. A VM is safe for concurrent use;
// calls are serialized.
type VM struct {
	mu         sync.Mutex
	id         uuid.UUID
	machine    *vm.VM
	backend    *backend.VMBackend
	marshaller *Marshaller
	output     io.Writer
	closed     bool
}

// New creates a new Luma VM instance.
func New(opts ...Option) *VM {
	machine := vm.New()
	v := &VM{
		id:         uuid.New(),
		machine:    machine,
		backend:    backend.NewVM(machine),
		marshaller: NewMarshaller(),
		output:     os.Stdout,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ID identifies this instance.
func (v *VM) ID() string {
	return v.id.String()
}

// SetContext replaces the execution context.
func (v *VM) SetContext(ctx context.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.machine.SetContext(ctx)
}

// SetOutput redirects the output of show.
func (v *VM) SetOutput(w io.Writer) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.output = w
}

// Execute compiles and runs source, reporting failure as a message.
func (v *VM) Execute(source string) Result {
	if _, err := v.run(source, ""); err != nil {
		return Result{ErrorMessage: err.Error()}
	}
	return Result{Success: true}
}

// Eval executes a Luma program and returns the Go form of its result.
func (v *VM) Eval(source string) (interface{}, error) {
	result, err := v.run(source, "<eval>")
	if err != nil {
		return nil, err
	}
	return v.marshaller.FromValue(result, nil)
}

// EvalExpression evaluates a single expression against the current globals.
func (v *VM) EvalExpression(expr string) (interface{}, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil, ErrClosed
	}

	node, err := parser.ParseExpression(expr)
	if err != nil {
		return nil, err
	}
	chunk, err := vm.NewCompiler().CompileExpression(node)
	if err != nil {
		return nil, err
	}
	v.machine.SetOutput(v.output)
	result, err := v.machine.Interpret(chunk)
	if err != nil {
		return nil, err
	}
	return v.marshaller.FromValue(result, nil)
}

// LoadFile runs a source file or a compiled chunk file.
func (v *VM) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}

	ctx := pipeline.NewPipelineContext(string(data))
	ctx.FilePath = path
	ctx.Output = v.output
	if vm.IsChunkFile(data) {
		chunk, err := vm.DeserializeChunk(data)
		if err != nil {
			return err
		}
		ctx.Chunk = chunk
	}
	return backend.Standard(v.backend).Run(ctx).Err()
}

func (v *VM) run(source, path string) (vm.Value, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return vm.NilVal(), ErrClosed
	}

	ctx := pipeline.NewPipelineContext(source)
	ctx.FilePath = path
	ctx.Output = v.output
	ctx = backend.Standard(v.backend).Run(ctx)
	if err := ctx.Err(); err != nil {
		return vm.NilVal(), err
	}
	return ctx.Result, nil
}

// Get returns a copy of a global converted to Go.
func (v *VM) Get(name string) (interface{}, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil, false
	}
	val, ok := v.machine.GetGlobal(name)
	if !ok {
		return nil, false
	}
	out, err := v.marshaller.FromValue(val, nil)
	if err != nil {
		return nil, false
	}
	return out, true
}

// GetNumber returns a global coerced to a number.
func (v *VM) GetNumber(name string) (float64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return 0, ErrClosed
	}
	val, ok := v.machine.GetGlobal(name)
	if !ok {
		return 0, fmt.Errorf("undefined variable '%s'", name)
	}
	return val.ToNumber()
}

// Set copies a Go value into a global.
func (v *VM) Set(name string, val interface{}) error {
	lv, err := v.marshaller.ToValue(val)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	v.machine.SetGlobal(name, lv)
	return nil
}

// SetNumber stores a number global.
func (v *VM) SetNumber(name string, n float64) error {
	return v.Set(name, n)
}

// Globals returns a Go copy of every global.
func (v *VM) Globals() map[string]interface{} {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[string]interface{})
	if v.closed {
		return out
	}
	for name, val := range v.machine.GetGlobals() {
		if goVal, err := v.marshaller.FromValue(val, nil); err == nil {
			out[name] = goVal
		}
	}
	return out
}

// Stats returns per-offset execution counts, most executed first.
func (v *VM) Stats() []vm.ExecutionStat {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	return v.machine.ExecutionStats()
}

// Close resets the VM. Later calls fail with ErrClosed.
func (v *VM) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	v.machine.Reset()
	v.closed = true
	return nil
}
