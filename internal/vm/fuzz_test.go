package vm

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/Z2ZATL/Luma-CL/internal/parser"
)

// FuzzCompileRun feeds source through the whole pipeline. Errors are
// fine, panics are not.
func FuzzCompileRun(f *testing.F) {
	f.Add("let x be 1\nshow x + 2")
	f.Add("if 1 > 2 then show 'a' else if true then show 'b' else show 'c' end")
	f.Add("let i be 0\nwhile i < 5 then\ni is i + 1\nend")
	f.Add("repeat 3 times then show 'x' end")
	f.Add("show 1 / 0")
	f.Add("show -'a'")

	f.Fuzz(func(t *testing.T, src string) {
		program, err := parser.Parse(src)
		if err != nil {
			return
		}
		chunk, err := Compile(program)
		if err != nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		machine := New()
		machine.SetOutput(io.Discard)
		machine.SetContext(ctx)
		_, _ = machine.Interpret(chunk)
	})
}

// FuzzDeserializeChunk runs whatever a chunk file decodes to.
func FuzzDeserializeChunk(f *testing.F) {
	chunk := NewChunk()
	if err := chunk.WriteConstant(NumberVal(7), 1); err != nil {
		f.Fatal(err)
	}
	chunk.WriteOp(OP_PRINT, 1)
	chunk.WriteOp(OP_RETURN, 1)
	data, err := chunk.Serialize()
	if err != nil {
		f.Fatal(err)
	}
	f.Add(data)
	f.Add([]byte("seed"))

	f.Fuzz(func(t *testing.T, data []byte) {
		chunk, err := DeserializeChunk(data)
		if err != nil {
			return
		}
		_ = Disassemble(chunk, "fuzz")

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		machine := New()
		machine.SetOutput(io.Discard)
		machine.SetContext(ctx)
		_, _ = machine.Interpret(chunk)
	})
}
