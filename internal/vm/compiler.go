package vm

import (
	"fmt"

	"github.com/Z2ZATL/Luma-CL/internal/ast"
	"github.com/Z2ZATL/Luma-CL/internal/diagnostics"
)

// Local represents a local variable during compilation
type Local struct {
	Name  string // empty for compiler-synthesised slots
	Depth int    // Scope depth where this local was declared
	Slot  int    // Stack slot
}

// Compiler compiles AST to bytecode
type Compiler struct {
	chunk *Chunk

	locals     []Local
	scopeDepth int // 0 = global

	lastLine int
}

// NewCompiler creates a compiler. A Compiler may be reused; every call to
// Compile starts from a fresh chunk and an empty scope.
func NewCompiler() *Compiler {
	return &Compiler{}
}

func (c *Compiler) reset() {
	c.chunk = NewChunk()
	c.locals = c.locals[:0]
	c.scopeDepth = 0
	c.lastLine = 1
}

func (c *Compiler) currentChunk() *Chunk {
	return c.chunk
}

// Compile compiles a program. The emitted code always ends with OP_RETURN.
func (c *Compiler) Compile(program *ast.Program) (*Chunk, error) {
	c.reset()
	c.chunk.File = program.File

	for _, stmt := range program.Statements {
		if err := c.compileStatement(stmt); err != nil {
			return nil, err
		}
	}

	c.emit(OP_RETURN, c.lastLine)
	return c.chunk, nil
}

// CompileExpression compiles a single expression so that running the chunk
// yields its value.
func (c *Compiler) CompileExpression(expr ast.Expression) (*Chunk, error) {
	c.reset()
	if err := c.compileExpression(expr); err != nil {
		return nil, err
	}
	c.emit(OP_RETURN, expr.Line())
	return c.chunk, nil
}

// errorAt builds a compile error for the given source line
func (c *Compiler) errorAt(line int, format string, args ...interface{}) error {
	return diagnostics.NewError(diagnostics.ErrC001, line, format, args...)
}

// wrapAt turns a chunk-level failure into a compile error
func (c *Compiler) wrapAt(line int, err error) error {
	if err == nil {
		return nil
	}
	return c.errorAt(line, "%s", err.Error())
}

// identifierConstant interns a global name in the constant pool
func (c *Compiler) identifierConstant(name string, line int) (int, error) {
	idx, err := c.chunk.AddConstant(StringVal(name))
	if err != nil {
		return 0, c.wrapAt(line, err)
	}
	c.chunk.Globals[name] = idx
	return idx, nil
}

func (c *Compiler) emitGlobal(op Opcode, name string, line int) error {
	idx, err := c.identifierConstant(name, line)
	if err != nil {
		return err
	}
	c.emit(op, line)
	c.chunk.writeShort(idx, line)
	return nil
}

// Compile is a convenience wrapper for one-shot compilation.
func Compile(program *ast.Program) (*Chunk, error) {
	return NewCompiler().Compile(program)
}

func describe(node ast.Node) string {
	return fmt.Sprintf("%T", node)
}
