package vm

import "github.com/Z2ZATL/Luma-CL/internal/ast"

var binaryOpcodes = map[ast.BinaryOp]Opcode{
	ast.OpAdd:          OP_ADD,
	ast.OpSub:          OP_SUBTRACT,
	ast.OpMul:          OP_MULTIPLY,
	ast.OpDiv:          OP_DIVIDE,
	ast.OpMod:          OP_MODULO,
	ast.OpEqual:        OP_EQUAL,
	ast.OpNotEqual:     OP_NOT_EQUAL,
	ast.OpGreater:      OP_GREATER,
	ast.OpGreaterEqual: OP_GREATER_EQUAL,
	ast.OpLess:         OP_LESS,
	ast.OpLessEqual:    OP_LESS_EQUAL,
	ast.OpAnd:          OP_AND,
	ast.OpOr:           OP_OR,
}

func (c *Compiler) compileExpression(expr ast.Expression) error {
	line := expr.Line()

	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return c.emitConstant(NumberVal(e.Value), line)

	case *ast.StringLiteral:
		return c.emitConstant(StringVal(e.Value), line)

	case *ast.BooleanLiteral:
		if e.Value {
			c.emit(OP_TRUE, line)
		} else {
			c.emit(OP_FALSE, line)
		}
		return nil

	case *ast.Identifier:
		if slot := c.resolveLocal(e.Name); slot != -1 {
			c.emit(OP_GET_LOCAL, line)
			c.emitByte(byte(slot), line)
			return nil
		}
		return c.emitGlobal(OP_GET_GLOBAL, e.Name, line)

	case *ast.BinaryExpression:
		// and/or evaluate both sides; there is no short circuit.
		if err := c.compileExpression(e.Left); err != nil {
			return err
		}
		if err := c.compileExpression(e.Right); err != nil {
			return err
		}
		op, ok := binaryOpcodes[e.Op]
		if !ok {
			return c.errorAt(line, "Unknown operator '%s'", e.Op)
		}
		c.emit(op, line)
		return nil

	case *ast.UnaryExpression:
		if err := c.compileExpression(e.Operand); err != nil {
			return err
		}
		if e.Op == ast.OpNot {
			c.emit(OP_NOT, line)
		} else {
			c.emit(OP_NEGATE, line)
		}
		return nil

	case *ast.CallExpression:
		return c.errorAt(line, "Function calls not implemented")

	default:
		return c.errorAt(line, "Unsupported expression %s", describe(expr))
	}
}
