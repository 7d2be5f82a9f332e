package vm

import "github.com/Z2ZATL/Luma-CL/internal/ast"

func (c *Compiler) compileStatement(stmt ast.Statement) error {
	c.lastLine = stmt.Line()

	switch s := stmt.(type) {
	case *ast.Assignment:
		return c.compileAssignment(s)
	case *ast.ShowStatement:
		if err := c.compileExpression(s.Value); err != nil {
			return err
		}
		c.emit(OP_PRINT, s.Line())
		return nil
	case *ast.IfStatement:
		return c.compileIf(s.Condition, s.Then, s.ElseIfs, s.Else, s.Line())
	case *ast.WhileStatement:
		return c.compileWhile(s)
	case *ast.RepeatStatement:
		return c.compileRepeat(s)
	default:
		return c.errorAt(stmt.Line(), "Unsupported statement %s", describe(stmt))
	}
}

// compileAssignment lowers let and reassignment.
//
//	depth 0, let:       <e> DEFINE_GLOBAL
//	depth 0, reassign:  <e> SET_GLOBAL POP
//	depth>0, let:       <e> SET_LOCAL POP  if declared at this depth, else <e> stays as a new slot
//	depth>0, reassign:  <e> SET_LOCAL POP  if any local matches, else SET_GLOBAL POP
func (c *Compiler) compileAssignment(s *ast.Assignment) error {
	line := s.Line()
	if err := c.compileExpression(s.Value); err != nil {
		return err
	}

	if c.scopeDepth == 0 {
		if s.Declare {
			return c.emitGlobal(OP_DEFINE_GLOBAL, s.Name, line)
		}
		if err := c.emitGlobal(OP_SET_GLOBAL, s.Name, line); err != nil {
			return err
		}
		c.emit(OP_POP, line)
		return nil
	}

	slot := -1
	if s.Declare {
		slot = c.resolveLocalInScope(s.Name)
		if slot == -1 {
			_, err := c.addLocal(s.Name, line)
			return err
		}
	} else {
		slot = c.resolveLocal(s.Name)
	}

	if slot == -1 {
		if err := c.emitGlobal(OP_SET_GLOBAL, s.Name, line); err != nil {
			return err
		}
	} else {
		c.emit(OP_SET_LOCAL, line)
		c.emitByte(byte(slot), line)
	}
	c.emit(OP_POP, line)
	return nil
}

// compileBlock compiles statements inside their own scope
func (c *Compiler) compileBlock(block *ast.Block) error {
	c.beginScope()
	if block != nil {
		for _, stmt := range block.Statements {
			if err := c.compileStatement(stmt); err != nil {
				return err
			}
		}
	}
	c.endScope(c.lastLine)
	return nil
}

// compileIf compiles one if/else-if arm and recurses into the rest of the chain.
//
//	<cond> JUMP_IF_FALSE else; POP; <then>; JUMP end
//	else: POP; <next arm | else block>
//	end:
func (c *Compiler) compileIf(cond ast.Expression, then *ast.Block, elseIfs []*ast.ElseIf, elseBlock *ast.Block, line int) error {
	if err := c.compileExpression(cond); err != nil {
		return err
	}

	thenJump := c.emitJump(OP_JUMP_IF_FALSE, line)
	c.emit(OP_POP, line)

	if err := c.compileBlock(then); err != nil {
		return err
	}

	endJump := c.emitJump(OP_JUMP, line)
	if err := c.patchJump(thenJump, line); err != nil {
		return err
	}
	c.emit(OP_POP, line)

	switch {
	case len(elseIfs) > 0:
		next := elseIfs[0]
		if err := c.compileIf(next.Condition, next.Body, elseIfs[1:], elseBlock, next.Line()); err != nil {
			return err
		}
	case elseBlock != nil:
		if err := c.compileBlock(elseBlock); err != nil {
			return err
		}
	}

	return c.patchJump(endJump, line)
}
