package vm

import "github.com/Z2ZATL/Luma-CL/internal/ast"

// emitLoop emits a backward jump to loopStart
func (c *Compiler) emitLoop(loopStart int, line int) error {
	return c.wrapAt(line, c.currentChunk().EmitLoop(loopStart, line))
}

// compileWhile compiles a while loop
//
//	start: LOOP_START <cond> JUMP_IF_FALSE exit; POP; <body>; LOOP start
//	exit:  POP; LOOP_END
func (c *Compiler) compileWhile(s *ast.WhileStatement) error {
	line := s.Line()

	loopStart := c.currentChunk().Len()
	c.emit(OP_LOOP_START, line)

	if err := c.compileExpression(s.Condition); err != nil {
		return err
	}

	exitJump := c.emitJump(OP_JUMP_IF_FALSE, line)
	c.emit(OP_POP, line)

	if err := c.compileBlock(s.Body); err != nil {
		return err
	}
	if err := c.emitLoop(loopStart, line); err != nil {
		return err
	}

	if err := c.patchJump(exitJump, line); err != nil {
		return err
	}
	c.emit(OP_POP, line)
	c.emit(OP_LOOP_END, line)
	return nil
}

// compileRepeat compiles `repeat N times`. The limit and the counter live in
// anonymous local slots so they never leak into the globals table.
//
//	<N>  (limit slot)   CONSTANT 0  (counter slot)
//	start: LOOP_START GET_LOCAL counter GET_LOCAL limit LESS JUMP_IF_FALSE exit; POP
//	       <body>
//	       GET_LOCAL counter CONSTANT 1 ADD SET_LOCAL counter POP LOOP start
//	exit:  POP; LOOP_END; <pop counter, limit>
func (c *Compiler) compileRepeat(s *ast.RepeatStatement) error {
	line := s.Line()
	c.beginScope()

	if err := c.compileExpression(s.Count); err != nil {
		return err
	}
	limit, err := c.addLocal("", line)
	if err != nil {
		return err
	}

	if err := c.emitConstant(NumberVal(0), line); err != nil {
		return err
	}
	counter, err := c.addLocal("", line)
	if err != nil {
		return err
	}

	loopStart := c.currentChunk().Len()
	c.emit(OP_LOOP_START, line)
	c.emit(OP_GET_LOCAL, line)
	c.emitByte(byte(counter), line)
	c.emit(OP_GET_LOCAL, line)
	c.emitByte(byte(limit), line)
	c.emit(OP_LESS, line)

	exitJump := c.emitJump(OP_JUMP_IF_FALSE, line)
	c.emit(OP_POP, line)

	if err := c.compileBlock(s.Body); err != nil {
		return err
	}

	c.emit(OP_GET_LOCAL, line)
	c.emitByte(byte(counter), line)
	if err := c.emitConstant(NumberVal(1), line); err != nil {
		return err
	}
	c.emit(OP_ADD, line)
	c.emit(OP_SET_LOCAL, line)
	c.emitByte(byte(counter), line)
	c.emit(OP_POP, line)

	if err := c.emitLoop(loopStart, line); err != nil {
		return err
	}

	if err := c.patchJump(exitJump, line); err != nil {
		return err
	}
	c.emit(OP_POP, line)
	c.emit(OP_LOOP_END, line)

	c.endScope(line)
	return nil
}
