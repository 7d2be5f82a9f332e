package vm

// beginScope starts a new scope
func (c *Compiler) beginScope() {
	c.scopeDepth++
}

// endScope ends the current scope and pops its locals, innermost first
func (c *Compiler) endScope(line int) {
	c.scopeDepth--

	for len(c.locals) > 0 && c.locals[len(c.locals)-1].Depth > c.scopeDepth {
		c.emit(OP_POP, line)
		c.locals = c.locals[:len(c.locals)-1]
	}
}

// addLocal claims the next stack slot for name. The value must already be
// on top of the stack.
func (c *Compiler) addLocal(name string, line int) (int, error) {
	if len(c.locals) >= MaxLocals {
		return 0, c.errorAt(line, "Too many local variables in scope")
	}
	slot := len(c.locals)
	c.locals = append(c.locals, Local{
		Name:  name,
		Depth: c.scopeDepth,
		Slot:  slot,
	})
	return slot, nil
}

// resolveLocal looks up a local variable by name, innermost first
func (c *Compiler) resolveLocal(name string) int {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].Name != "" && c.locals[i].Name == name {
			return c.locals[i].Slot
		}
	}
	return -1
}

// resolveLocalInScope finds name among the locals of the current depth only
func (c *Compiler) resolveLocalInScope(name string) int {
	for i := len(c.locals) - 1; i >= 0 && c.locals[i].Depth == c.scopeDepth; i-- {
		if c.locals[i].Name == name {
			return c.locals[i].Slot
		}
	}
	return -1
}

// emit helpers

func (c *Compiler) emit(op Opcode, line int) {
	c.currentChunk().WriteOp(op, line)
}

func (c *Compiler) emitByte(b byte, line int) {
	c.currentChunk().Write(b, line)
}

func (c *Compiler) emitConstant(value Value, line int) error {
	return c.wrapAt(line, c.currentChunk().WriteConstant(value, line))
}

func (c *Compiler) emitJump(op Opcode, line int) int {
	return c.currentChunk().EmitJump(op, line)
}

func (c *Compiler) patchJump(offset int, line int) error {
	return c.wrapAt(line, c.currentChunk().PatchJump(offset))
}
