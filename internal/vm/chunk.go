package vm

import "fmt"

// Chunk represents a sequence of bytecode instructions
type Chunk struct {
	// Code is the bytecode instructions
	Code []byte

	// Constants pool, deduplicated structurally
	Constants []Value

	// Lines maps bytecode offset to source line number (for errors)
	Lines []int

	// Globals maps each global name to its constant index
	Globals map[string]int

	// File is the source file name
	File string
}

// NewChunk creates a new empty chunk
func NewChunk() *Chunk {
	return &Chunk{
		Code:      make([]byte, 0, 256),
		Constants: make([]Value, 0, 64),
		Lines:     make([]int, 0, 256),
		Globals:   make(map[string]int),
	}
}

// Write adds a byte to the chunk with line info
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// WriteOp writes an opcode to the chunk
func (c *Chunk) WriteOp(op Opcode, line int) {
	c.Write(byte(op), line)
}

// AddConstant adds a constant to the pool and returns its index.
// An equal constant already in the pool is reused.
func (c *Chunk) AddConstant(value Value) (int, error) {
	for i, existing := range c.Constants {
		if existing.Type == value.Type && existing.Equals(value) {
			return i, nil
		}
	}
	if len(c.Constants) >= MaxConstants {
		return 0, fmt.Errorf("Too many constants in one chunk")
	}
	c.Constants = append(c.Constants, value)
	return len(c.Constants) - 1, nil
}

// WriteConstant writes OP_CONSTANT followed by the constant index
func (c *Chunk) WriteConstant(value Value, line int) error {
	idx, err := c.AddConstant(value)
	if err != nil {
		return err
	}
	c.WriteOp(OP_CONSTANT, line)
	c.writeShort(idx, line)
	return nil
}

// writeShort writes a 2-byte big-endian operand
func (c *Chunk) writeShort(v int, line int) {
	c.Write(byte(v>>8), line)
	c.Write(byte(v), line)
}

// ReadShort reads a 2-byte operand at offset
func (c *Chunk) ReadShort(offset int) int {
	return int(c.Code[offset])<<8 | int(c.Code[offset+1])
}

// EmitJump writes op with a placeholder operand and returns the operand offset
func (c *Chunk) EmitJump(op Opcode, line int) int {
	c.WriteOp(op, line)
	c.Write(0xff, line)
	c.Write(0xff, line)
	return len(c.Code) - 2
}

// PatchJump points the jump whose operand is at offset to the current end
func (c *Chunk) PatchJump(offset int) error {
	jump := len(c.Code) - offset - 2
	if jump > MaxJump {
		return fmt.Errorf("Too much code to jump over")
	}
	c.Code[offset] = byte(jump >> 8)
	c.Code[offset+1] = byte(jump)
	return nil
}

// EmitLoop writes a backward jump to loopStart
func (c *Chunk) EmitLoop(loopStart int, line int) error {
	c.WriteOp(OP_LOOP, line)
	offset := len(c.Code) - loopStart + 2
	if offset > MaxJump {
		return fmt.Errorf("Loop body too large")
	}
	c.writeShort(offset, line)
	return nil
}

// Len returns the number of bytes in the chunk
func (c *Chunk) Len() int {
	return len(c.Code)
}

// LineAt returns the source line recorded for offset. When the entry is
// missing it falls back to the nearest earlier line, then to an estimate.
func (c *Chunk) LineAt(offset int) int {
	if offset >= 0 && offset < len(c.Lines) && c.Lines[offset] > 0 {
		return c.Lines[offset]
	}
	for i := offset - 1; i >= 0; i-- {
		if i < len(c.Lines) && c.Lines[i] > 0 {
			return c.Lines[i]
		}
	}
	return offset/3 + 1
}
