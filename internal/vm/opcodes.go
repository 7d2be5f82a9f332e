// Package vm implements the Luma bytecode compiler and stack virtual machine
package vm

import (
	"fmt"

	"github.com/Z2ZATL/Luma-CL/internal/config"
)

// Opcode represents a single VM instruction
type Opcode byte

// The numeric order is part of the chunk file format.
const (
	// Literals
	OP_CONSTANT Opcode = iota // Push constant (u16 index)
	OP_NIL
	OP_TRUE
	OP_FALSE

	// Arithmetic
	OP_ADD      // + (concatenates when either side is a string)
	OP_SUBTRACT // -
	OP_MULTIPLY // *
	OP_DIVIDE   // /
	OP_MODULO   // %
	OP_NEGATE   // Unary minus

	// Comparison
	OP_EQUAL
	OP_GREATER
	OP_LESS
	OP_GREATER_EQUAL
	OP_LESS_EQUAL
	OP_NOT_EQUAL

	// Logic (both operands already evaluated)
	OP_NOT
	OP_AND
	OP_OR

	// Variables
	OP_DEFINE_GLOBAL // u16 name index, pops
	OP_GET_GLOBAL    // u16 name index
	OP_SET_GLOBAL    // u16 name index, peeks
	OP_GET_LOCAL     // u8 slot
	OP_SET_LOCAL     // u8 slot, peeks

	// Control flow
	OP_JUMP          // u16 forward offset
	OP_JUMP_IF_FALSE // u16 forward offset, condition stays on the stack
	OP_LOOP          // u16 backward offset

	OP_CALL // Reserved, never executed
	OP_RETURN

	// Stack
	OP_POP
	OP_DUP
	OP_SWAP

	OP_PRINT
	OP_CONCAT

	// Loop markers for the profiler
	OP_LOOP_START
	OP_LOOP_END
)

// OpcodeNames maps opcodes to their string names (for debugging)
var OpcodeNames = map[Opcode]string{
	OP_CONSTANT:      "CONSTANT",
	OP_NIL:           "NIL",
	OP_TRUE:          "TRUE",
	OP_FALSE:         "FALSE",
	OP_ADD:           "ADD",
	OP_SUBTRACT:      "SUBTRACT",
	OP_MULTIPLY:      "MULTIPLY",
	OP_DIVIDE:        "DIVIDE",
	OP_MODULO:        "MODULO",
	OP_NEGATE:        "NEGATE",
	OP_EQUAL:         "EQUAL",
	OP_GREATER:       "GREATER",
	OP_LESS:          "LESS",
	OP_GREATER_EQUAL: "GREATER_EQUAL",
	OP_LESS_EQUAL:    "LESS_EQUAL",
	OP_NOT_EQUAL:     "NOT_EQUAL",
	OP_NOT:           "NOT",
	OP_AND:           "AND",
	OP_OR:            "OR",
	OP_DEFINE_GLOBAL: "DEFINE_GLOBAL",
	OP_GET_GLOBAL:    "GET_GLOBAL",
	OP_SET_GLOBAL:    "SET_GLOBAL",
	OP_GET_LOCAL:     "GET_LOCAL",
	OP_SET_LOCAL:     "SET_LOCAL",
	OP_JUMP:          "JUMP",
	OP_JUMP_IF_FALSE: "JUMP_IF_FALSE",
	OP_LOOP:          "LOOP",
	OP_CALL:          "CALL",
	OP_RETURN:        "RETURN",
	OP_POP:           "POP",
	OP_DUP:           "DUP",
	OP_SWAP:          "SWAP",
	OP_PRINT:         "PRINT",
	OP_CONCAT:        "CONCAT",
	OP_LOOP_START:    "LOOP_START",
	OP_LOOP_END:      "LOOP_END",
}

func (op Opcode) String() string {
	if name, ok := OpcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", byte(op))
}

// OperandWidth returns the number of operand bytes following op.
func (op Opcode) OperandWidth() int {
	switch op {
	case OP_CONSTANT, OP_DEFINE_GLOBAL, OP_GET_GLOBAL, OP_SET_GLOBAL,
		OP_JUMP, OP_JUMP_IF_FALSE, OP_LOOP:
		return 2
	case OP_GET_LOCAL, OP_SET_LOCAL:
		return 1
	}
	return 0
}

// Limits shared by the compiler and the VM
const (
	StackMax     = config.StackMax
	MaxLocals    = config.MaxLocals
	MaxConstants = config.MaxConstants
	MaxJump      = config.MaxJump

	// DefaultHotThreshold is the loop header count above which a loop is reported hot.
	DefaultHotThreshold = config.HotLoopDefault
)
