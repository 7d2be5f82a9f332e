// Package ast defines the syntax tree produced by the parser and consumed by
// the compiler.
package ast

// Node is the base interface for all AST nodes.
type Node interface {
	// Line is the 1-based source line the node starts on.
	Line() int
}

// Statement is a Node that represents a statement.
type Statement interface {
	Node
	statementNode()
}

// Expression is a Node that represents an expression.
type Expression interface {
	Node
	expressionNode()
}

// Pos carries the source line of a node.
type Pos struct {
	SrcLine int
}

func (p Pos) Line() int { return p.SrcLine }

// Program is the root node of every AST our parser produces.
type Program struct {
	File       string
	Statements []Statement
}

func (p *Program) Line() int {
	if len(p.Statements) > 0 {
		return p.Statements[0].Line()
	}
	return 1
}

// Block is a statement list with its own scope.
type Block struct {
	Pos
	Statements []Statement
}

// Assignment binds a value to a name.
// let x be 1   (Declare)
// x is 2       (reassign)
type Assignment struct {
	Pos
	Name    string
	Value   Expression
	Declare bool
}

func (*Assignment) statementNode() {}

// ShowStatement prints the display form of a value.
type ShowStatement struct {
	Pos
	Value Expression
}

func (*ShowStatement) statementNode() {}

// ElseIf is one `else if cond then ...` arm.
type ElseIf struct {
	Pos
	Condition Expression
	Body      *Block
}

// IfStatement is if / else if* / else.
type IfStatement struct {
	Pos
	Condition Expression
	Then      *Block
	ElseIfs   []*ElseIf
	Else      *Block // nil when absent
}

func (*IfStatement) statementNode() {}

// WhileStatement loops while Condition is truthy.
type WhileStatement struct {
	Pos
	Condition Expression
	Body      *Block
}

func (*WhileStatement) statementNode() {}

// RepeatStatement runs Body Count times.
type RepeatStatement struct {
	Pos
	Count Expression
	Body  *Block
}

func (*RepeatStatement) statementNode() {}
