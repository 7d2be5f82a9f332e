package ast

// NumberLiteral is a numeric constant.
type NumberLiteral struct {
	Pos
	Value float64
}

func (*NumberLiteral) expressionNode() {}

// StringLiteral is a quoted string without its quotes.
type StringLiteral struct {
	Pos
	Value string
}

func (*StringLiteral) expressionNode() {}

type BooleanLiteral struct {
	Pos
	Value bool
}

func (*BooleanLiteral) expressionNode() {}

// Identifier is a variable reference.
type Identifier struct {
	Pos
	Name string
}

func (*Identifier) expressionNode() {}

// BinaryOp enumerates the infix operators.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEqual
	OpNotEqual
	OpGreater
	OpGreaterEqual
	OpLess
	OpLessEqual
	OpAnd
	OpOr
)

var binaryOpSymbols = [...]string{
	OpAdd:          "+",
	OpSub:          "-",
	OpMul:          "*",
	OpDiv:          "/",
	OpMod:          "%",
	OpEqual:        "==",
	OpNotEqual:     "!=",
	OpGreater:      ">",
	OpGreaterEqual: ">=",
	OpLess:         "<",
	OpLessEqual:    "<=",
	OpAnd:          "and",
	OpOr:           "or",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpSymbols) {
		return binaryOpSymbols[op]
	}
	return "?"
}

// BinaryExpression is Left Op Right.
type BinaryExpression struct {
	Pos
	Op    BinaryOp
	Left  Expression
	Right Expression
}

func (*BinaryExpression) expressionNode() {}

// UnaryOp enumerates the prefix operators.
type UnaryOp int

const (
	OpNegate UnaryOp = iota
	OpNot
)

func (op UnaryOp) String() string {
	if op == OpNot {
		return "not"
	}
	return "-"
}

// UnaryExpression is Op Operand.
type UnaryExpression struct {
	Pos
	Op      UnaryOp
	Operand Expression
}

func (*UnaryExpression) expressionNode() {}

// CallExpression is name(args). The compiler rejects it.
type CallExpression struct {
	Pos
	Name      string
	Arguments []Expression
}

func (*CallExpression) expressionNode() {}
