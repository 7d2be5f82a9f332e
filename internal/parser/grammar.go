package parser

import "github.com/alecthomas/participle/v2/lexer"

// Grammar nodes. They mirror the surface syntax and are lowered to the ast
// package before compilation.

type programNode struct {
	Pos        lexer.Position
	Statements []*statementNode `( @@ | EOL )*`
}

type statementNode struct {
	Pos    lexer.Position
	Let    *letNode    `  @@`
	Show   *showNode   `| @@`
	If     *ifNode     `| @@`
	While  *whileNode  `| @@`
	Repeat *repeatNode `| @@`
	Assign *assignNode `| @@`
}

// let x be 1 / let x is 1
type letNode struct {
	Pos   lexer.Position
	Name  string  `"let" @Ident ( "be" | "is" )`
	Value *orNode `@@`
}

// x is 1 / x = 1
type assignNode struct {
	Pos   lexer.Position
	Name  string  `@Ident ( "is" | "=" )`
	Value *orNode `@@`
}

type showNode struct {
	Pos   lexer.Position
	Value *orNode `"show" @@`
}

type ifNode struct {
	Pos     lexer.Position
	Cond    *orNode          `"if" @@ "then"`
	Then    []*statementNode `( @@ | EOL )*`
	ElseIfs []*elseIfNode    `@@*`
	HasElse bool             `( @"else"`
	Else    []*statementNode `  ( @@ | EOL )* )?`
	End     bool             `@"end"?`
}

type elseIfNode struct {
	Pos  lexer.Position
	Cond *orNode          `"else" "if" @@ "then"`
	Body []*statementNode `( @@ | EOL )*`
}

type whileNode struct {
	Pos  lexer.Position
	Cond *orNode          `"while" @@ "then"`
	Body []*statementNode `( @@ | EOL )*`
	End  bool             `@"end"?`
}

type repeatNode struct {
	Pos   lexer.Position
	Count *orNode          `"repeat" @@ "times" "then"`
	Body  []*statementNode `( @@ | EOL )*`
	End   bool             `@"end"?`
}

// Expressions, lowest precedence first.

type orNode struct {
	Pos   lexer.Position
	Left  *andNode   `@@`
	Right []*andNode `( "or" @@ )*`
}

type andNode struct {
	Pos   lexer.Position
	Left  *equalityNode   `@@`
	Right []*equalityNode `( "and" @@ )*`
}

type equalityNode struct {
	Pos   lexer.Position
	Left  *comparisonNode `@@`
	Right []*equalityTail `@@*`
}

type equalityTail struct {
	Pos   lexer.Position
	IsNot bool            `(  @( "is" "not" )`
	Is    bool            ` | @"is"`
	Op    string          ` | @( "==" | "!=" ) )`
	Right *comparisonNode `@@`
}

type comparisonNode struct {
	Pos   lexer.Position
	Left  *additiveNode `@@`
	Right []*opTail     `( @@ )*`
}

type opTail struct {
	Pos   lexer.Position
	Op    string        `@( ">=" | "<=" | ">" | "<" )`
	Right *additiveNode `@@`
}

type additiveNode struct {
	Pos   lexer.Position
	Left  *multiplicativeNode `@@`
	Right []*additiveTail     `@@*`
}

type additiveTail struct {
	Pos   lexer.Position
	Op    string              `@( "+" | "-" )`
	Right *multiplicativeNode `@@`
}

type multiplicativeNode struct {
	Pos   lexer.Position
	Left  *unaryNode            `@@`
	Right []*multiplicativeTail `@@*`
}

type multiplicativeTail struct {
	Pos   lexer.Position
	Op    string     `@( "*" | "/" | "%" )`
	Right *unaryNode `@@`
}

type unaryNode struct {
	Pos     lexer.Position
	Op      string       `(  @( "not" | "-" )`
	Operand *unaryNode   `   @@ )`
	Primary *primaryNode `| @@`
}

type primaryNode struct {
	Pos    lexer.Position
	Number *string   `  @Number`
	String *string   `| @String`
	Bool   *string   `| @( "true" | "false" )`
	Call   *callNode `| @@`
	Ident  *string   `| @Ident`
	Group  *orNode   `| "(" @@ ")"`
}

type callNode struct {
	Pos  lexer.Position
	Name string    `@Ident "("`
	Args []*orNode `( @@ ( "," @@ )* )? ")"`
}
