// Package prettyprinter prints Luma programs in canonical layout.
package prettyprinter

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/Z2ZATL/Luma-CL/internal/ast"
	"github.com/Z2ZATL/Luma-CL/internal/lexer"
	"github.com/Z2ZATL/Luma-CL/internal/parser"
)

// --- Code Printer (Output looks like source code) ---

// Operator precedence (higher = binds tighter). All binary operators are
// left-associative.
var operatorPrecedence = map[ast.BinaryOp]int{
	ast.OpOr:           1,
	ast.OpAnd:          2,
	ast.OpEqual:        3,
	ast.OpNotEqual:     3,
	ast.OpGreater:      4,
	ast.OpGreaterEqual: 4,
	ast.OpLess:         4,
	ast.OpLessEqual:    4,
	ast.OpAdd:          5,
	ast.OpSub:          5,
	ast.OpMul:          6,
	ast.OpDiv:          6,
	ast.OpMod:          6,
}

const unaryPrecedence = 7

func getPrecedence(op ast.BinaryOp) int {
	if p, ok := operatorPrecedence[op]; ok {
		return p
	}
	return unaryPrecedence
}

// comment is a source comment re-attached by line.
type comment struct {
	line     int
	text     string
	trailing bool // follows code on the same line
}

type CodePrinter struct {
	buf      bytes.Buffer
	indent   int
	comments []comment
	next     int // first comment not yet printed
	lastLine int // last source line accounted for
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{}
}

// Format parses source and returns it in canonical layout. Comments are
// kept at their statements.
func Format(source string) (string, error) {
	program, err := parser.Parse(source)
	if err != nil {
		return "", err
	}
	p := NewCodePrinter()
	p.comments = collectComments(source)
	return p.Print(program), nil
}

// collectComments lexes source and keeps comment tokens in order.
func collectComments(source string) []comment {
	l, err := lexer.Definition.LexString("", source)
	if err != nil {
		return nil
	}
	symbols := lexer.Definition.Symbols()
	commentType := symbols[lexer.Comment]
	multiType := symbols[lexer.MultiComment]
	wsType := symbols[lexer.Whitespace]
	eolType := symbols[lexer.EOL]

	var out []comment
	codeOnLine := false
	for {
		tok, err := l.Next()
		if err != nil || tok.EOF() {
			return out
		}
		switch tok.Type {
		case commentType, multiType:
			out = append(out, comment{line: tok.Pos.Line, text: tok.Value, trailing: codeOnLine})
		case eolType:
			codeOnLine = false
		case wsType:
		default:
			codeOnLine = true
		}
	}
}

// Print renders a whole program, ending with a newline.
func (p *CodePrinter) Print(program *ast.Program) string {
	for _, stmt := range program.Statements {
		p.printStatement(stmt)
	}
	p.flushComments(int(^uint(0) >> 1))
	return p.buf.String()
}

func (p *CodePrinter) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("    ")
	}
}

// emit writes one source line for a construct that starts at line, with
// the comments that precede it and any trailing comment.
func (p *CodePrinter) emit(line int, text string) {
	p.flushComments(line)
	p.blankLineBefore(line)

	p.writeIndent()
	p.buf.WriteString(text)
	for p.next < len(p.comments) && p.comments[p.next].line == line && p.comments[p.next].trailing {
		p.buf.WriteString(" ")
		p.buf.WriteString(p.comments[p.next].text)
		p.advance(p.comments[p.next])
	}
	p.buf.WriteString("\n")
	if line > p.lastLine {
		p.lastLine = line
	}
}

// emitSynthetic writes a line with no source position (else, end).
func (p *CodePrinter) emitSynthetic(text string) {
	p.writeIndent()
	p.buf.WriteString(text)
	p.buf.WriteString("\n")
	p.lastLine++
}

func (p *CodePrinter) blankLineBefore(line int) {
	if p.lastLine > 0 && line > p.lastLine+1 {
		p.buf.WriteString("\n")
	}
}

// flushComments prints every pending comment that starts before line.
func (p *CodePrinter) flushComments(line int) {
	for p.next < len(p.comments) && p.comments[p.next].line < line {
		c := p.comments[p.next]
		p.blankLineBefore(c.line)
		p.writeIndent()
		p.buf.WriteString(c.text)
		p.buf.WriteString("\n")
		p.advance(c)
	}
}

func (p *CodePrinter) advance(c comment) {
	p.next++
	if end := c.line + strings.Count(c.text, "\n"); end > p.lastLine {
		p.lastLine = end
	}
}

func (p *CodePrinter) printStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.Assignment:
		if s.Declare {
			p.emit(s.Line(), "let "+s.Name+" be "+p.printExpr(s.Value, 0, false))
		} else {
			p.emit(s.Line(), s.Name+" is "+p.printExpr(s.Value, 0, false))
		}
	case *ast.ShowStatement:
		p.emit(s.Line(), "show "+p.printExpr(s.Value, 0, false))
	case *ast.IfStatement:
		p.emit(s.Line(), "if "+p.printExpr(s.Condition, 0, false)+" then")
		p.printBlock(s.Then)
		for _, ei := range s.ElseIfs {
			p.emit(ei.Line(), "else if "+p.printExpr(ei.Condition, 0, false)+" then")
			p.printBlock(ei.Body)
		}
		if s.Else != nil {
			p.emitSynthetic("else")
			p.printBlock(s.Else)
		}
		p.emitSynthetic("end")
	case *ast.WhileStatement:
		p.emit(s.Line(), "while "+p.printExpr(s.Condition, 0, false)+" then")
		p.printBlock(s.Body)
		p.emitSynthetic("end")
	case *ast.RepeatStatement:
		p.emit(s.Line(), "repeat "+p.printExpr(s.Count, 0, false)+" times then")
		p.printBlock(s.Body)
		p.emitSynthetic("end")
	}
}

func (p *CodePrinter) printBlock(block *ast.Block) {
	if block == nil {
		return
	}
	p.indent++
	for _, stmt := range block.Statements {
		p.printStatement(stmt)
	}
	p.indent--
}

// printExpr prints an expression, adding parentheses only if needed
func (p *CodePrinter) printExpr(expr ast.Expression, parentPrec int, isRight bool) string {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return strconv.FormatFloat(e.Value, 'f', -1, 64)
	case *ast.StringLiteral:
		if strings.Contains(e.Value, `"`) {
			return "'" + e.Value + "'"
		}
		return `"` + e.Value + `"`
	case *ast.BooleanLiteral:
		return strconv.FormatBool(e.Value)
	case *ast.Identifier:
		return e.Name
	case *ast.UnaryExpression:
		operand := p.printExpr(e.Operand, unaryPrecedence, false)
		if e.Op == ast.OpNot {
			return "not " + operand
		}
		if strings.HasPrefix(operand, "-") {
			return "- " + operand
		}
		return "-" + operand
	case *ast.BinaryExpression:
		prec := getPrecedence(e.Op)
		s := p.printExpr(e.Left, prec, false) + " " + e.Op.String() + " " + p.printExpr(e.Right, prec, true)
		if prec < parentPrec || (prec == parentPrec && isRight) {
			return "(" + s + ")"
		}
		return s
	case *ast.CallExpression:
		args := make([]string, len(e.Arguments))
		for i, a := range e.Arguments {
			args[i] = p.printExpr(a, 0, false)
		}
		return e.Name + "(" + strings.Join(args, ", ") + ")"
	}
	return "<???>"
}
