package parser

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/Z2ZATL/Luma-CL/internal/ast"
	"github.com/Z2ZATL/Luma-CL/internal/diagnostics"
)

// render prints an expression fully parenthesised.
func render(e ast.Expression) string {
	switch n := e.(type) {
	case *ast.NumberLiteral:
		return strconv.FormatFloat(n.Value, 'f', -1, 64)
	case *ast.StringLiteral:
		return "'" + n.Value + "'"
	case *ast.BooleanLiteral:
		if n.Value {
			return "true"
		}
		return "false"
	case *ast.Identifier:
		return n.Name
	case *ast.BinaryExpression:
		return "(" + render(n.Left) + " " + n.Op.String() + " " + render(n.Right) + ")"
	case *ast.UnaryExpression:
		return "(" + n.Op.String() + " " + render(n.Operand) + ")"
	case *ast.CallExpression:
		var args []string
		for _, a := range n.Arguments {
			args = append(args, render(a))
		}
		return n.Name + "(" + strings.Join(args, ", ") + ")"
	}
	return "?"
}

func mustParse(t *testing.T, input string) *ast.Program {
	t.Helper()
	prog, err := Parse(input)
	if err != nil {
		t.Fatalf("parse error: %v\ninput: %s", err, input)
	}
	return prog
}

func TestPrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"10 + 2 * 5", "(10 + (2 * 5))"},
		{"(10 + 2) * 5", "((10 + 2) * 5)"},
		{"1 - 2 - 3", "((1 - 2) - 3)"},
		{"a or b and c", "(a or (b and c))"},
		{"a and b == c", "(a and (b == c))"},
		{"a == b < c", "(a == (b < c))"},
		{"a < b + c", "(a < (b + c))"},
		{"a + b % c", "(a + (b % c))"},
		{"-a * b", "((- a) * b)"},
		{"not a == b", "((not a) == b)"},
		{"x is 3", "(x == 3)"},
		{"x is not 3", "(x != 3)"},
		{"x != 3", "(x != 3)"},
		{"x is not not y", "(x != (not y))"},
		{"'a' + \"b\"", "('a' + 'b')"},
		{"true or false", "(true or false)"},
		{"f(1, x + 2)", "f(1, (x + 2))"},
		{"a >= b <= c", "((a >= b) <= c)"},
	}

	for _, tt := range tests {
		expr, err := ParseExpression(tt.input)
		if err != nil {
			t.Errorf("%q: %v", tt.input, err)
			continue
		}
		if got := render(expr); got != tt.want {
			t.Errorf("%q: got %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestStatements(t *testing.T) {
	prog := mustParse(t, `
let x be 10
let y is 'hi'
x is x + 1
y = 2
show x
`)

	if len(prog.Statements) != 5 {
		t.Fatalf("got %d statements", len(prog.Statements))
	}

	decl := prog.Statements[0].(*ast.Assignment)
	if decl.Name != "x" || !decl.Declare || decl.Line() != 2 {
		t.Errorf("decl = %+v", decl)
	}
	if a := prog.Statements[2].(*ast.Assignment); a.Declare || a.Name != "x" {
		t.Errorf("reassign = %+v", a)
	}
	if a := prog.Statements[3].(*ast.Assignment); a.Declare || a.Name != "y" {
		t.Errorf("reassign with = : %+v", a)
	}
	if s := prog.Statements[4].(*ast.ShowStatement); s.Line() != 6 {
		t.Errorf("show line = %d", s.Line())
	}
}

func TestIfElseChain(t *testing.T) {
	prog := mustParse(t, `if x > 1 then
  show 'big'
else if x > 0 then
  show 'small'
else if x is 0 then
  show 'zero'
else
  show 'negative'
  show 'still else'
`)
	if len(prog.Statements) != 1 {
		t.Fatalf("got %d statements", len(prog.Statements))
	}
	stmt := prog.Statements[0].(*ast.IfStatement)
	if len(stmt.Then.Statements) != 1 || len(stmt.ElseIfs) != 2 || stmt.Else == nil {
		t.Fatalf("unexpected shape: %+v", stmt)
	}
	if len(stmt.Else.Statements) != 2 {
		t.Errorf("else has %d statements", len(stmt.Else.Statements))
	}
	if stmt.ElseIfs[1].Line() != 5 {
		t.Errorf("else-if line = %d", stmt.ElseIfs[1].Line())
	}
}

func TestBlocksAreGreedyWithoutEnd(t *testing.T) {
	prog := mustParse(t, "while x < 3 then\n  x is x + 1\nshow x\n")
	if len(prog.Statements) != 1 {
		t.Fatalf("got %d top-level statements", len(prog.Statements))
	}
	w := prog.Statements[0].(*ast.WhileStatement)
	if len(w.Body.Statements) != 2 {
		t.Errorf("body has %d statements", len(w.Body.Statements))
	}
}

func TestEndClosesBlock(t *testing.T) {
	prog := mustParse(t, `repeat 3 times then
  if a then
    show 1
  end
  show 2
end
show 3
while false then end
`)
	if len(prog.Statements) != 3 {
		t.Fatalf("got %d top-level statements", len(prog.Statements))
	}
	r := prog.Statements[0].(*ast.RepeatStatement)
	if len(r.Body.Statements) != 2 {
		t.Errorf("repeat body has %d statements", len(r.Body.Statements))
	}
	w := prog.Statements[2].(*ast.WhileStatement)
	if len(w.Body.Statements) != 0 {
		t.Errorf("while body has %d statements", len(w.Body.Statements))
	}
}

func TestCommentsAndBlankLines(t *testing.T) {
	prog := mustParse(t, "# header\n\n## a\nmulti\n##\nshow 1 # trailing\n\n")
	if len(prog.Statements) != 1 || prog.Statements[0].Line() != 6 {
		t.Fatalf("unexpected program: %+v", prog.Statements)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		code  diagnostics.ErrorCode
		line  int
	}{
		{"let x be", diagnostics.ErrP001, 1},
		{"show 1\nlet be 2", diagnostics.ErrP001, 2},
		{"if x show 1", diagnostics.ErrP001, 1},
		{"repeat 3 then", diagnostics.ErrP001, 1},
		{"show (1 + 2", diagnostics.ErrP001, 1},
		{"else", diagnostics.ErrP001, 1},
		{"show 'x", diagnostics.ErrL001, 1},
		{"if x: show 1", diagnostics.ErrL001, 1},
	}

	for _, tt := range tests {
		_, err := Parse(tt.input)
		if err == nil {
			t.Errorf("%q: expected error", tt.input)
			continue
		}
		var d *diagnostics.DiagnosticError
		if !errors.As(err, &d) {
			t.Errorf("%q: not a diagnostic: %v", tt.input, err)
			continue
		}
		if d.Code != tt.code || d.Line != tt.line {
			t.Errorf("%q: got %s line %d (%v), want %s line %d", tt.input, d.Code, d.Line, err, tt.code, tt.line)
		}
	}
}

func TestParseExpressionRejectsStatements(t *testing.T) {
	if _, err := ParseExpression("let x be 1"); err == nil {
		t.Error("expected error")
	}
	if _, err := ParseExpression("1 + 2\n"); err != nil {
		t.Errorf("trailing newline: %v", err)
	}
}
