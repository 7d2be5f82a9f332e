// Package parser builds the Luma syntax tree. The grammar is declared as
// participle struct tags in grammar.go and lowered to the ast package here.
package parser

import (
	"errors"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"

	"github.com/Z2ZATL/Luma-CL/internal/ast"
	"github.com/Z2ZATL/Luma-CL/internal/diagnostics"
	"github.com/Z2ZATL/Luma-CL/internal/lexer"
)

var programParser = participle.MustBuild[programNode](
	participle.Lexer(lexer.Definition),
	participle.Elide(lexer.Elided...),
	participle.UseLookahead(2),
)

var expressionParser = participle.MustBuild[orNode](
	participle.Lexer(lexer.Definition),
	participle.Elide(lexer.Elided...),
	participle.UseLookahead(2),
)

// Parse parses a whole program.
func Parse(source string) (*ast.Program, error) {
	return ParseFile("", source)
}

// ParseFile parses a whole program, recording filename on the result.
func ParseFile(filename, source string) (*ast.Program, error) {
	source = lexer.Normalize(source)
	if _, err := lexer.Tokenize(source); err != nil {
		return nil, err
	}

	tree, err := programParser.ParseString(filename, source)
	if err != nil {
		return nil, parseError(err)
	}

	prog := &ast.Program{File: filename}
	prog.Statements, err = lowerStatements(tree.Statements)
	if err != nil {
		return nil, err
	}
	return prog, nil
}

// ParseExpression parses a single expression, optionally followed by newlines.
func ParseExpression(source string) (ast.Expression, error) {
	source = strings.TrimRight(lexer.Normalize(source), " \t\r\n")
	if _, err := lexer.Tokenize(source); err != nil {
		return nil, err
	}

	tree, err := expressionParser.ParseString("", source)
	if err != nil {
		return nil, parseError(err)
	}
	return lowerOr(tree)
}

func parseError(err error) error {
	var d *diagnostics.DiagnosticError
	if errors.As(err, &d) {
		return d
	}

	var perr participle.Error
	if errors.As(err, &perr) {
		return diagnostics.NewError(diagnostics.ErrP001, perr.Position().Line, "%s", capitalize(perr.Message()))
	}
	return diagnostics.Wrap(diagnostics.ErrP001, 0, err)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func errorAt(line int, format string, args ...interface{}) error {
	return diagnostics.NewError(diagnostics.ErrP001, line, format, args...)
}

func parseNumber(text string, line int) (float64, error) {
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, diagnostics.NewError(diagnostics.ErrL001, line, "Invalid number '%s'", text)
	}
	return n, nil
}
