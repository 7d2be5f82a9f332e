// Package lexer defines the Luma token set on top of participle's rule lexer.
package lexer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	plexer "github.com/alecthomas/participle/v2/lexer"
	"golang.org/x/text/unicode/norm"

	"github.com/Z2ZATL/Luma-CL/internal/config"
	"github.com/Z2ZATL/Luma-CL/internal/diagnostics"
)

// Token is a single lexeme with its position.
type Token = plexer.Token

// Rule names, usable as participle token type references.
const (
	Whitespace   = "Whitespace"
	MultiComment = "MultiComment"
	Comment      = "Comment"
	EOL          = "EOL"
	String       = "String"
	Number       = "Number"
	Ident        = "Ident"
	Keyword      = "Keyword"
	Operator     = "Operator"
)

// Elided lists the token types the parser never sees.
var Elided = []string{Whitespace, MultiComment, Comment}

var rules = plexer.MustSimple([]plexer.SimpleRule{
	{Name: Whitespace, Pattern: `[ \t\r\f]+`},
	{Name: MultiComment, Pattern: `##[\s\S]*?##`},
	{Name: "UnclosedComment", Pattern: `##[\s\S]*`},
	{Name: Comment, Pattern: `#[^\n]*`},
	{Name: EOL, Pattern: `\n`},
	{Name: String, Pattern: `"[^"]*"|'[^']*'`},
	{Name: "UnclosedString", Pattern: `["']`},
	{Name: Number, Pattern: `[0-9][0-9.]*`},
	{Name: Ident, Pattern: `[\p{L}_][\p{L}\p{M}\p{N}_]*`},
	{Name: Operator, Pattern: `==|!=|>=|<=|[-+*/%=<>(),]`},
	{Name: "Invalid", Pattern: `.`},
})

// Definition is the participle lexer definition for Luma source.
// Keywords are lexed as identifiers and re-typed afterwards, so that
// "letter" stays one identifier.
var Definition = newDefinition()

type definition struct {
	base    *plexer.StatefulDefinition
	symbols map[string]plexer.TokenType
	names   map[plexer.TokenType]string
	keyword plexer.TokenType
}

func newDefinition() *definition {
	d := &definition{
		base:    rules,
		symbols: map[string]plexer.TokenType{},
		names:   map[plexer.TokenType]string{},
	}
	var max plexer.TokenType
	for name, t := range rules.Symbols() {
		d.symbols[name] = t
		d.names[t] = name
		if t > max {
			max = t
		}
	}
	d.keyword = max + 1
	d.symbols[Keyword] = d.keyword
	d.names[d.keyword] = Keyword
	return d
}

func (d *definition) Symbols() map[string]plexer.TokenType {
	return d.symbols
}

func (d *definition) Lex(filename string, r io.Reader) (plexer.Lexer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return d.LexString(filename, string(data))
}

func (d *definition) LexString(filename string, input string) (plexer.Lexer, error) {
	l, err := d.base.LexString(filename, Normalize(input))
	if err != nil {
		return nil, err
	}
	return &stream{def: d, base: l}, nil
}

// TypeName returns the rule name of a token type.
func TypeName(t plexer.TokenType) string {
	if t == plexer.EOF {
		return "EOF"
	}
	return Definition.names[t]
}

// Normalize converts source text to NFC so that composed and decomposed
// spellings of an identifier are the same name.
func Normalize(source string) string {
	return norm.NFC.String(source)
}

type stream struct {
	def  *definition
	base plexer.Lexer
}

func (s *stream) Next() (plexer.Token, error) {
	tok, err := s.base.Next()
	if err != nil {
		return tok, diagnostics.NewError(diagnostics.ErrL001, 0, "%s", err.Error())
	}
	return s.def.classify(tok)
}

func (d *definition) classify(tok plexer.Token) (plexer.Token, error) {
	switch d.names[tok.Type] {
	case Ident:
		if config.IsKeyword(tok.Value) {
			tok.Type = d.keyword
		}
	case Number:
		if _, err := strconv.ParseFloat(tok.Value, 64); err != nil {
			return tok, lexError(tok, "Invalid number '%s'", tok.Value)
		}
	case "UnclosedString":
		return tok, lexError(tok, "Unterminated string")
	case "UnclosedComment":
		return tok, lexError(tok, "Unterminated multi-line comment")
	case "Invalid":
		switch tok.Value {
		case ":":
			return tok, lexError(tok, "Unexpected character ':'. Use 'then' instead for control structures.")
		case "!":
			return tok, lexError(tok, "Unexpected character '!'. Did you mean '!='?")
		}
		return tok, lexError(tok, "Unexpected character '%s'", tok.Value)
	}
	return tok, nil
}

func lexError(tok plexer.Token, format string, args ...interface{}) error {
	return diagnostics.NewError(diagnostics.ErrL001, tok.Pos.Line, format, args...)
}

// Tokenize lexes the whole source and returns the significant tokens,
// ending with EOF. The first lexical problem is returned as a LexError.
func Tokenize(source string) ([]Token, error) {
	l, err := Definition.LexString("", source)
	if err != nil {
		return nil, diagnostics.NewError(diagnostics.ErrL001, 0, "%s", err.Error())
	}

	elided := map[plexer.TokenType]bool{}
	for _, name := range Elided {
		elided[Definition.symbols[name]] = true
	}

	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return tokens, err
		}
		if elided[tok.Type] {
			continue
		}
		tokens = append(tokens, tok)
		if tok.EOF() {
			return tokens, nil
		}
	}
}

// Unquote strips the delimiters of a String token value.
func Unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// Describe renders a token for error messages and debugging.
func Describe(tok Token) string {
	if tok.EOF() {
		return "end of input"
	}
	if tok.Value == "\n" {
		return "newline"
	}
	return fmt.Sprintf("'%s'", strings.TrimSpace(tok.Value))
}
