package main

import (
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

var keywordDocs = map[string]string{
	"let":    "Declares a variable: `let x be 1` or `let x is 1`. Inside a block the name is local to it.",
	"be":     "Separates the name from the value in `let x be 1`.",
	"is":     "Reassigns a variable (`x is 2`), declares one after `let`, or compares (`a is b`, `a is not b`).",
	"show":   "Prints the value of an expression followed by a newline.",
	"if":     "Conditional: `if cond then ... else if cond then ... else ... end`.",
	"then":   "Starts the body of `if`, `while` and `repeat`.",
	"else":   "Alternative branch of an `if`. `else if` chains another condition.",
	"end":    "Closes an `if`, `while` or `repeat` body.",
	"while":  "Loops while the condition is truthy: `while cond then ... end`.",
	"repeat": "Runs the body a fixed number of times: `repeat 3 times then ... end`.",
	"times":  "Follows the count in `repeat <count> times then`.",
	"and":    "Logical and. Both sides are evaluated; the result is a boolean.",
	"or":     "Logical or. Both sides are evaluated; the result is a boolean.",
	"not":    "Logical negation by truthiness. Only `false` and nil are falsy.",
	"true":   "Boolean literal.",
	"false":  "Boolean literal.",
}

// getKeywordHoverText returns markdown for a keyword, or "".
func getKeywordHoverText(word string) string {
	doc, ok := keywordDocs[word]
	if !ok {
		return ""
	}
	return fmt.Sprintf("**Keyword: %s**\n\n%s", word, doc)
}

func (s *LanguageServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	word := getWordAtPosition(doc.Text, int(params.Position.Line), int(params.Position.Character))
	text := getKeywordHoverText(word)
	if text == "" {
		if decl, ok := findDeclaration(doc.Tokens, word); ok {
			text = fmt.Sprintf("**%s**\n\nvariable declared at line %d", word, decl.Pos.Line)
		}
	}
	if text == "" {
		return nil, nil
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: text,
		},
	}, nil
}
