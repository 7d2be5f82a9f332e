package main

import (
	"unicode/utf8"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Z2ZATL/Luma-CL/internal/lexer"
)

// findDeclaration returns the name token of the first `let <name>`.
func findDeclaration(tokens []lexer.Token, name string) (lexer.Token, bool) {
	if name == "" {
		return lexer.Token{}, false
	}
	identType := lexer.Definition.Symbols()[lexer.Ident]
	keywordType := lexer.Definition.Symbols()[lexer.Keyword]
	for i := 0; i+1 < len(tokens); i++ {
		if tokens[i].Type == keywordType && tokens[i].Value == "let" &&
			tokens[i+1].Type == identType && tokens[i+1].Value == name {
			return tokens[i+1], true
		}
	}
	return lexer.Token{}, false
}

func (s *LanguageServer) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	doc, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	word := getWordAtPosition(doc.Text, int(params.Position.Line), int(params.Position.Character))
	decl, ok := findDeclaration(doc.Tokens, word)
	if !ok {
		return nil, nil
	}

	line := protocol.UInteger(decl.Pos.Line - 1)
	start := protocol.UInteger(decl.Pos.Column - 1)
	return protocol.Location{
		URI: params.TextDocument.URI,
		Range: protocol.Range{
			Start: protocol.Position{Line: line, Character: start},
			End:   protocol.Position{Line: line, Character: start + protocol.UInteger(utf8.RuneCountInString(decl.Value))},
		},
	}, nil
}
