package main

import (
	"sort"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Z2ZATL/Luma-CL/internal/config"
	"github.com/Z2ZATL/Luma-CL/internal/lexer"
)

func (s *LanguageServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	doc, ok := s.document(params.TextDocument.URI)
	if !ok {
		return []protocol.CompletionItem{}, nil
	}

	prefix := getPrefixAtPosition(doc.Text, int(params.Position.Line), int(params.Position.Character))
	return completionItems(doc, prefix), nil
}

// completionItems returns keywords then identifiers of the document that
// start with prefix.
func completionItems(doc *DocumentState, prefix string) []protocol.CompletionItem {
	items := []protocol.CompletionItem{}

	keywordKind := protocol.CompletionItemKindKeyword
	for _, kw := range config.Keywords {
		if strings.HasPrefix(kw, prefix) {
			detail := "keyword"
			items = append(items, protocol.CompletionItem{
				Label:  kw,
				Kind:   &keywordKind,
				Detail: &detail,
			})
		}
	}

	variableKind := protocol.CompletionItemKindVariable
	for _, name := range identifiers(doc.Tokens) {
		// The word being typed is not a suggestion for itself
		if name == prefix || !strings.HasPrefix(name, prefix) {
			continue
		}
		detail := "variable"
		items = append(items, protocol.CompletionItem{
			Label:  name,
			Kind:   &variableKind,
			Detail: &detail,
		})
	}
	return items
}

// identifiers returns the distinct identifier names in tokens, sorted.
func identifiers(tokens []lexer.Token) []string {
	identType := lexer.Definition.Symbols()[lexer.Ident]
	seen := map[string]bool{}
	var names []string
	for _, tok := range tokens {
		if tok.Type != identType || seen[tok.Value] {
			continue
		}
		seen[tok.Value] = true
		names = append(names, tok.Value)
	}
	sort.Strings(names)
	return names
}
