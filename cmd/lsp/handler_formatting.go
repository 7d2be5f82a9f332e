package main

import (
	"strings"
	"unicode/utf8"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Z2ZATL/Luma-CL/internal/prettyprinter"
)

// textDocumentFormatting replaces the whole document with its canonical
// layout. A document that does not parse is left alone.
func (s *LanguageServer) textDocumentFormatting(ctx *glsp.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	doc, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	formatted, err := prettyprinter.Format(doc.Text)
	if err != nil {
		log.Debugf("not formatting %s: %s", params.TextDocument.URI, err)
		return nil, nil
	}
	if formatted == doc.Text {
		return []protocol.TextEdit{}, nil
	}

	return []protocol.TextEdit{{
		Range:   protocol.Range{Start: protocol.Position{}, End: documentEnd(doc.Text)},
		NewText: formatted,
	}}, nil
}

func documentEnd(text string) protocol.Position {
	lines := strings.Split(text, "\n")
	last := lines[len(lines)-1]
	return protocol.Position{
		Line:      protocol.UInteger(len(lines) - 1),
		Character: protocol.UInteger(utf8.RuneCountInString(last)),
	}
}
