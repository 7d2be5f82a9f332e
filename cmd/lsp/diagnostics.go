package main

import (
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Z2ZATL/Luma-CL/internal/backend"
	"github.com/Z2ZATL/Luma-CL/internal/diagnostics"
	"github.com/Z2ZATL/Luma-CL/internal/lexer"
	"github.com/Z2ZATL/Luma-CL/internal/pipeline"
)

// DocumentState is the cached analysis of one open document.
type DocumentState struct {
	Text        string
	Tokens      []lexer.Token
	Diagnostics []protocol.Diagnostic
}

// analyze lexes, parses and compiles text. Only the first error is
// reported, matching the compiler.
func analyze(text string) *DocumentState {
	doc := &DocumentState{
		Text:        text,
		Diagnostics: []protocol.Diagnostic{},
	}

	// Tokens up to the first lexical error still feed completion
	doc.Tokens, _ = lexer.Tokenize(lexer.Normalize(text))

	ctx := pipeline.NewPipelineContext(text)
	ctx = backend.Frontend().Run(ctx)
	if err := ctx.Err(); err != nil {
		doc.Diagnostics = append(doc.Diagnostics, toDiagnostic(text, err))
	}
	return doc
}

func toDiagnostic(text string, err error) protocol.Diagnostic {
	line := diagnostics.LineOf(err) - 1 // LSP uses 0-based indexing
	if line < 0 {
		line = 0
	}
	lineText := getLine(text, line)
	start := len([]rune(lineText)) - len([]rune(strings.TrimLeft(lineText, " \t")))

	severity := protocol.DiagnosticSeverityError
	source := "luma"
	diag := protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(start)},
			End:   protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(len([]rune(lineText)))},
		},
		Severity: &severity,
		Source:   &source,
		Message:  err.Error(),
	}
	if code, ok := diagnostics.CodeOf(err); ok {
		diag.Code = &protocol.IntegerOrString{Value: string(code)}
	}
	return diag
}
