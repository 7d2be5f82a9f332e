package main

import (
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/Z2ZATL/Luma-CL/internal/config"
)

const lspName = "luma-lsp"

// LanguageServer serves Luma documents over stdio.
type LanguageServer struct {
	mu        sync.RWMutex
	documents map[protocol.DocumentUri]*DocumentState

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

func NewLanguageServer() *LanguageServer {
	s := &LanguageServer{
		documents: make(map[protocol.DocumentUri]*DocumentState),
		version:   config.Version,
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentHover:      s.textDocumentHover,
		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentDefinition: s.textDocumentDefinition,
		TextDocumentFormatting: s.textDocumentFormatting,
	}
	s.server = glspserver.NewServer(&s.handler, lspName, false)
	return s
}

// Run blocks until the client disconnects.
func (s *LanguageServer) Run() error {
	return s.server.RunStdio()
}

func (s *LanguageServer) document(uri protocol.DocumentUri) (*DocumentState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[uri]
	return doc, ok
}

func (s *LanguageServer) store(uri protocol.DocumentUri, doc *DocumentState) {
	s.mu.Lock()
	s.documents[uri] = doc
	s.mu.Unlock()
}

func (s *LanguageServer) forget(uri protocol.DocumentUri) {
	s.mu.Lock()
	delete(s.documents, uri)
	s.mu.Unlock()
}

func (s *LanguageServer) notify(ctx *glsp.Context, method string, params any) {
	if ctx != nil && ctx.Notify != nil {
		go ctx.Notify(method, params)
	}
}
