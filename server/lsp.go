// Package server exposes the compiler to editors over the Language Server
// Protocol.
package server

import (
	"errors"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/tamaranga/zephir/cache"
	"github.com/tamaranga/zephir/compiler"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "zephir-lsp"

var log = commonlog.GetLogger("zephir.lsp")

// LspServer compiles open IR documents and publishes their diagnostics.
type LspServer struct {
	opts  compiler.Options
	cache *cache.Cache // may be nil

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a new LSP server compiling with opts. c may be nil.
func NewLSP(opts compiler.Options, c *cache.Cache) *LspServer {
	s := &LspServer{
		opts:    opts,
		cache:   c,
		version: "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	commonlog.NewInfoMessage(0, "Zephir LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	if s.cache != nil {
		return s.cache.Close()
	}
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.publishDiagnostics(ctx, params.TextDocument.URI, params.TextDocument.Text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.publishDiagnostics(ctx, uri, whole.Text)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	// Clear diagnostics for the closed document
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// --- Compilation ---

// compile decodes and compiles one document, consulting the cache first.
// Only successful compilations are stored.
func (s *LspServer) compile(text string) ([]*compiler.Result, error) {
	src := []byte(text)

	var key string
	if s.cache != nil {
		var err error
		if key, err = cache.Key(src, s.opts); err != nil {
			log.Warningf("cache key: %s", err)
		} else if results, ok, err := s.cache.Get(key); err != nil {
			log.Warningf("cache lookup: %s", err)
		} else if ok {
			return results, nil
		}
	}

	unit, err := compiler.DecodeUnit(src)
	if err != nil {
		return nil, err
	}
	results, err := compiler.CompileUnit(unit, s.opts)
	if err != nil {
		return results, err
	}

	if s.cache != nil && key != "" {
		if err := s.cache.Put(key, results); err != nil {
			log.Warningf("cache store: %s", err)
		}
	}
	return results, nil
}

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	results, err := s.compile(text)
	diagnostics := toDiagnostics(results, err)

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// toDiagnostics converts compile warnings and the fatal error, if any, into
// LSP diagnostics. The result is never nil so that stale entries get cleared.
func toDiagnostics(results []*compiler.Result, err error) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}
	source := lspName

	for _, r := range results {
		for _, d := range r.Diagnostics {
			severity := protocol.DiagnosticSeverityWarning
			if d.Severity == compiler.SeverityError {
				severity = protocol.DiagnosticSeverityError
			}
			diagnostics = append(diagnostics, protocol.Diagnostic{
				Range:    pointRange(d.Position),
				Severity: &severity,
				Code:     &protocol.IntegerOrString{Value: d.Code},
				Source:   &source,
				Message:  d.Message,
			})
		}
	}

	if err != nil {
		var pos compiler.Position
		msg := err.Error()
		var ce *compiler.CompilerError
		if errors.As(err, &ce) {
			pos = ce.Pos()
			msg = ce.Msg
		}
		severity := protocol.DiagnosticSeverityError
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    pointRange(pos),
			Severity: &severity,
			Source:   &source,
			Message:  msg,
		})
	}

	return diagnostics
}

// pointRange converts a 1-based parser position into an empty LSP range.
func pointRange(pos compiler.Position) protocol.Range {
	p := protocol.Position{}
	if pos.Line > 0 {
		p.Line = protocol.UInteger(pos.Line - 1)
	}
	if pos.Char > 0 {
		p.Character = protocol.UInteger(pos.Char - 1)
	}
	return protocol.Range{Start: p, End: p}
}

func boolPtr(b bool) *bool {
	return &b
}
