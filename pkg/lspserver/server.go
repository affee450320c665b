// Package lspserver implements the diagnostics round-trip named in
// SPEC_FULL §1.4: on didOpen/didChange, run the pipeline through the
// type checker and republish the accumulated diagnostics.Bag as
// protocol.PublishDiagnosticsParams. It does not implement completion,
// hover, or go-to-definition — those belong to a full IDE story the
// spec's core scope (§1's lexer/parser/writer are "external
// collaborators" too) doesn't reach for. Grounded on dingo's
// pkg/lsp/server.go (handler dispatch, connection storage) and
// pkg/lsp/handlers.go (didOpen/didChange shape, diagnostic conversion
// pattern from pkg/lsp/transpiler.go's ParseTranspileError), adapted from
// "proxy to gopls and translate positions" to "run our own checker and
// report directly" since there is no second language server to proxy to.
package lspserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/snuggle-lang/snugglec/pkg/config"
	"github.com/snuggle-lang/snugglec/pkg/diagnostics"
	"github.com/snuggle-lang/snugglec/pkg/driver"
	"github.com/snuggle-lang/snugglec/pkg/source"
)

// ServerConfig configures one Server instance.
type ServerConfig struct {
	Logger Logger
	Config *config.Config
}

// Server implements the LSP server side of the diagnostics round-trip.
// Unlike dingo's proxy (which forwards most methods to a live gopls and
// only intercepts dingo-specific ones), this server answers every method
// itself: there is no second compiler to delegate to.
type Server struct {
	cfg ServerConfig

	docsMu sync.Mutex
	docs   map[protocol.DocumentURI]string // open buffer contents, keyed by URI

	connMu sync.RWMutex
	conn   jsonrpc2.Conn
	ctx    context.Context
}

func NewServer(cfg ServerConfig) *Server {
	if cfg.Config == nil {
		cfg.Config = config.Default()
	}
	return &Server{cfg: cfg, docs: make(map[protocol.DocumentURI]string)}
}

// SetConn stores the connection and context used to push unsolicited
// textDocument/publishDiagnostics notifications (thread-safe, mirroring
// dingo's Server.SetConn/GetConn).
func (s *Server) SetConn(conn jsonrpc2.Conn, ctx context.Context) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	s.conn = conn
	s.ctx = ctx
}

func (s *Server) getConn() (jsonrpc2.Conn, context.Context) {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	return s.conn, s.ctx
}

// Handler returns a jsonrpc2.Handler dispatching every method this
// server understands.
func (s *Server) Handler() jsonrpc2.Handler {
	return jsonrpc2.ReplyHandler(s.handleRequest)
}

func (s *Server) handleRequest(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	s.cfg.Logger.Debugf("request: %s", req.Method())

	switch req.Method() {
	case "initialize":
		return s.handleInitialize(ctx, reply, req)
	case "initialized":
		return reply(ctx, nil, nil)
	case "shutdown":
		return reply(ctx, nil, nil)
	case "exit":
		return reply(ctx, nil, nil)
	case "textDocument/didOpen":
		return s.handleDidOpen(ctx, reply, req)
	case "textDocument/didChange":
		return s.handleDidChange(ctx, reply, req)
	case "textDocument/didClose":
		return s.handleDidClose(ctx, reply, req)
	default:
		s.cfg.Logger.Debugf("unhandled method: %s", req.Method())
		return reply(ctx, nil, nil)
	}
}

func (s *Server) handleInitialize(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.InitializeParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, fmt.Errorf("invalid initialize params: %w", err))
	}

	result := &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
			},
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    "snugglec-lsp",
			Version: "0.1.0-alpha",
		},
	}
	return reply(ctx, result, nil)
}

func (s *Server) handleDidOpen(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}

	s.setDoc(params.TextDocument.URI, params.TextDocument.Text)
	s.checkAndPublish(ctx, params.TextDocument.URI)
	return reply(ctx, nil, nil)
}

func (s *Server) handleDidChange(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}

	// TextDocumentSyncKindFull (advertised in handleInitialize) means the
	// client always sends the whole document as the single content
	// change, so the last entry is authoritative.
	if n := len(params.ContentChanges); n > 0 {
		s.setDoc(params.TextDocument.URI, params.ContentChanges[n-1].Text)
	}
	s.checkAndPublish(ctx, params.TextDocument.URI)
	return reply(ctx, nil, nil)
}

func (s *Server) handleDidClose(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}
	s.docsMu.Lock()
	delete(s.docs, params.TextDocument.URI)
	s.docsMu.Unlock()
	return reply(ctx, nil, nil)
}

func (s *Server) setDoc(uri protocol.DocumentURI, text string) {
	s.docsMu.Lock()
	s.docs[uri] = text
	s.docsMu.Unlock()
}

// checkAndPublish runs driver.CheckOnly over the buffer at uri and pushes
// the resulting diagnostics to the client, replacing whatever was
// previously published for that file (an empty Diagnostics slice clears
// it, matching LSP's publish semantics).
func (s *Server) checkAndPublish(ctx context.Context, uri protocol.DocumentURI) {
	s.docsMu.Lock()
	text := s.docs[uri]
	s.docsMu.Unlock()

	filename := uri.Filename()
	result := driver.CheckOnly(filename, []byte(text), driver.MapLoader{filename: []byte(text)}, s.cfg.Config)

	diags := make([]protocol.Diagnostic, 0, len(result.Bag.Errors()))
	for _, e := range result.Bag.Errors() {
		diags = append(diags, toProtocolDiagnostic(e, result.FileSet))
	}

	conn, storedCtx := s.getConn()
	if conn == nil {
		s.cfg.Logger.Warnf("no client connection yet, dropping %d diagnostic(s) for %s", len(diags), filename)
		return
	}
	publishCtx := storedCtx
	if publishCtx == nil {
		publishCtx = ctx
	}
	params := protocol.PublishDiagnosticsParams{URI: uri, Diagnostics: diags}
	if err := conn.Notify(publishCtx, "textDocument/publishDiagnostics", params); err != nil {
		s.cfg.Logger.Warnf("failed to publish diagnostics: %v", err)
	}
}

// toProtocolDiagnostic converts one compiler diagnostics.Error (spec §7's
// {kind, message, location} shape) into an LSP protocol.Diagnostic,
// following the same 0-based line/column convention
// pkg/lsp/transpiler.go's ParseTranspileError uses.
func toProtocolDiagnostic(e *diagnostics.Error, fset *source.FileSet) protocol.Diagnostic {
	pos := fset.Position(e.Loc)
	line := uint32(0)
	col := uint32(0)
	if pos.Line > 0 {
		line = uint32(pos.Line - 1)
		col = uint32(pos.Col - 1)
	}
	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: line, Character: col},
			End:   protocol.Position{Line: line, Character: col + 1},
		},
		Severity: severityOf(e),
		Source:   "snugglec",
		Message:  e.Message,
	}
}

// severityOf maps a warning-marked diagnostic (config.Checker's
// fallible_pattern_policy = "warn", or a bridged generic class accepted
// under acknowledge_generics_default) to LSP's Warning severity,
// everything else to Error.
func severityOf(e *diagnostics.Error) protocol.DiagnosticSeverity {
	if e.Warning {
		return protocol.DiagnosticSeverityWarning
	}
	return protocol.DiagnosticSeverityError
}
