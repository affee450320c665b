// Command snuggle-lsp runs the diagnostics-only language server over
// stdio, grounded on dingo's cmd/dingo-lsp/main.go: the same
// stdinoutCloser-wrapped jsonrpc2.NewStream/NewConn setup, SetConn
// before conn.Go to avoid the nil-connection race dingo's own comment
// calls out, then block on conn.Done(). There is no second language
// server to find or proxy to, so the gopls-discovery step dingo does
// has no counterpart here.
package main

import (
	"context"
	"io"
	"os"

	"go.lsp.dev/jsonrpc2"

	"github.com/snuggle-lang/snugglec/pkg/config"
	"github.com/snuggle-lang/snugglec/pkg/lspserver"
)

func main() {
	logLevel := os.Getenv("SNUGGLE_LSP_LOG")
	if logLevel == "" {
		logLevel = "info"
	}
	logger := lspserver.NewLogger(logLevel, os.Stderr)
	logger.Infof("starting snuggle-lsp (log level: %s)", logLevel)

	cfg, err := config.Load(nil)
	if err != nil {
		logger.Errorf("failed to load config: %v", err)
		cfg = config.Default()
	}

	server := lspserver.NewServer(lspserver.ServerConfig{Logger: logger, Config: cfg})

	rwc := &stdinoutCloser{stdin: os.Stdin, stdout: os.Stdout}
	stream := jsonrpc2.NewStream(rwc)
	conn := jsonrpc2.NewConn(stream)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server.SetConn(conn, ctx)

	handler := server.Handler()
	conn.Go(ctx, handler)

	<-conn.Done()
	logger.Infof("connection closed, exiting")
}

// stdinoutCloser adapts stdin/stdout to io.ReadWriteCloser, the shape
// jsonrpc2.NewStream wants; closing it does not actually close the
// process's standard streams.
type stdinoutCloser struct {
	stdin  *os.File
	stdout *os.File
}

func (s *stdinoutCloser) Read(p []byte) (int, error)  { return s.stdin.Read(p) }
func (s *stdinoutCloser) Write(p []byte) (int, error) { return s.stdout.Write(p) }
func (s *stdinoutCloser) Close() error                { return nil }

var _ io.ReadWriteCloser = (*stdinoutCloser)(nil)
