// Package stdio provides the stdio transport adapter for the bridge.
package stdio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sentinel-Gate/mcp-bridge/internal/port/inbound"
	"github.com/Sentinel-Gate/mcp-bridge/internal/port/outbound"
)

// StdioTransport is the inbound adapter that connects the engine to stdin/stdout.
// Unlike the HTTP adapter it serves one long-lived engine session.
type StdioTransport struct {
	engine outbound.Engine
	in     io.ReadCloser
	out    io.WriteCloser
	logger *slog.Logger
}

// Option configures a StdioTransport.
type Option func(*StdioTransport)

// WithIO replaces stdin/stdout, mainly for tests.
func WithIO(in io.ReadCloser, out io.WriteCloser) Option {
	return func(t *StdioTransport) {
		t.in = in
		t.out = out
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *StdioTransport) {
		t.logger = logger
	}
}

// NewStdioTransport creates a stdio transport adapter for the given engine.
func NewStdioTransport(engine outbound.Engine, opts ...Option) *StdioTransport {
	t := &StdioTransport{
		engine: engine,
		in:     os.Stdin,
		out:    os.Stdout,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start connects the engine to the configured streams and blocks until the
// input reaches EOF or the context is cancelled.
func (t *StdioTransport) Start(ctx context.Context) error {
	session, err := t.engine.Connect(ctx, &mcp.IOTransport{Reader: t.in, Writer: t.out}, nil)
	if err != nil {
		return fmt.Errorf("connect engine: %w", err)
	}
	t.logger.Debug("stdio session started", "session_id", session.ID())

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = session.Close()
		case <-done:
		}
	}()

	err = session.Wait()
	t.logger.Debug("stdio session ended", "error", err)
	if ctx.Err() != nil || err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("stdio session: %w", err)
}

// Close gracefully shuts down the transport.
// For stdio, the session is torn down by Start when its context ends.
func (t *StdioTransport) Close() error {
	return nil
}

// Compile-time check that StdioTransport implements Transport interface.
var _ inbound.Transport = (*StdioTransport)(nil)
