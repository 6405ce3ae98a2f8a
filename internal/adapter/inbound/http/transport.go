package http

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sentinel-Gate/mcp-bridge/internal/port/inbound"
	"github.com/Sentinel-Gate/mcp-bridge/internal/port/outbound"
	"github.com/Sentinel-Gate/mcp-bridge/internal/telemetry"
)

// HTTPTransport is the inbound adapter that exposes an MCP engine over
// Streamable HTTP. Every POST /mcp gets its own stateless engine session.
type HTTPTransport struct {
	engine          outbound.Engine
	addr            string
	staticDir       string
	allowedOrigins  []string
	maxBodyBytes    int64
	certFile        string
	keyFile         string
	shutdownTimeout time.Duration
	logger          *slog.Logger
	healthChecker   *HealthChecker
	tracerProvider  trace.TracerProvider
	instruments     *telemetry.Instruments
	metrics         *Metrics // Prometheus metrics

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// Option is a functional option for configuring HTTPTransport.
type Option func(*HTTPTransport)

// WithAddr sets the listen address for the HTTP server.
// Default is "127.0.0.1:3000" (localhost only).
func WithAddr(addr string) Option {
	return func(t *HTTPTransport) {
		t.addr = addr
	}
}

// WithTLS enables TLS with the provided certificate and key files.
// If not set, the server runs without TLS (plain HTTP).
func WithTLS(certFile, keyFile string) Option {
	return func(t *HTTPTransport) {
		t.certFile = certFile
		t.keyFile = keyFile
	}
}

// WithStaticDir sets the directory served for paths other than /mcp, /health and /metrics.
// An empty dir disables static serving.
func WithStaticDir(dir string) Option {
	return func(t *HTTPTransport) {
		t.staticDir = dir
	}
}

// WithAllowedOrigins sets the cross-origin allowlist for /mcp.
// Same-host origins are always accepted; "*" accepts any origin.
// Example: []string{"https://example.com", "http://localhost:5173"}
func WithAllowedOrigins(origins []string) Option {
	return func(t *HTTPTransport) {
		t.allowedOrigins = origins
	}
}

// WithMaxBodyBytes caps the size of POST /mcp bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(t *HTTPTransport) {
		t.maxBodyBytes = n
	}
}

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(t *HTTPTransport) {
		t.shutdownTimeout = d
	}
}

// WithLogger sets the logger for the HTTP transport.
func WithLogger(logger *slog.Logger) Option {
	return func(t *HTTPTransport) {
		t.logger = logger
	}
}

// WithHealthChecker sets the health checker for the /health endpoint.
func WithHealthChecker(hc *HealthChecker) Option {
	return func(t *HTTPTransport) {
		t.healthChecker = hc
	}
}

// WithTracerProvider sets the OTel tracer provider. Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(t *HTTPTransport) {
		t.tracerProvider = tp
	}
}

// WithInstruments sets the OTel instruments recorded for engine sessions.
func WithInstruments(inst *telemetry.Instruments) Option {
	return func(t *HTTPTransport) {
		t.instruments = inst
	}
}

// NewHTTPTransport creates an HTTP transport adapter for the given engine.
func NewHTTPTransport(engine outbound.Engine, opts ...Option) *HTTPTransport {
	t := &HTTPTransport{
		engine:          engine,
		addr:            "127.0.0.1:3000",
		allowedOrigins:  []string{},
		maxBodyBytes:    defaultMaxBodyBytes,
		shutdownTimeout: 10 * time.Second,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.tracerProvider == nil {
		t.tracerProvider = otel.GetTracerProvider()
	}
	if t.healthChecker == nil {
		t.healthChecker = NewHealthChecker(engine, t.staticDir, "", time.Now())
	}

	return t
}

// Handler builds the routed handler with the full middleware chain.
// Each call creates a fresh Prometheus registry.
func (t *HTTPTransport) Handler() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	t.metrics = NewMetrics(reg)

	endpoint := &mcpEndpoint{
		engine:       t.engine,
		maxBodyBytes: t.maxBodyBytes,
		metrics:      t.metrics,
		instruments:  t.instruments,
	}

	mux := http.NewServeMux()
	mux.Handle("/health", t.healthChecker.Handler())
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		Registry: reg,
	}))
	mux.Handle("/mcp", OriginMiddleware(t.allowedOrigins)(endpoint))
	mux.Handle("/", NewStaticHandler(t.staticDir, t.logger))

	// Middleware order (outermost first):
	// 1. MetricsMiddleware - Record duration and status (MUST be outermost to capture full duration)
	// 2. RequestID - Extract/generate request ID and enrich logger
	// 3. RealIP - Extract client IP from X-Forwarded-For
	// 4. Tracing - Server span per request
	// 5. AccessLog - One line per request
	// 6. Recovery - Panics become the catch-all 500
	var handler http.Handler = mux
	handler = RecoveryMiddleware(handler)
	handler = AccessLogMiddleware(handler)
	handler = TracingMiddleware(t.tracerProvider)(handler)
	handler = RealIPMiddleware(handler)
	handler = RequestIDMiddleware(t.logger)(handler)
	handler = MetricsMiddleware(t.metrics)(handler)
	return handler
}

// Start begins accepting HTTP connections.
// It blocks until the context is cancelled or an error occurs.
func (t *HTTPTransport) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", t.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", t.addr, err)
	}

	server := &http.Server{
		Handler:           t.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	tlsEnabled := t.certFile != "" && t.keyFile != ""
	if tlsEnabled {
		server.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	t.mu.Lock()
	t.server = server
	t.listener = ln
	t.mu.Unlock()

	// Channel for server errors
	errCh := make(chan error, 1)

	go func() {
		var err error
		if tlsEnabled {
			t.logger.Info("starting HTTPS server", "addr", ln.Addr().String())
			err = server.ServeTLS(ln, t.certFile, t.keyFile)
		} else {
			t.logger.Info("starting HTTP server", "addr", ln.Addr().String())
			err = server.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or server error
	select {
	case <-ctx.Done():
		t.logger.Info("context cancelled, shutting down HTTP server")
		return t.shutdown()
	case err := <-errCh:
		return err
	}
}

// Addr returns the address the server listens on, or "" before Start.
// Useful with port 0.
func (t *HTTPTransport) Addr() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener == nil {
		return ""
	}
	return t.listener.Addr().String()
}

// shutdown performs graceful shutdown of the HTTP server.
func (t *HTTPTransport) shutdown() error {
	t.mu.Lock()
	server := t.server
	t.mu.Unlock()
	if server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), t.shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		t.logger.Error("error during server shutdown", "error", err)
		return err
	}

	t.logger.Info("HTTP server shutdown complete")
	return nil
}

// Close gracefully shuts down the transport.
func (t *HTTPTransport) Close() error {
	return t.shutdown()
}

// Compile-time check that HTTPTransport implements Transport interface.
var _ inbound.Transport = (*HTTPTransport)(nil)
