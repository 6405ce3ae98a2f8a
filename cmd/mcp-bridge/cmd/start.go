package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/Sentinel-Gate/mcp-bridge/internal/adapter/inbound/http"
	"github.com/Sentinel-Gate/mcp-bridge/internal/adapter/inbound/stdio"
	"github.com/Sentinel-Gate/mcp-bridge/internal/config"
	"github.com/Sentinel-Gate/mcp-bridge/internal/port/inbound"
	"github.com/Sentinel-Gate/mcp-bridge/internal/service"
	"github.com/Sentinel-Gate/mcp-bridge/internal/telemetry"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the bridge",
	Long: `Start the mcp-bridge server.

The bridge can operate in two modes:

1. HTTP mode (default): serve the engine on POST /mcp, plus /health,
   /metrics and static files from server.static_dir.

2. Stdio mode: serve the engine over stdin/stdout for local MCP hosts.

Examples:
  # Start with config file settings
  mcp-bridge start

  # Development mode: debug logging, any browser origin allowed
  mcp-bridge start --dev

  # Serve over stdin/stdout
  mcp-bridge start --transport stdio

  # Start with a specific config file
  mcp-bridge --config /path/to/mcp-bridge.yaml start`,
	RunE: runStart,
}

var (
	devMode       bool
	transportFlag string
)

func init() {
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable development mode (verbose logging, any origin allowed)")
	startCmd.Flags().StringVar(&transportFlag, "transport", "", "Transport to serve: http or stdio (overrides config)")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadEffectiveConfig()
	if err != nil {
		return err
	}

	// stop() restores default signal handling so a second Ctrl+C does a hard kill.
	ctx, stop := signal.NotifyContext(context.Background(), gracefulSignals()...)
	go func() {
		<-ctx.Done()
		stop()
	}()

	// stdout is reserved for the MCP stream in stdio mode.
	logger := newLogger(cfg, os.Stderr)
	logger.Debug("log level configured", "level", cfg.Server.LogLevel, "dev_mode", cfg.DevMode)
	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Info("loaded config", "file", configFile)
	}

	pidPath := pidFilePath()
	if err := writePIDFile(pidPath); err != nil {
		logger.Warn("failed to write PID file", "path", pidPath, "error", err)
	} else {
		defer func() { _ = os.Remove(pidPath) }()
	}

	if err := run(ctx, cfg, logger); err != nil {
		return err
	}

	logger.Info("mcp-bridge stopped")
	return nil
}

// loadEffectiveConfig loads the config, applies CLI overrides and validates it.
func loadEffectiveConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if devMode {
		cfg.DevMode = true
	}
	if transportFlag != "" {
		cfg.Transport = transportFlag
	}

	cfg.SetDevDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// run wires telemetry, the engine and the selected transport, then blocks
// until ctx is cancelled or the transport fails.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	version := cfg.Engine.Version
	if version == "" {
		version = Version
	}

	tel, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:    cfg.Engine.Name,
		ServiceVersion: version,
		Traces:         cfg.Telemetry.Traces,
		Metrics:        cfg.Telemetry.Metrics,
		MetricInterval: mustDuration(cfg.Telemetry.MetricInterval),
	})
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	staticDir := ""
	if cfg.StaticEnabled() {
		staticDir = cfg.Server.StaticDir
	}

	engine := service.NewEngine(service.EngineOptions{
		Name:      cfg.Engine.Name,
		Version:   version,
		StaticDir: staticDir,
		Logger:    logger,
	})

	var transport inbound.Transport
	switch cfg.Transport {
	case "stdio":
		logger.Info("serving engine over stdio", "engine", cfg.Engine.Name, "version", version)
		transport = stdio.NewStdioTransport(engine, stdio.WithLogger(logger))
	default:
		instruments, err := telemetry.NewInstruments(otel.GetMeterProvider())
		if err != nil {
			return fmt.Errorf("create instruments: %w", err)
		}

		opts := []http.Option{
			http.WithAddr(cfg.Server.HTTPAddr),
			http.WithLogger(logger),
			http.WithStaticDir(staticDir),
			http.WithAllowedOrigins(cfg.Server.AllowedOrigins),
			http.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
			http.WithShutdownTimeout(mustDuration(cfg.Server.ShutdownTimeout)),
			http.WithHealthChecker(http.NewHealthChecker(engine, staticDir, version, time.Now())),
			http.WithTracerProvider(otel.GetTracerProvider()),
			http.WithInstruments(instruments),
		}
		tlsEnabled := cfg.Server.TLSCertFile != "" && cfg.Server.TLSKeyFile != ""
		if tlsEnabled {
			opts = append(opts, http.WithTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile))
		}
		transport = http.NewHTTPTransport(engine, opts...)

		printBanner(os.Stderr, version, cfg.Server.HTTPAddr, tlsEnabled, staticDir, cfg.DevMode)
	}

	return transport.Start(ctx)
}

// newLogger builds the text logger used across the process.
// DevMode always forces debug.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level := parseLogLevel(cfg.Server.LogLevel)
	if cfg.DevMode {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// parseLogLevel converts a string log level to slog.Level.
// Returns slog.LevelInfo for unrecognized values.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// mustDuration parses a duration already checked by config validation.
// Returns 0 for empty or malformed input.
func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// endpointURL renders a browsable URL for a listen address.
func endpointURL(httpAddr string, tls bool, path string) string {
	scheme := "http"
	if tls {
		scheme = "https"
	}
	host := httpAddr
	if strings.HasPrefix(httpAddr, ":") {
		host = "localhost" + httpAddr
	}
	return fmt.Sprintf("%s://%s%s", scheme, host, path)
}

// printBanner prints a formatted startup banner with version, addresses and mode.
// Only called in HTTP mode to avoid interfering with the stdio MCP stream.
func printBanner(w io.Writer, version, httpAddr string, tls bool, staticDir string, devMode bool) {
	const (
		reset  = "\033[0m"
		bold   = "\033[1m"
		cyan   = "\033[36m"
		green  = "\033[32m"
		yellow = "\033[33m"
		dim    = "\033[2m"
	)

	modeStr := green + "production" + reset
	if devMode {
		modeStr = yellow + "development" + reset + dim + " (any origin)" + reset
	}
	static := staticDir
	if static == "" {
		static = dim + "disabled" + reset
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  %s%s mcp-bridge %s%s\n", bold, cyan, version, reset)
	fmt.Fprintf(w, "  %s─────────────────────────────────────%s\n", dim, reset)
	fmt.Fprintf(w, "  %-14s %s\n", "MCP:", endpointURL(httpAddr, tls, "/mcp"))
	fmt.Fprintf(w, "  %-14s %s\n", "Health:", endpointURL(httpAddr, tls, "/health"))
	fmt.Fprintf(w, "  %-14s %s\n", "Static:", static)
	fmt.Fprintf(w, "  %-14s %s\n", "Mode:", modeStr)
	fmt.Fprintf(w, "  %s─────────────────────────────────────%s\n", dim, reset)
	fmt.Fprintf(w, "\n")
}
