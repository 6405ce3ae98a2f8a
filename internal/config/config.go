// Package config provides configuration types for mcp-bridge.
//
// The bridge is configured from a YAML file, environment variables
// (MCP_BRIDGE_ prefix) and a handful of CLI flags. Everything here is
// read once at startup; nothing is reloaded while the server runs.
package config

// Config is the top-level configuration for mcp-bridge.
type Config struct {
	// Server configures the HTTP listener, static files and logging.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Transport selects how clients reach the engine.
	// Valid values: "http", "stdio". Defaults to "http".
	Transport string `yaml:"transport" mapstructure:"transport" validate:"omitempty,oneof=http stdio"`

	// Engine configures the bundled MCP engine.
	Engine EngineConfig `yaml:"engine" mapstructure:"engine"`

	// Telemetry configures the OpenTelemetry stdout exporters.
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`

	// DevMode enables development features (debug logging, any origin).
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// HTTPAddr is the address to listen on (e.g., "127.0.0.1:3000", "0.0.0.0:3000").
	// Defaults to "127.0.0.1:3000" (localhost only) if empty.
	HTTPAddr string `yaml:"http_addr" mapstructure:"http_addr" validate:"omitempty,hostname_port"`

	// LogLevel sets the minimum log level.
	// Valid values: "debug", "info", "warn", "error".
	// Defaults to "info" if empty. DevMode=true overrides to "debug".
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// StaticDir is the directory served for GET requests outside /mcp, /health and /metrics.
	// Defaults to "./public". Set to "-" to disable static serving.
	StaticDir string `yaml:"static_dir" mapstructure:"static_dir"`

	// AllowedOrigins lists browser origins allowed to call /mcp from another host.
	// "*" allows any origin. Same-host requests are always allowed.
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins" validate:"omitempty,dive,required"`

	// MaxBodyBytes caps the size of a POST /mcp body.
	// Defaults to 4 MiB if 0.
	MaxBodyBytes int64 `yaml:"max_body_bytes" mapstructure:"max_body_bytes" validate:"omitempty,min=1"`

	// ShutdownTimeout bounds graceful shutdown (e.g., "10s").
	// Defaults to "10s" if empty.
	ShutdownTimeout string `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" validate:"omitempty,duration"`

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string `yaml:"tls_cert_file" mapstructure:"tls_cert_file" validate:"required_with=TLSKeyFile"`
	TLSKeyFile  string `yaml:"tls_key_file" mapstructure:"tls_key_file" validate:"required_with=TLSCertFile"`
}

// EngineConfig configures the bundled MCP engine.
type EngineConfig struct {
	// Name is reported to clients as serverInfo.name.
	// Defaults to "mcp-bridge".
	Name string `yaml:"name" mapstructure:"name"`

	// Version is reported to clients as serverInfo.version.
	// Defaults to the binary's build version when empty.
	Version string `yaml:"version" mapstructure:"version"`
}

// TelemetryConfig configures the OpenTelemetry exporters.
// Both exporters write to stderr; they are meant for local debugging.
type TelemetryConfig struct {
	// Traces enables a span per HTTP request.
	Traces bool `yaml:"traces" mapstructure:"traces"`

	// Metrics enables the OTel metric exporter (engine session counters).
	Metrics bool `yaml:"metrics" mapstructure:"metrics"`

	// MetricInterval is how often metrics are exported (e.g., "30s").
	// Defaults to "30s".
	MetricInterval string `yaml:"metric_interval" mapstructure:"metric_interval" validate:"omitempty,duration"`
}

// Default values applied by SetDefaults.
const (
	DefaultHTTPAddr        = "127.0.0.1:3000"
	DefaultStaticDir       = "./public"
	DefaultMaxBodyBytes    = 4 << 20
	DefaultShutdownTimeout = "10s"
	DefaultEngineName      = "mcp-bridge"
	DefaultMetricInterval  = "30s"
)

// StaticDisabled is the StaticDir value that turns static serving off.
const StaticDisabled = "-"

// SetDevDefaults applies permissive defaults for development mode.
// These defaults are applied BEFORE validation so required fields are satisfied.
func (c *Config) SetDevDefaults() {
	if !c.DevMode {
		return
	}

	// Browser tooling on another port (e.g. an inspector UI) needs CORS.
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	c.Server.LogLevel = "debug"
}

// SetDefaults applies sensible default values to the configuration.
func (c *Config) SetDefaults() {
	// Bind to localhost only unless explicitly told otherwise.
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = DefaultHTTPAddr
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.StaticDir == "" {
		c.Server.StaticDir = DefaultStaticDir
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.Transport == "" {
		c.Transport = "http"
	}

	if c.Engine.Name == "" {
		c.Engine.Name = DefaultEngineName
	}

	if c.Telemetry.MetricInterval == "" {
		c.Telemetry.MetricInterval = DefaultMetricInterval
	}
}

// StaticEnabled reports whether static file serving is configured.
func (c *Config) StaticEnabled() bool {
	return c.Server.StaticDir != "" && c.Server.StaticDir != StaticDisabled
}
