// Package config provides configuration loading for mcp-bridge.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides (MCP_BRIDGE_SERVER_HTTP_ADDR).
const EnvPrefix = "MCP_BRIDGE"

// configBaseName is the config file name without extension.
const configBaseName = "mcp-bridge"

// InitViper initializes Viper with the configuration file and environment variables.
// If configFile is empty, it searches for mcp-bridge.yaml/.yml in standard locations.
// The search requires an explicit YAML extension to avoid matching the binary itself.
//
// A .env file in the working directory, if present, is loaded into the process
// environment first so it can feed MCP_BRIDGE_* overrides.
func InitViper(configFile string) {
	// Missing .env is the common case and not an error.
	_ = godotenv.Load()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		// Set name/type without search paths so ReadInConfig returns
		// ConfigFileNotFoundError (handled gracefully by callers).
		viper.SetConfigName(configBaseName)
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindNestedEnvKeys()
}

// findConfigFile searches standard locations for an mcp-bridge config file.
func findConfigFile() string {
	home, _ := os.UserHomeDir()
	return findConfigFileInPaths([]string{
		".",
		filepath.Join(home, ".mcp-bridge"),
		"/etc/mcp-bridge",
	})
}

// findConfigFileInPaths searches the given directories for mcp-bridge.yaml or .yml.
// Returns the full path of the first match, or empty string if none found.
func findConfigFileInPaths(paths []string) string {
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, configBaseName+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// bindNestedEnvKeys binds config keys for environment variable support.
// AutomaticEnv alone does not reach keys absent from the config file.
func bindNestedEnvKeys() {
	_ = viper.BindEnv("server.http_addr")
	_ = viper.BindEnv("server.log_level")
	_ = viper.BindEnv("server.static_dir")
	_ = viper.BindEnv("server.max_body_bytes")
	_ = viper.BindEnv("server.shutdown_timeout")
	_ = viper.BindEnv("server.tls_cert_file")
	_ = viper.BindEnv("server.tls_key_file")
	// Note: server.allowed_origins is an array; the env value is comma-separated.
	_ = viper.BindEnv("server.allowed_origins")

	_ = viper.BindEnv("transport")

	_ = viper.BindEnv("engine.name")
	_ = viper.BindEnv("engine.version")

	_ = viper.BindEnv("telemetry.traces")
	_ = viper.BindEnv("telemetry.metrics")
	_ = viper.BindEnv("telemetry.metric_interval")

	_ = viper.BindEnv("dev_mode")
}

// LoadConfig reads the configuration file, applies environment overrides,
// sets defaults, and returns the validated Config.
func LoadConfig() (*Config, error) {
	cfg, err := LoadConfigRaw()
	if err != nil {
		return nil, err
	}

	cfg.SetDevDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigRaw reads the configuration file and applies defaults,
// but does NOT apply dev defaults or validate.
// Use this when CLI flags may override DevMode before validation.
func LoadConfigRaw() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file: continue with env vars only.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.SetDefaults()
	return &cfg, nil
}

// ConfigFileUsed returns the path to the configuration file that was loaded.
// Returns an empty string if no config file was found (env vars only mode).
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
