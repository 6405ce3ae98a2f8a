package cmd

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Sentinel-Gate/mcp-bridge/internal/config"
)

func TestCommands_Registered(t *testing.T) {
	want := map[string]bool{"start": false, "stop": false, "config": false, "version": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("%s command not registered with rootCmd", name)
		}
	}
}

func TestStartCmd_FlagDefaults(t *testing.T) {
	dev, err := startCmd.Flags().GetBool("dev")
	if err != nil {
		t.Fatalf("failed to get dev flag: %v", err)
	}
	if dev {
		t.Error("dev flag should default to false")
	}

	transport, err := startCmd.Flags().GetString("transport")
	if err != nil {
		t.Fatalf("failed to get transport flag: %v", err)
	}
	if transport != "" {
		t.Errorf("transport default = %q, want empty", transport)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "DEBUG", want: slog.LevelDebug},
		{in: "info", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "", want: slog.LevelInfo},
		{in: "verbose", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLogger_DevModeForcesDebug(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{DevMode: true, Server: config.ServerConfig{LogLevel: "error"}}

	newLogger(cfg, &buf).Debug("visible")

	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("expected debug line in dev mode, got %q", buf.String())
	}
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{Server: config.ServerConfig{LogLevel: "warn"}}

	logger := newLogger(cfg, &buf)
	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("info line should be filtered at warn level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warn line missing")
	}
}

func TestMustDuration(t *testing.T) {
	if got := mustDuration("10s"); got != 10*time.Second {
		t.Errorf("mustDuration(10s) = %v", got)
	}
	if got := mustDuration(""); got != 0 {
		t.Errorf("mustDuration(\"\") = %v, want 0", got)
	}
	if got := mustDuration("soon"); got != 0 {
		t.Errorf("mustDuration(soon) = %v, want 0", got)
	}
}

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		addr string
		tls  bool
		path string
		want string
	}{
		{addr: "127.0.0.1:3000", path: "/mcp", want: "http://127.0.0.1:3000/mcp"},
		{addr: ":3000", path: "/mcp", want: "http://localhost:3000/mcp"},
		{addr: "example.com:443", tls: true, path: "/health", want: "https://example.com:443/health"},
	}

	for _, tt := range tests {
		if got := endpointURL(tt.addr, tt.tls, tt.path); got != tt.want {
			t.Errorf("endpointURL(%q, %v, %q) = %q, want %q", tt.addr, tt.tls, tt.path, got, tt.want)
		}
	}
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	printBanner(&buf, "1.2.3", "127.0.0.1:3000", false, "./public", true)

	out := buf.String()
	for _, want := range []string{"mcp-bridge 1.2.3", "http://127.0.0.1:3000/mcp", "./public", "development"} {
		if !strings.Contains(out, want) {
			t.Errorf("banner missing %q:\n%s", want, out)
		}
	}
}

func TestPIDFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "server.pid")

	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile() error: %v", err)
	}
	if got := readPIDFile(path); got != os.Getpid() {
		t.Errorf("readPIDFile() = %d, want %d", got, os.Getpid())
	}
}

func TestReadPIDFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := map[string]string{
		"garbage":  "not-a-pid",
		"negative": "-5",
		"empty":    "",
	}
	for name, content := range tests {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		if got := readPIDFile(path); got != 0 {
			t.Errorf("%s: readPIDFile() = %d, want 0", name, got)
		}
	}

	if got := readPIDFile(filepath.Join(dir, "missing")); got != 0 {
		t.Errorf("missing: readPIDFile() = %d, want 0", got)
	}
}

func TestProcessIsAlive_Self(t *testing.T) {
	if !processIsAlive(os.Getpid()) {
		t.Error("current process should be alive")
	}
}

func TestRunConfig_PrintsEffectiveConfig(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	path := filepath.Join(t.TempDir(), "mcp-bridge.yaml")
	content := "server:\n  http_addr: 127.0.0.1:4000\n  static_dir: \"-\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	config.InitViper(path)

	devMode = false
	transportFlag = ""

	var buf bytes.Buffer
	configCmd.SetOut(&buf)
	defer configCmd.SetOut(nil)

	if err := runConfig(configCmd, nil); err != nil {
		t.Fatalf("runConfig() error: %v", err)
	}

	var got config.Config
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, buf.String())
	}
	if got.Server.HTTPAddr != "127.0.0.1:4000" {
		t.Errorf("http_addr = %q, want 127.0.0.1:4000", got.Server.HTTPAddr)
	}
	if got.Server.StaticDir != config.StaticDisabled {
		t.Errorf("static_dir = %q, want %q", got.Server.StaticDir, config.StaticDisabled)
	}
	if got.Transport != "http" {
		t.Errorf("transport = %q, want http default", got.Transport)
	}
	if got.Server.MaxBodyBytes != config.DefaultMaxBodyBytes {
		t.Errorf("max_body_bytes = %d, want default", got.Server.MaxBodyBytes)
	}
}

func TestRunConfig_TransportOverride(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	path := filepath.Join(t.TempDir(), "mcp-bridge.yaml")
	if err := os.WriteFile(path, []byte("dev_mode: false\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	config.InitViper(path)

	devMode = false
	transportFlag = "carrier-pigeon"
	defer func() { transportFlag = "" }()

	err := runConfig(configCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("runConfig() error = %v, want validation failure", err)
	}
}

func TestVersionCmd(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	defer versionCmd.SetOut(nil)

	versionCmd.Run(versionCmd, nil)

	if !strings.Contains(buf.String(), "mcp-bridge "+Version) {
		t.Errorf("version output = %q", buf.String())
	}
}
