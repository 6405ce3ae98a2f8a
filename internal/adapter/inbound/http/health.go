package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/Sentinel-Gate/mcp-bridge/internal/port/outbound"
)

// HealthResponse is the JSON response from the /health endpoint.
type HealthResponse struct {
	Status  string            `json:"status"`            // "healthy" or "unhealthy"
	Checks  map[string]string `json:"checks"`            // Component check results
	Version string            `json:"version,omitempty"` // Optional version info
	Uptime  string            `json:"uptime"`
}

// HealthChecker verifies component health.
type HealthChecker struct {
	engine    outbound.Engine
	staticDir string
	version   string
	started   time.Time
	now       func() time.Time
}

// NewHealthChecker creates a HealthChecker.
// Pass nil for the engine or "" for staticDir when they aren't available.
func NewHealthChecker(engine outbound.Engine, staticDir, version string, started time.Time) *HealthChecker {
	return &HealthChecker{
		engine:    engine,
		staticDir: staticDir,
		version:   version,
		started:   started,
		now:       time.Now,
	}
}

// Check performs health checks on all components.
func (h *HealthChecker) Check() HealthResponse {
	checks := make(map[string]string)
	healthy := true

	if h.engine != nil {
		checks["engine"] = "ok"
	} else {
		checks["engine"] = "not configured"
		healthy = false
	}

	// A missing static directory only degrades static serving.
	switch {
	case h.staticDir == "":
		checks["static_dir"] = "disabled"
	case isDir(h.staticDir):
		checks["static_dir"] = "ok"
	default:
		checks["static_dir"] = "missing"
	}

	checks["goroutines"] = fmt.Sprintf("%d", runtime.NumGoroutine())

	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	return HealthResponse{
		Status:  status,
		Checks:  checks,
		Version: h.version,
		Uptime:  h.now().Sub(h.started).Truncate(time.Second).String(),
	}
}

// Handler returns an HTTP handler for the health endpoint.
func (h *HealthChecker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		health := h.Check()

		w.Header().Set("Content-Type", "application/json")
		if health.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable) // 503
		} else {
			w.WriteHeader(http.StatusOK) // 200
		}

		_ = json.NewEncoder(w).Encode(health)
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
