package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"
)

func TestHealthChecker_Check(t *testing.T) {
	t.Parallel()

	started := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		engine      bool
		staticDir   string
		wantStatus  string
		wantEngine  string
		wantStatic  string
		wantVersion string
	}{
		{name: "all ok", engine: true, staticDir: t.TempDir(), wantStatus: "healthy", wantEngine: "ok", wantStatic: "ok", wantVersion: "1.0.0"},
		{name: "static disabled", engine: true, staticDir: "", wantStatus: "healthy", wantEngine: "ok", wantStatic: "disabled", wantVersion: "1.0.0"},
		{name: "static missing stays healthy", engine: true, staticDir: filepath.Join(t.TempDir(), "gone"), wantStatus: "healthy", wantEngine: "ok", wantStatic: "missing", wantVersion: "1.0.0"},
		{name: "no engine", engine: false, staticDir: "", wantStatus: "unhealthy", wantEngine: "not configured", wantStatic: "disabled", wantVersion: "1.0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hc *HealthChecker
			if tt.engine {
				hc = NewHealthChecker(newTestEngine(), tt.staticDir, "1.0.0", started)
			} else {
				hc = NewHealthChecker(nil, tt.staticDir, "1.0.0", started)
			}
			hc.now = func() time.Time { return started.Add(90*time.Second + 400*time.Millisecond) }

			got := hc.Check()
			if got.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", got.Status, tt.wantStatus)
			}
			if got.Checks["engine"] != tt.wantEngine {
				t.Errorf("engine check = %q, want %q", got.Checks["engine"], tt.wantEngine)
			}
			if got.Checks["static_dir"] != tt.wantStatic {
				t.Errorf("static_dir check = %q, want %q", got.Checks["static_dir"], tt.wantStatic)
			}
			if got.Checks["goroutines"] == "" {
				t.Error("expected goroutines check")
			}
			if got.Version != tt.wantVersion {
				t.Errorf("Version = %q, want %q", got.Version, tt.wantVersion)
			}
			if got.Uptime != "1m30s" {
				t.Errorf("Uptime = %q, want 1m30s", got.Uptime)
			}
		})
	}
}

func TestHealthChecker_Handler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		hc         *HealthChecker
		wantCode   int
		wantStatus string
	}{
		{name: "healthy", hc: NewHealthChecker(newTestEngine(), "", "dev", time.Now()), wantCode: http.StatusOK, wantStatus: "healthy"},
		{name: "unhealthy", hc: NewHealthChecker(nil, "", "dev", time.Now()), wantCode: http.StatusServiceUnavailable, wantStatus: "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.hc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
			var resp HealthResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("status field = %q, want %q", resp.Status, tt.wantStatus)
			}
		})
	}
}

func TestHealthEndpoint_ThroughServer(t *testing.T) {
	t.Parallel()

	hc := NewHealthChecker(newTestEngine(), "", "2.3.4", time.Now())
	_, srv := newTestServer(t, newTestEngine(), WithHealthChecker(hc))

	resp, err := srv.Client().Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	var body HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Version != "2.3.4" {
		t.Errorf("version = %q, want 2.3.4", body.Version)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID on health response")
	}
}
