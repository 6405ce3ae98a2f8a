package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// newStaticRoot creates a site directory plus a secret file next to it.
func newStaticRoot(t *testing.T) string {
	t.Helper()

	base := t.TempDir()
	root := filepath.Join(base, "public")
	files := map[string]string{
		"index.html":      "<h1>home</h1>",
		"app.js":          "console.log('hi')",
		"module.mjs":      "export {}",
		"style.css":       "body{}",
		"data.json":       `{"ok":true}`,
		"logo.svg":        "<svg/>",
		"notes.txt":       "plain",
		"report":          "%PDF-1.4\n%\xe2\xe3\xcf\xd3\n",
		"sub/index.html":  "<h1>sub</h1>",
		"sub/page.htm":    "<p>page</p>",
		"fonts/x.woff2":   "wOF2",
		"bundle.js.map":   "{}",
		"IMG.PNG":         "\x89PNG\r\n\x1a\n",
		"empty/.gitkeep":  "",
		"photos/cat.jpeg": "\xff\xd8\xff",
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(base, "secret.txt"), []byte("top secret"), 0o600); err != nil {
		t.Fatal(err)
	}
	return root
}

// serveStatic calls the handler directly so the request path is not cleaned by a mux.
func serveStatic(h http.Handler, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/", nil)
	req.URL.Path = path
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStaticHandler_ContentTypes(t *testing.T) {
	t.Parallel()

	h := NewStaticHandler(newStaticRoot(t), discardLogger())

	tests := []struct {
		path            string
		wantContentType string
		wantBody        string
	}{
		{path: "/", wantContentType: "text/html; charset=utf-8", wantBody: "<h1>home</h1>"},
		{path: "/index.html", wantContentType: "text/html; charset=utf-8", wantBody: "<h1>home</h1>"},
		{path: "/sub/", wantContentType: "text/html; charset=utf-8", wantBody: "<h1>sub</h1>"},
		{path: "/sub/page.htm", wantContentType: "text/html; charset=utf-8"},
		{path: "/app.js", wantContentType: "application/javascript; charset=utf-8"},
		{path: "/module.mjs", wantContentType: "application/javascript; charset=utf-8"},
		{path: "/style.css", wantContentType: "text/css; charset=utf-8"},
		{path: "/data.json", wantContentType: "application/json"},
		{path: "/bundle.js.map", wantContentType: "application/json"},
		{path: "/logo.svg", wantContentType: "image/svg+xml"},
		{path: "/notes.txt", wantContentType: "text/plain; charset=utf-8"},
		{path: "/fonts/x.woff2", wantContentType: "font/woff2"},
		{path: "/IMG.PNG", wantContentType: "image/png"},
		{path: "/photos/cat.jpeg", wantContentType: "image/jpeg"},
		{path: "/report", wantContentType: "application/pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := serveStatic(h, http.MethodGet, tt.path, nil)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if got := rec.Header().Get("Content-Type"); got != tt.wantContentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.wantContentType)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestStaticHandler_Errors(t *testing.T) {
	t.Parallel()

	h := NewStaticHandler(newStaticRoot(t), discardLogger())

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{name: "missing file", method: http.MethodGet, path: "/missing.txt", wantStatus: http.StatusNotFound},
		{name: "directory without trailing slash", method: http.MethodGet, path: "/sub", wantStatus: http.StatusNotFound},
		{name: "directory without index", method: http.MethodGet, path: "/empty/", wantStatus: http.StatusNotFound},
		{name: "file used as directory", method: http.MethodGet, path: "/notes.txt/x", wantStatus: http.StatusNotFound},
		{name: "parent traversal", method: http.MethodGet, path: "/../secret.txt", wantStatus: http.StatusForbidden},
		{name: "nested traversal", method: http.MethodGet, path: "/sub/../../secret.txt", wantStatus: http.StatusForbidden},
		{name: "traversal to root parent", method: http.MethodGet, path: "/..", wantStatus: http.StatusForbidden},
		{name: "nul byte", method: http.MethodGet, path: "/index.html\x00.txt", wantStatus: http.StatusBadRequest},
		{name: "post", method: http.MethodPost, path: "/index.html", wantStatus: http.StatusMethodNotAllowed},
		{name: "delete", method: http.MethodDelete, path: "/index.html", wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveStatic(h, tt.method, tt.path, nil)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if strings.Contains(rec.Body.String(), "top secret") {
				t.Error("response leaked file outside the static root")
			}
			if tt.wantStatus == http.StatusMethodNotAllowed {
				if got := rec.Header().Get("Allow"); got != "GET, HEAD" {
					t.Errorf("Allow = %q, want %q", got, "GET, HEAD")
				}
			}
		})
	}
}

func TestStaticHandler_SymlinkEscape(t *testing.T) {
	t.Parallel()

	root := newStaticRoot(t)
	if err := os.Symlink(filepath.Join(filepath.Dir(root), "secret.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	h := NewStaticHandler(root, discardLogger())
	rec := serveStatic(h, http.MethodGet, "/link.txt", nil)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestStaticHandler_ETag(t *testing.T) {
	t.Parallel()

	h := NewStaticHandler(newStaticRoot(t), discardLogger())

	first := serveStatic(h, http.MethodGet, "/app.js", nil)
	etag := first.Header().Get("ETag")
	if etag == "" || !strings.HasPrefix(etag, `"`) {
		t.Fatalf("ETag = %q, want a quoted strong tag", etag)
	}

	again := serveStatic(h, http.MethodGet, "/app.js", nil)
	if got := again.Header().Get("ETag"); got != etag {
		t.Errorf("ETag not stable: %q then %q", etag, got)
	}

	other := serveStatic(h, http.MethodGet, "/style.css", nil)
	if other.Header().Get("ETag") == etag {
		t.Error("different content produced the same ETag")
	}

	cached := serveStatic(h, http.MethodGet, "/app.js", map[string]string{"If-None-Match": etag})
	if cached.Code != http.StatusNotModified {
		t.Errorf("status = %d, want 304", cached.Code)
	}
	if cached.Body.Len() != 0 {
		t.Errorf("304 body = %q, want empty", cached.Body.String())
	}

	stale := serveStatic(h, http.MethodGet, "/app.js", map[string]string{"If-None-Match": `"0000000000000000"`})
	if stale.Code != http.StatusOK {
		t.Errorf("status with stale tag = %d, want 200", stale.Code)
	}
}

func TestStaticHandler_Head(t *testing.T) {
	t.Parallel()

	h := NewStaticHandler(newStaticRoot(t), discardLogger())
	rec := serveStatic(h, http.MethodHead, "/index.html", nil)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("HEAD body = %q, want empty", rec.Body.String())
	}
	if got := rec.Header().Get("Content-Length"); got != "13" {
		t.Errorf("Content-Length = %q, want 13", got)
	}
}

func TestStaticHandler_Disabled(t *testing.T) {
	t.Parallel()

	h := NewStaticHandler("", discardLogger())
	if h.Root() != "" {
		t.Errorf("Root() = %q, want empty", h.Root())
	}

	for _, path := range []string{"/", "/index.html"} {
		rec := serveStatic(h, http.MethodGet, path, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, rec.Code)
		}
	}
}

func TestStaticHandler_ThroughServer(t *testing.T) {
	t.Parallel()

	root := newStaticRoot(t)
	_, srv := newTestServer(t, newTestEngine(), WithStaticDir(root))

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{path: "/", wantStatus: http.StatusOK, wantBody: "<h1>home</h1>"},
		{path: "/sub/", wantStatus: http.StatusOK, wantBody: "<h1>sub</h1>"},
		{path: "/nope", wantStatus: http.StatusNotFound},
		// The mux cleans plain ".." into a redirect to a missing file.
		{path: "/../secret.txt", wantStatus: http.StatusNotFound},
		// Encoded dot segments reach the handler and are refused by the containment check.
		{path: "/%2e%2e/secret.txt", wantStatus: http.StatusForbidden},
		{path: "/sub/%2e%2e/%2e%2e/secret.txt", wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := srv.Client().Get(srv.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			defer func() { _ = resp.Body.Close() }()
			body, _ := io.ReadAll(resp.Body)

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if strings.Contains(string(body), "top secret") {
				t.Error("response leaked file outside the static root")
			}
			if tt.wantBody != "" && string(body) != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestContentTypeFor_Sniffing(t *testing.T) {
	t.Parallel()

	ct, err := contentTypeFor("blob", strings.NewReader("plain text content\n"))
	if err != nil {
		t.Fatalf("contentTypeFor() error: %v", err)
	}
	if !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %q, want text/plain", ct)
	}
}
