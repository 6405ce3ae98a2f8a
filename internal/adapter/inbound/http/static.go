package http

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/cespare/xxhash/v2"
	"github.com/gabriel-vasile/mimetype"
)

const indexFile = "index.html"

// contentTypes maps file extensions to the Content-Type served for them.
// Extensions not listed here are sniffed from the file content.
var contentTypes = map[string]string{
	".html":  "text/html; charset=utf-8",
	".htm":   "text/html; charset=utf-8",
	".css":   "text/css; charset=utf-8",
	".js":    "application/javascript; charset=utf-8",
	".mjs":   "application/javascript; charset=utf-8",
	".json":  "application/json",
	".map":   "application/json",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".ico":   "image/x-icon",
	".txt":   "text/plain; charset=utf-8",
	".wasm":  "application/wasm",
	".webp":  "image/webp",
	".woff2": "font/woff2",
}

// errOutsideRoot marks a request path that resolves outside the static root.
var errOutsideRoot = errors.New("path escapes static root")

// StaticHandler serves files from a fixed root directory.
type StaticHandler struct {
	root     string
	realRoot string
	logger   *slog.Logger
}

// NewStaticHandler creates a handler serving files below root.
// An empty root disables static serving and every request gets 404.
func NewStaticHandler(root string, logger *slog.Logger) *StaticHandler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &StaticHandler{logger: logger}
	if root == "" {
		return h
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	h.root = root
	h.realRoot = root
	if real, err := filepath.EvalSymlinks(root); err == nil {
		h.realRoot = real
	}
	return h
}

// Root returns the absolute directory served, or "" when disabled.
func (h *StaticHandler) Root() string {
	return h.root
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.root == "" {
		http.NotFound(w, r)
		return
	}

	urlPath := r.URL.Path
	if strings.IndexByte(urlPath, 0) >= 0 {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if urlPath == "" || strings.HasSuffix(urlPath, "/") {
		urlPath += indexFile
	}

	name, err := h.resolve(urlPath)
	switch {
	case errors.Is(err, errOutsideRoot):
		LoggerFromContext(r.Context()).Warn("static path outside root rejected", "path", r.URL.Path)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	case errors.Is(err, fs.ErrNotExist):
		http.NotFound(w, r)
		return
	case err != nil:
		LoggerFromContext(r.Context()).Error("static path resolution failed", "path", r.URL.Path, "error", err)
		writeInternalError(w)
		return
	}

	if err := h.serveFile(w, r, name); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		LoggerFromContext(r.Context()).Error("static file failed", "path", r.URL.Path, "error", err)
		writeInternalError(w)
	}
}

// resolve maps a URL path to a file name below the root.
// Symlinks are followed and must also stay below the root.
func (h *StaticHandler) resolve(urlPath string) (string, error) {
	name := filepath.Join(h.root, filepath.FromSlash(urlPath))
	if !within(h.root, name) {
		return "", errOutsideRoot
	}

	real, err := filepath.EvalSymlinks(name)
	if errors.Is(err, syscall.ENOTDIR) {
		return "", fs.ErrNotExist
	}
	if err != nil {
		return "", err
	}
	if !within(h.realRoot, real) {
		return "", errOutsideRoot
	}
	return real, nil
}

// within reports whether target is root or a descendant of it.
func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// serveFile writes the file with its Content-Type and content ETag.
// Nothing is written to w when an error is returned.
func (h *StaticHandler) serveFile(w http.ResponseWriter, r *http.Request, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fs.ErrNotExist
	}

	digest := xxhash.New()
	if _, err := io.Copy(digest, f); err != nil {
		return fmt.Errorf("hash %s: %w", name, err)
	}

	contentType, err := contentTypeFor(name, f)
	if err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind %s: %w", name, err)
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("ETag", fmt.Sprintf(`"%016x"`, digest.Sum64()))
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return nil
}

// contentTypeFor picks the Content-Type by extension, sniffing f otherwise.
func contentTypeFor(name string, f io.ReadSeeker) (string, error) {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct, nil
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind %s: %w", name, err)
	}
	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("detect content type of %s: %w", name, err)
	}
	return mtype.String(), nil
}
