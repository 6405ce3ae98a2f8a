package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sentinel-Gate/mcp-bridge/internal/port/outbound"
	"github.com/Sentinel-Gate/mcp-bridge/internal/telemetry"
	mcpcodec "github.com/Sentinel-Gate/mcp-bridge/pkg/mcp"
)

// JSON-RPC error codes written by the adapter itself.
const (
	codeParseError    = -32700
	codeServerError   = -32000
	codeInternalError = -32603
)

const (
	sessionIDHeader       = "Mcp-Session-Id"
	protocolVersionHeader = "Mcp-Protocol-Version"

	// defaultProtocolVersion is assumed when a stateless request carries no
	// Mcp-Protocol-Version header.
	defaultProtocolVersion = "2025-03-26"

	// defaultMaxBodyBytes caps POST /mcp bodies when no limit is configured.
	defaultMaxBodyBytes int64 = 4 << 20
)

// supportedProtocolVersions lists the Mcp-Protocol-Version values the engine
// can be seeded with, newest first.
var supportedProtocolVersions = []string{
	"2025-11-25",
	"2025-06-18",
	"2025-03-26",
	"2024-11-05",
}

// mcpEndpoint serves /mcp by handing each POST to a fresh engine session.
type mcpEndpoint struct {
	engine       outbound.Engine
	maxBodyBytes int64
	metrics      *Metrics
	instruments  *telemetry.Instruments
}

func (e *mcpEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		if err := e.handlePost(w, r); err != nil {
			LoggerFromContext(r.Context()).Error("mcp request failed", "error", err)
			writeInternalError(w)
		}
	case http.MethodOptions:
		handleOptions(w, r)
	default:
		w.Header().Set("Allow", http.MethodPost)
		writeJSONRPCError(w, http.StatusMethodNotAllowed, nil, codeServerError, "Method not allowed.")
	}
}

// handlePost validates the request, builds a per-request transport and lets
// the engine write the response. Errors returned here have not touched w.
func (e *mcpEndpoint) handlePost(w http.ResponseWriter, r *http.Request) error {
	logger := LoggerFromContext(r.Context())

	if !isJSONContentType(r.Header.Get("Content-Type")) {
		writeJSONRPCError(w, http.StatusUnsupportedMediaType, nil, codeServerError,
			"Unsupported Media Type: Content-Type must be application/json")
		return nil
	}
	if !acceptsMCPResponse(r.Header.Values("Accept")) {
		writeJSONRPCError(w, http.StatusNotAcceptable, nil, codeServerError,
			"Not Acceptable: Accept must contain both application/json and text/event-stream")
		return nil
	}

	protocolVersion := r.Header.Get(protocolVersionHeader)
	if protocolVersion == "" {
		protocolVersion = defaultProtocolVersion
	}
	if !slices.Contains(supportedProtocolVersions, protocolVersion) {
		writeJSONRPCError(w, http.StatusBadRequest, nil, codeServerError,
			fmt.Sprintf("Bad Request: Unsupported protocol version (supported versions: %s)",
				strings.Join(supportedProtocolVersions, ",")))
		return nil
	}

	limit := e.maxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	_ = r.Body.Close()
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeJSONRPCError(w, http.StatusRequestEntityTooLarge, nil, codeServerError,
				fmt.Sprintf("Request Entity Too Large: body exceeds %d bytes", limit))
			return nil
		}
		writeJSONRPCError(w, http.StatusBadRequest, nil, codeParseError, "Parse error: failed to read request body")
		return nil
	}

	batch, err := mcpcodec.DecodeBatch(body)
	if err != nil {
		logger.Debug("rejecting malformed MCP payload", "error", err)
		writeJSONRPCError(w, http.StatusBadRequest, nil, codeParseError, "Parse error")
		return nil
	}
	e.instruments.RecordRequestSize(r.Context(), len(body))

	transport := &mcp.StreamableServerTransport{
		SessionID: r.Header.Get(sessionIDHeader),
		Stateless: true,
	}
	session, err := e.engine.Connect(r.Context(), transport, sessionOptions(batch, protocolVersion))
	if err != nil {
		e.recordConnect(r, telemetry.ResultError)
		return fmt.Errorf("connect engine: %w", err)
	}
	e.recordConnect(r, telemetry.ResultOK)
	defer func() { _ = session.Close() }()

	if e.metrics != nil {
		e.metrics.ActiveSessions.Inc()
		defer e.metrics.ActiveSessions.Dec()
	}

	logger.Debug("engine session opened",
		"methods", strings.Join(batch.Methods(), ","),
		"batch", batch.IsBatch,
		"calls", batch.Calls(),
		"notification_only", batch.IsNotificationOnly(),
	)

	r.Body = io.NopCloser(bytes.NewReader(body))
	r.ContentLength = int64(len(body))
	transport.ServeHTTP(w, r)
	return nil
}

func (e *mcpEndpoint) recordConnect(r *http.Request, result string) {
	if e.metrics != nil {
		e.metrics.EngineConnects.WithLabelValues(result).Inc()
	}
	e.instruments.RecordSession(r.Context(), result)
}

// sessionOptions pre-seeds a stateless session with whatever part of the
// initialization handshake the payload does not carry itself.
func sessionOptions(batch *mcpcodec.Batch, protocolVersion string) *mcp.ServerSessionOptions {
	if protocolVersion == "" {
		protocolVersion = defaultProtocolVersion
	}
	state := new(mcp.ServerSessionState)
	if !batch.HasMethod(mcpcodec.MethodInitialize) {
		state.InitializeParams = &mcp.InitializeParams{ProtocolVersion: protocolVersion}
	}
	if !batch.HasMethod(mcpcodec.NotificationInitialized) {
		state.InitializedParams = new(mcp.InitializedParams)
	}
	state.LogLevel = "info"
	return &mcp.ServerSessionOptions{State: state}
}

// isJSONContentType reports whether ct is application/json, parameters allowed.
func isJSONContentType(ct string) bool {
	if ct == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	return err == nil && mediaType == "application/json"
}

// acceptsMCPResponse reports whether the Accept values cover both response
// forms the engine may choose: JSON and an event stream. Ranges with q=0 are
// refusals and do not count.
func acceptsMCPResponse(values []string) bool {
	var jsonOK, streamOK bool
	for _, part := range strings.Split(strings.Join(values, ","), ",") {
		mediaType, params, _ := strings.Cut(part, ";")
		if !acceptable(params) {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(mediaType)) {
		case "application/json", "application/*":
			jsonOK = true
		case "text/event-stream", "text/*":
			streamOK = true
		case "*/*":
			jsonOK = true
			streamOK = true
		}
	}
	return jsonOK && streamOK
}

// acceptable reports whether the parameters of one Accept media range carry a
// non-zero quality. A missing or malformed q counts as acceptable.
func acceptable(params string) bool {
	for _, param := range strings.Split(params, ";") {
		key, value, ok := strings.Cut(param, "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "q") {
			continue
		}
		q, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return true
		}
		return q > 0
	}
	return true
}

// handleOptions handles CORS preflight requests.
func handleOptions(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization, Mcp-Session-Id, Mcp-Protocol-Version, X-Request-ID")
	w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours
	w.WriteHeader(http.StatusNoContent)
}

// jsonRPCError represents a JSON-RPC 2.0 error response.
type jsonRPCError struct {
	JSONRPC string            `json:"jsonrpc"`
	Error   jsonRPCErrorField `json:"error"`
	ID      any               `json:"id"`
}

type jsonRPCErrorField struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// writeJSONRPCError writes a JSON-RPC error response with the given HTTP status.
func writeJSONRPCError(w http.ResponseWriter, status int, id any, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errResp := jsonRPCError{
		JSONRPC: "2.0",
		ID:      id,
		Error: jsonRPCErrorField{
			Code:    code,
			Message: message,
		},
	}

	_ = json.NewEncoder(w).Encode(errResp)
}

// writeInternalError writes the catch-all 500 response.
func writeInternalError(w http.ResponseWriter) {
	writeJSONRPCError(w, http.StatusInternalServerError, nil, codeInternalError, "Internal server error")
}
