// Package http provides the Streamable HTTP transport adapter for mcp-bridge.
//
// The adapter owns no protocol state. Each
// POST /mcp constructs a stateless mcp.StreamableServerTransport, connects
// it to the engine for the duration of the request and lets the engine
// write the response, either 202 Accepted for notifications or a
// text/event-stream carrying the JSON-RPC responses.
//
// # Usage
//
//	transport := http.NewHTTPTransport(engine,
//	    http.WithAddr("127.0.0.1:3000"),
//	    http.WithStaticDir("./public"),
//	    http.WithAllowedOrigins([]string{"https://example.com"}),
//	    http.WithLogger(logger),
//	)
//	err := transport.Start(ctx)
//
// # Endpoints
//
//	GET  /health   - Health report, 503 when no engine is configured
//	GET  /metrics  - Prometheus exposition
//	POST /mcp      - JSON-RPC message or batch, answered by the engine
//	OPTIONS /mcp   - CORS preflight
//	*    /mcp      - Any other method: 405 with Allow: POST
//	GET  /*        - Static files below the configured directory
//
// # Request Checks
//
// POST /mcp is rejected before reaching the engine when:
//
//   - Content-Type is not application/json (415)
//   - Accept does not cover application/json and text/event-stream (406)
//   - the body exceeds the configured limit (413)
//   - the body is empty or not JSON-RPC (400, code -32700)
//   - the Origin is neither same-host nor allowlisted (403)
//
// Engine connection failures and panics before the response is committed
// produce a 500 with a JSON-RPC -32603 body.
//
// # Middleware Chain
//
// Requests pass through middleware in this order:
//
//  1. MetricsMiddleware - Prometheus request counters and durations
//  2. RequestIDMiddleware - X-Request-ID and request-scoped logger
//  3. RealIPMiddleware - Client IP from proxy headers
//  4. TracingMiddleware - OpenTelemetry server span
//  5. AccessLogMiddleware - One log line per request
//  6. RecoveryMiddleware - Panic to catch-all 500
//
// OriginMiddleware guards /mcp only.
package http
