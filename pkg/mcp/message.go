// Package mcp provides JSON-RPC codec utilities for MCP traffic
// crossing the bridge.
package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
)

// Lifecycle methods the transport needs to recognise before handing a
// payload to the engine.
const (
	MethodInitialize        = "initialize"
	NotificationInitialized = "notifications/initialized"
)

// Batch is the decoded content of one HTTP POST body.
type Batch struct {
	// Messages holds the decoded messages in wire order.
	// The concrete type of each is either *jsonrpc.Request or *jsonrpc.Response.
	Messages []jsonrpc.Message

	// IsBatch is true when the body was a JSON array.
	IsBatch bool
}

// HasMethod reports whether any request in the batch invokes method.
func (b *Batch) HasMethod(method string) bool {
	for _, msg := range b.Messages {
		if req, ok := msg.(*jsonrpc.Request); ok && req.Method == method {
			return true
		}
	}
	return false
}

// Calls returns the number of requests that expect a response.
// Notifications and responses are not counted.
func (b *Batch) Calls() int {
	n := 0
	for _, msg := range b.Messages {
		if req, ok := msg.(*jsonrpc.Request); ok && req.IsCall() {
			n++
		}
	}
	return n
}

// Methods returns the request methods in the batch, for logging.
// Responses contribute no entry.
func (b *Batch) Methods() []string {
	methods := make([]string, 0, len(b.Messages))
	for _, msg := range b.Messages {
		if req, ok := msg.(*jsonrpc.Request); ok {
			methods = append(methods, req.Method)
		}
	}
	return methods
}

// IsNotificationOnly reports whether nothing in the batch expects a reply.
func (b *Batch) IsNotificationOnly() bool {
	return b.Calls() == 0
}
