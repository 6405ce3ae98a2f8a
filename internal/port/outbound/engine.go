// Package outbound defines the outbound port interfaces for reaching the
// MCP protocol engine.
package outbound

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Engine is the outbound port for the MCP protocol engine.
// The engine owns message framing, method dispatch and capability
// negotiation; adapters only hand it a transport per connection.
//
// *mcp.Server satisfies this interface.
type Engine interface {
	// Connect binds the engine to a transport and returns the resulting session.
	// Closing the session releases everything Connect allocated.
	Connect(ctx context.Context, t mcp.Transport, opts *mcp.ServerSessionOptions) (*mcp.ServerSession, error)
}

// Compile-time check that the SDK server implements Engine.
var _ Engine = (*mcp.Server)(nil)
