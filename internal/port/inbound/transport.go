// Package inbound defines the inbound port interfaces for the bridge.
// Inbound adapters (stdio, HTTP) implement these interfaces.
package inbound

import (
	"context"
)

// Transport is the inbound port that exposes the protocol engine to clients.
type Transport interface {
	// Start begins accepting client traffic.
	// Blocks until context is cancelled or an error occurs.
	// Returns nil on graceful shutdown, error on failure.
	Start(ctx context.Context) error

	// Close gracefully shuts down the transport and cleans up resources.
	Close() error
}
