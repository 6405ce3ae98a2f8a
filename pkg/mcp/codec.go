package mcp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
)

// ErrEmptyPayload is returned when a payload carries no JSON-RPC message.
var ErrEmptyPayload = errors.New("empty payload")

// DecodeMessage deserializes JSON-RPC wire format data into a Message.
// It returns either a *jsonrpc.Request or *jsonrpc.Response based on the message content.
// This delegates to the MCP SDK's jsonrpc package.
func DecodeMessage(data []byte) (jsonrpc.Message, error) {
	return jsonrpc.DecodeMessage(data)
}

// DecodeBatch decodes an HTTP POST body into a Batch.
// The body may hold a single JSON-RPC message or a JSON array of messages.
// An empty body or an empty array returns ErrEmptyPayload.
func DecodeBatch(data []byte) (*Batch, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrEmptyPayload
	}

	if trimmed[0] != '[' {
		msg, err := DecodeMessage(trimmed)
		if err != nil {
			return nil, err
		}
		return &Batch{Messages: []jsonrpc.Message{msg}}, nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		return nil, err
	}
	if len(raws) == 0 {
		return nil, ErrEmptyPayload
	}

	msgs := make([]jsonrpc.Message, 0, len(raws))
	for i, raw := range raws {
		msg, err := DecodeMessage(raw)
		if err != nil {
			return nil, fmt.Errorf("batch element %d: %w", i, err)
		}
		msgs = append(msgs, msg)
	}
	return &Batch{Messages: msgs, IsBatch: true}, nil
}
