package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Session results recorded on the engine session counter.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Instruments holds the OTel instruments recorded by the HTTP adapter.
type Instruments struct {
	engineSessions metric.Int64Counter
	requestBytes   metric.Int64Histogram
}

// NewInstruments creates the bridge instruments from mp.
func NewInstruments(mp metric.MeterProvider) (*Instruments, error) {
	meter := mp.Meter(InstrumentationName)

	sessions, err := meter.Int64Counter("mcpbridge.engine.sessions",
		metric.WithDescription("Engine sessions opened for MCP requests"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create engine session counter: %w", err)
	}

	reqBytes, err := meter.Int64Histogram("mcpbridge.request.body.size",
		metric.WithDescription("Size of POST /mcp bodies handed to the engine"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("create request size histogram: %w", err)
	}

	return &Instruments{engineSessions: sessions, requestBytes: reqBytes}, nil
}

// RecordSession counts one engine session attempt with its result.
func (i *Instruments) RecordSession(ctx context.Context, result string) {
	if i == nil {
		return
	}
	i.engineSessions.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordRequestSize records the size of a request body passed to the engine.
func (i *Instruments) RecordRequestSize(ctx context.Context, n int) {
	if i == nil {
		return
	}
	i.requestBytes.Record(ctx, int64(n))
}
