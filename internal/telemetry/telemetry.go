// Package telemetry wires OpenTelemetry tracing and metrics for mcp-bridge.
//
// Both signals use the stdout exporters and are off by default. When a
// signal is disabled the global no-op provider stays in place, so callers
// can always fetch a tracer or meter without checking configuration.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// InstrumentationName identifies tracers and meters created by the bridge.
const InstrumentationName = "github.com/Sentinel-Gate/mcp-bridge"

// Config selects which signals to export.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Traces         bool
	Metrics        bool
	MetricInterval time.Duration
	// Writer receives exporter output. Defaults to os.Stderr.
	Writer io.Writer
}

// Provider owns the SDK providers installed by Setup.
type Provider struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
}

// Setup creates the configured providers and installs them as the otel globals.
// The returned Provider must be shut down to flush pending telemetry.
func Setup(ctx context.Context, cfg Config) (*Provider, error) {
	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
	)

	p := &Provider{}

	if cfg.Traces {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("create trace exporter: %w", err)
		}
		p.tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exp),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(p.tracerProvider)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}

	if cfg.Metrics {
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
		if err != nil {
			_ = p.Shutdown(ctx)
			return nil, fmt.Errorf("create metric exporter: %w", err)
		}
		interval := cfg.MetricInterval
		if interval <= 0 {
			interval = 30 * time.Second
		}
		p.meterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval))),
			sdkmetric.WithResource(res),
		)
		otel.SetMeterProvider(p.meterProvider)
	}

	return p, nil
}

// Shutdown flushes and stops the installed providers.
// Safe to call on a Provider with no signals enabled.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer provider: %w", err))
		}
	}
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown meter provider: %w", err))
		}
	}
	return errors.Join(errs...)
}
