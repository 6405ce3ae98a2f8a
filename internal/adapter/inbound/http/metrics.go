package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for mcp-bridge.
// Pass to components that need to record metrics.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ActiveSessions  prometheus.Gauge
	EngineConnects  *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mcpbridge",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"route", "method", "status"}, // route=mcp/static, status=ok/error
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "mcpbridge",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets, // 5ms to 10s
			},
			[]string{"route"},
		),
		ActiveSessions: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "mcpbridge",
				Name:      "active_sessions",
				Help:      "Number of engine sessions currently serving a request",
			},
		),
		EngineConnects: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mcpbridge",
				Name:      "engine_connects_total",
				Help:      "Total engine connection attempts",
			},
			[]string{"result"}, // result=ok/error
		),
	}
}
