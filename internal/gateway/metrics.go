package gateway

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gateway's Prometheus collectors on a private registry
// so multiple gateways (tests) never collide.
type Metrics struct {
	registry *prometheus.Registry

	ChatRequests  prometheus.Counter
	RateLimited   prometheus.Counter
	ActiveStreams prometheus.Gauge
	Events        *prometheus.CounterVec
	Tokens        prometheus.Counter
	ToolDuration  *prometheus.HistogramVec
	LoopTurns     prometheus.Histogram
}

// NewMetrics creates and registers the gateway collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ChatRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "campaignd_chat_requests_total",
			Help: "Chat requests received, including rejected ones.",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "campaignd_rate_limited_total",
			Help: "Chat requests rejected by the rate limiter.",
		}),
		ActiveStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "campaignd_active_streams",
			Help: "Event streams currently open.",
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campaignd_events_total",
			Help: "Boundary events emitted, by type.",
		}, []string{"type"}),
		Tokens: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "campaignd_tokens_total",
			Help: "Model tokens consumed across all requests.",
		}),
		ToolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "campaignd_tool_duration_seconds",
			Help:    "Tool execution duration, by tool.",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool"}),
		LoopTurns: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "campaignd_loop_turns",
			Help:    "Reasoning turns taken per completed request.",
			Buckets: []float64{1, 2, 3, 4, 5, 7, 10},
		}),
	}

	m.registry.MustRegister(
		m.ChatRequests,
		m.RateLimited,
		m.ActiveStreams,
		m.Events,
		m.Tokens,
		m.ToolDuration,
		m.LoopTurns,
	)
	return m
}

// Handler serves the collectors in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
