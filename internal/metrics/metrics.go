package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the orchestration core. It
// satisfies the optional instrumentation interfaces of pkg/registry and
// pkg/chain.
type Metrics struct {
	registry *prometheus.Registry

	// Invocation metrics
	ToolInvocationsTotal      *prometheus.CounterVec
	ToolInvocationDuration    *prometheus.HistogramVec
	ToolConcurrencyRejections *prometheus.CounterVec
	ToolActiveInvocations     *prometheus.GaugeVec

	// Chain metrics
	ChainsTotal   *prometheus.CounterVec
	ChainDuration *prometheus.HistogramVec
}

// New creates and registers all metrics on a private registry
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		// Invocation metrics
		ToolInvocationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_invocations_total",
				Help: "Total number of tool invocations",
			},
			[]string{"tool_name", "status"},
		),
		ToolInvocationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tool_invocation_duration_seconds",
				Help:    "Duration of tool invocations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool_name"},
		),
		ToolConcurrencyRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_concurrency_rejections_total",
				Help: "Total number of invocations rejected at the concurrency ceiling",
			},
			[]string{"tool_name"},
		),
		ToolActiveInvocations: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tool_active_invocations",
				Help: "Number of currently in-flight invocations per tool",
			},
			[]string{"tool_name"},
		),

		// Chain metrics
		ChainsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chains_total",
				Help: "Total number of executed chain plans",
			},
			[]string{"strategy", "status"},
		),
		ChainDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chain_duration_seconds",
				Help:    "End-to-end duration of chain plans in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"strategy"},
		),
	}

	// Register all metrics
	m.registerMetrics()

	return m
}

// registerMetrics registers all metrics with the registry
func (m *Metrics) registerMetrics() {
	// Invocation metrics
	m.registry.MustRegister(m.ToolInvocationsTotal)
	m.registry.MustRegister(m.ToolInvocationDuration)
	m.registry.MustRegister(m.ToolConcurrencyRejections)
	m.registry.MustRegister(m.ToolActiveInvocations)

	// Chain metrics
	m.registry.MustRegister(m.ChainsTotal)
	m.registry.MustRegister(m.ChainDuration)
}

// ObserveInvocation records one settled tool invocation
func (m *Metrics) ObserveInvocation(tool, status string, d time.Duration) {
	m.ToolInvocationsTotal.WithLabelValues(tool, status).Inc()
	m.ToolInvocationDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// SetActiveInvocations tracks a tool's live in-flight count
func (m *Metrics) SetActiveInvocations(tool string, n int) {
	m.ToolActiveInvocations.WithLabelValues(tool).Set(float64(n))
}

// IncConcurrencyRejection counts an immediate concurrency-ceiling rejection
func (m *Metrics) IncConcurrencyRejection(tool string) {
	m.ToolConcurrencyRejections.WithLabelValues(tool).Inc()
}

// ObserveChain records one completed chain plan
func (m *Metrics) ObserveChain(strategy, status string, d time.Duration) {
	m.ChainsTotal.WithLabelValues(strategy, status).Inc()
	m.ChainDuration.WithLabelValues(strategy).Observe(d.Seconds())
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
