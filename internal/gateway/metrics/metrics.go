package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the gateway pipeline.
type Metrics struct {
	// Handoffs built, by client kind
	Handoffs *prometheus.CounterVec

	// Attempts that stayed on the master, by reason ("trusted", "admin")
	Bypasses *prometheus.CounterVec

	// Failed attempts, by stage ("extract", "resolve", "handoff")
	Failures *prometheus.CounterVec

	// Full pipeline latency
	PipelineLatency prometheus.Histogram
}

// New creates a Metrics instance with all gateway metrics registered.
func New() *Metrics {
	return &Metrics{
		Handoffs: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fedgate_handoffs_total",
			Help: "Total handoffs built, by client kind",
		}, []string{"kind"}),

		Bypasses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fedgate_bypasses_total",
			Help: "Total attempts kept on the master node, by reason",
		}, []string{"reason"}),

		Failures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fedgate_failures_total",
			Help: "Total failed login attempts, by pipeline stage",
		}, []string{"stage"}),

		PipelineLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fedgate_pipeline_duration_seconds",
			Help:    "Duration of the full gateway decision pipeline",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// IncrementHandoff records a built handoff.
func (m *Metrics) IncrementHandoff(kind string) {
	if m != nil {
		m.Handoffs.WithLabelValues(kind).Inc()
	}
}

// IncrementBypass records an attempt that stayed local.
func (m *Metrics) IncrementBypass(reason string) {
	if m != nil {
		m.Bypasses.WithLabelValues(reason).Inc()
	}
}

// IncrementFailure records a failed attempt.
func (m *Metrics) IncrementFailure(stage string) {
	if m != nil {
		m.Failures.WithLabelValues(stage).Inc()
	}
}

// ObservePipelineLatency records the full pipeline duration.
func (m *Metrics) ObservePipelineLatency(d time.Duration) {
	if m != nil {
		m.PipelineLatency.Observe(d.Seconds())
	}
}
