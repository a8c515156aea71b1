package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Command outcomes recorded by CommandOutcomes.
const (
	OutcomeEmitted  = "emitted"
	OutcomeIgnored  = "ignored"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
	// OutcomeCancelled marks commands abandoned because the service is stopping.
	OutcomeCancelled = "cancelled"
)

// Metrics holds the Prometheus collectors for the mission pipeline.
type Metrics struct {
	MessagesConsumed   prometheus.Counter
	MessagesProduced   prometheus.Counter
	CommandOutcomes    *prometheus.CounterVec
	ProcessingDuration prometheus.Histogram
	PipelineRunning    prometheus.Gauge
	RouteRequests      *prometheus.CounterVec
	RouteAPIDuration   prometheus.Histogram
	StoreWrites        *prometheus.CounterVec
}

func newMetrics() *Metrics {
	return &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mission",
			Name:      "messages_consumed_total",
			Help:      "Total messages read from the command topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mission",
			Name:      "messages_produced_total",
			Help:      "Total events written to the event sink.",
		}),
		CommandOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mission",
			Name:      "commands_total",
			Help:      "Processed command messages by outcome (emitted, ignored, rejected, failed).",
		}, []string{"outcome"}),
		ProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mission",
			Name:      "processing_duration_seconds",
			Help:      "Duration of a single read-process-write cycle.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mission",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		RouteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mission",
			Name:      "route_requests_total",
			Help:      "Directions API requests by outcome (success, empty, error).",
		}, []string{"outcome"}),
		RouteAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mission",
			Name:      "route_api_duration_seconds",
			Help:      "Latency of directions API calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		StoreWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mission",
			Name:      "store_writes_total",
			Help:      "Mission store upserts by outcome (success, error).",
		}, []string{"outcome"}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.MessagesConsumed,
		m.MessagesProduced,
		m.CommandOutcomes,
		m.ProcessingDuration,
		m.PipelineRunning,
		m.RouteRequests,
		m.RouteAPIDuration,
		m.StoreWrites,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
