package graph

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects Prometheus metrics for engine execution, namespaced
// "flowgraph":
//
//   - steps_total (counter): completed supersteps, labeled node_id, status
//     (success, error, suspended).
//   - step_latency_ms (histogram): node invocation duration, labeled
//     node_id, status.
//   - runs_total (counter): finished Run/Resume calls, labeled outcome
//     (completed, suspended, failed).
//   - resumes_total (counter): Resume calls, labeled outcome (accepted,
//     mismatch).
//   - active_threads (gauge): threads currently inside the superstep loop.
//
// Pass a dedicated registry for isolation and expose it with promhttp:
//
//	registry := prometheus.NewRegistry()
//	metrics := graph.NewMetrics(registry)
//	engine, _ := graph.New(g, reducers, st, em, graph.WithMetrics(metrics))
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
type Metrics struct {
	steps         *prometheus.CounterVec
	stepLatency   *prometheus.HistogramVec
	runs          *prometheus.CounterVec
	resumes       *prometheus.CounterVec
	activeThreads prometheus.Gauge
}

// NewMetrics creates and registers the engine metrics with the given
// registry. A nil registry falls back to prometheus.DefaultRegisterer.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowgraph",
			Name:      "steps_total",
			Help:      "Completed supersteps by node and status",
		}, []string{"node_id", "status"}),

		stepLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flowgraph",
			Name:      "step_latency_ms",
			Help:      "Node invocation duration in milliseconds",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		}, []string{"node_id", "status"}),

		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowgraph",
			Name:      "runs_total",
			Help:      "Finished Run and Resume calls by outcome",
		}, []string{"outcome"}),

		resumes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowgraph",
			Name:      "resumes_total",
			Help:      "Resume calls by outcome",
		}, []string{"outcome"}),

		activeThreads: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "flowgraph",
			Name:      "active_threads",
			Help:      "Threads currently executing supersteps",
		}),
	}
}

func (m *Metrics) recordStep(nodeID, status string, latency time.Duration) {
	if m == nil {
		return
	}
	m.steps.WithLabelValues(nodeID, status).Inc()
	m.stepLatency.WithLabelValues(nodeID, status).Observe(float64(latency.Milliseconds()))
}

func (m *Metrics) recordRun(outcome string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
}

func (m *Metrics) recordResume(outcome string) {
	if m == nil {
		return
	}
	m.resumes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) threadStarted() {
	if m == nil {
		return
	}
	m.activeThreads.Inc()
}

func (m *Metrics) threadFinished() {
	if m == nil {
		return
	}
	m.activeThreads.Dec()
}
