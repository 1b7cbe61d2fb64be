package depengine

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics provides Prometheus-compatible metrics for the
// dependency engine, wired through github.com/prometheus/client_golang
// (ground: graph/metrics.go's PrometheusMetrics in the teacher).
//
// Metrics exposed (all namespaced with "depengine_"):
//
//  1. active_mutators (gauge, label tag): 1 while the resource is in state N.
//  2. active_readers (gauge, label tag): current read-chain length while in state R.
//  3. queue_depth (gauge, label tag): pending instructions on the RSQ.
//  4. dispatch_total (counter, label tag): instructions dispatched through this RSQ.
//  5. instruction_latency_ms (histogram, label status): Push-to-callback-return latency.
//  6. restore_total (counter, label tag): restores processed.
//
// A nil *PrometheusMetrics is a valid, documented no-op: every method on
// it guards against a nil receiver so an Engine configured without
// WithMetrics pays no instrumentation cost beyond a nil check.
type PrometheusMetrics struct {
	activeMutators       *prometheus.GaugeVec
	activeReaders        *prometheus.GaugeVec
	queueDepth           *prometheus.GaugeVec
	dispatchTotal        *prometheus.CounterVec
	restoreTotal         *prometheus.CounterVec
	instructionLatencyMs *prometheus.HistogramVec
}

// NewPrometheusMetrics registers depengine's metric families with reg and
// returns a handle for the Engine to update as it runs. Pass
// prometheus.NewRegistry() for an isolated registry, or
// prometheus.DefaultRegisterer to expose metrics via the default
// /metrics handler.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		activeMutators: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "depengine_active_mutators",
			Help: "1 while the resource is exclusively mutated (state N), else 0.",
		}, []string{"tag"}),
		activeReaders: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "depengine_active_readers",
			Help: "Current read-chain length for the resource (state R), else 0.",
		}, []string{"tag"}),
		queueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "depengine_queue_depth",
			Help: "Number of instructions pending on this resource's queue.",
		}, []string{"tag"}),
		dispatchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "depengine_dispatch_total",
			Help: "Instructions dispatched after this resource cleared them.",
		}, []string{"tag"}),
		restoreTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "depengine_restore_total",
			Help: "Restores processed for this resource.",
		}, []string{"tag"}),
		instructionLatencyMs: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "depengine_instruction_latency_ms",
			Help:    "Milliseconds between Push and callback return.",
			Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		}, []string{"status"}),
	}
}

func (m *PrometheusMetrics) setActiveMutator(tag Tag, active bool) {
	if m == nil {
		return
	}
	v := 0.0
	if active {
		v = 1.0
	}
	m.activeMutators.WithLabelValues(tagLabel(tag)).Set(v)
}

func (m *PrometheusMetrics) setActiveReaders(tag Tag, n int) {
	if m == nil {
		return
	}
	m.activeReaders.WithLabelValues(tagLabel(tag)).Set(float64(n))
}

func (m *PrometheusMetrics) setQueueDepth(tag Tag, n int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(tagLabel(tag)).Set(float64(n))
}

func (m *PrometheusMetrics) incDispatch(tag Tag) {
	if m == nil {
		return
	}
	m.dispatchTotal.WithLabelValues(tagLabel(tag)).Inc()
}

func (m *PrometheusMetrics) incRestore(tag Tag) {
	if m == nil {
		return
	}
	m.restoreTotal.WithLabelValues(tagLabel(tag)).Inc()
}

func (m *PrometheusMetrics) observeLatency(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.instructionLatencyMs.WithLabelValues(status).Observe(float64(d.Milliseconds()))
}

func tagLabel(t Tag) string {
	return strconv.FormatUint(uint64(t), 10)
}
