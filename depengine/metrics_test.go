package depengine

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNilMetricsIsNoOp(t *testing.T) {
	var m *PrometheusMetrics
	// None of these should panic on a nil receiver.
	m.setActiveMutator(1, true)
	m.setActiveReaders(1, 2)
	m.setQueueDepth(1, 3)
	m.incDispatch(1)
	m.incRestore(1)
	m.observeLatency("ok", time.Millisecond)
}

func TestPrometheusMetricsRegistersFamilies(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg)

	m.setActiveMutator(5, true)
	m.incDispatch(5)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"depengine_active_mutators",
		"depengine_active_readers",
		"depengine_queue_depth",
		"depengine_dispatch_total",
		"depengine_restore_total",
		"depengine_instruction_latency_ms",
	} {
		if !names[want] {
			t.Errorf("expected metric family %s to be registered", want)
		}
	}
}

func TestTagLabel(t *testing.T) {
	if got := tagLabel(Tag(42)); got != "42" {
		t.Errorf("tagLabel(42) = %q, want %q", got, "42")
	}
}
