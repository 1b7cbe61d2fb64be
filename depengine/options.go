package depengine

import (
	"fmt"

	"github.com/cse599-dlsys/depengine/emit"
)

// Option configures an Engine at construction time. Options follow the
// functional-options pattern (ground: graph/options.go's Option/engineConfig
// in the teacher): chainable, self-documenting, and each optional.
//
// Example:
//
//	engine, err := depengine.New(
//	    depengine.WithWorkerPoolSize(8),
//	    depengine.WithEmitter(emit.NewLogEmitter(os.Stdout, false)),
//	    depengine.WithMetrics(depengine.NewPrometheusMetrics(prometheus.DefaultRegisterer)),
//	)
type Option func(*engineConfig) error

// engineConfig collects options before they are applied to an Engine. New
// applies the options in order; each Option validates only its own
// argument, and the first one to return an error aborts construction.
type engineConfig struct {
	workerPoolSize int
	hardStop       bool
	emitter        emit.Emitter
	metrics        *PrometheusMetrics
}

func defaultEngineConfig() *engineConfig {
	return &engineConfig{
		workerPoolSize: 0, // unbounded: one goroutine per dispatched instruction
		hardStop:       false,
		emitter:        emit.NullEmitter{},
		metrics:        nil,
	}
}

// WithWorkerPoolSize bounds the maximum number of callbacks the engine runs
// concurrently. n <= 0 (the default) means unbounded: a fresh goroutine is
// spawned per dispatched instruction, matching the original C++ core's
// behavior exactly. n > 0 still starts a goroutine per dispatched
// instruction, but at most n callbacks run at once; the others wait for a
// slot on their own goroutine, so the dispatching RSQ's listener is not
// blocked — see SPEC_FULL.md §4.7 and §9 for why this is
// semantics-preserving.
func WithWorkerPoolSize(n int) Option {
	return func(c *engineConfig) error {
		c.workerPoolSize = n
		return nil
	}
}

// WithHardStop makes Stop() return as soon as every RSQ listener observes
// the stop flag, without waiting for each RSQ's queue to drain first.
// Already-dispatched callbacks are still waited on; only further draining
// of pending, not-yet-ready instructions is skipped.
func WithHardStop() Option {
	return func(c *engineConfig) error {
		c.hardStop = true
		return nil
	}
}

// WithEmitter attaches an observability sink. The default is
// emit.NullEmitter{}, which discards every event at negligible cost.
func WithEmitter(e emit.Emitter) Option {
	return func(c *engineConfig) error {
		if e == nil {
			return fmt.Errorf("depengine: WithEmitter requires a non-nil Emitter")
		}
		c.emitter = e
		return nil
	}
}

// WithMetrics attaches a Prometheus metrics handle created via
// NewPrometheusMetrics. The default is nil, which disables metrics
// collection entirely (every metrics call becomes a no-op nil check).
func WithMetrics(m *PrometheusMetrics) Option {
	return func(c *engineConfig) error {
		c.metrics = m
		return nil
	}
}
