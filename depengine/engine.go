package depengine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Engine is the dependency-aware execution engine described in
// SPEC_FULL.md §3–§4: it mints Tags, accepts Instructions via Push, and
// owns one resourceStateQueue per Tag for the engine's lifetime.
//
// Engine implements resourceLocator so Instructions can resolve a Tag to
// its RSQ during restore without RSQ back-pointers (SPEC_FULL.md §9).
type Engine struct {
	cfg *engineConfig

	tagsMu  sync.RWMutex
	nextTag atomic.Uint64
	rsqs    map[Tag]*resourceStateQueue

	nextInstructionID atomic.Uint64

	shouldStop *atomicBool
	hardStop   *atomicBool
	dispatcher dispatcher
	emitter    emitter
	metrics    *PrometheusMetrics

	runMu   sync.Mutex // guards start/stop against concurrent Start/Stop calls
	running bool
	closed  bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup // tracks every RSQ's listen goroutine
}

// New constructs an Engine. It does not start any listener goroutines —
// call Start for that. Passing no options yields an unbounded dispatcher,
// a NullEmitter, and no metrics collection, matching the original core's
// default behavior.
func New(opts ...Option) (*Engine, error) {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	e := &Engine{
		cfg:        cfg,
		rsqs:       make(map[Tag]*resourceStateQueue),
		shouldStop: &atomicBool{},
		hardStop:   &atomicBool{},
		dispatcher: newDispatcher(cfg.workerPoolSize),
		emitter:    emitter{sink: cfg.emitter},
		metrics:    cfg.metrics,
	}
	return e, nil
}

// NewVariable mints a fresh Tag and its backing resourceStateQueue. Safe
// to call at any time, including while the engine is running — if the
// engine is running, the new tag's listener goroutine is started at once;
// otherwise it starts with the next Start.
func (e *Engine) NewVariable() Tag {
	t := Tag(e.nextTag.Add(1))

	e.tagsMu.Lock()
	rsq := newResourceStateQueue(t, e.shouldStop, e.hardStop, e.dispatcher, e.emitter, e.metrics)
	e.rsqs[t] = rsq
	running := e.running
	ctx := e.ctx
	e.tagsMu.Unlock()

	if running {
		e.spawnListener(ctx, rsq)
	}
	e.emitter.emit(tagEvent(t, "new_variable", nil))
	return t
}

// Push submits a unit of work. callback runs once every tag in readTags
// and mutateTags has admitted this instruction (spec §3's pendingCount
// gate). A tag present in both readTags and mutateTags is treated as a
// mutate participant only (Invariant I-1) and enqueued on that tag once.
//
// Push returns ErrUnknownTag if any tag was not minted by this Engine's
// NewVariable, and ErrEmptyEnqueue if both tag sets are empty.
func (e *Engine) Push(ctx context.Context, callback Callback, readTags, mutateTags []Tag) (*Instruction, error) {
	e.tagsMu.RLock()
	closed := e.closed
	e.tagsMu.RUnlock()
	if closed {
		return nil, ErrStopped
	}

	if len(readTags) == 0 && len(mutateTags) == 0 {
		return nil, ErrEmptyEnqueue
	}

	mutate := newTagSet(mutateTags)
	read := make(tagSet, len(readTags))
	for _, t := range readTags {
		if mutate.has(t) {
			continue // I-1: mutate side wins, no duplicate enqueue
		}
		read[t] = struct{}{}
	}

	e.tagsMu.RLock()
	for t := range read {
		if _, ok := e.rsqs[t]; !ok {
			e.tagsMu.RUnlock()
			return nil, ErrUnknownTag
		}
	}
	for t := range mutate {
		if _, ok := e.rsqs[t]; !ok {
			e.tagsMu.RUnlock()
			return nil, ErrUnknownTag
		}
	}
	e.tagsMu.RUnlock()

	inst := &Instruction{
		id:         e.nextInstructionID.Add(1),
		callback:   callback,
		readTags:   read,
		mutateTags: mutate,
		locator:    e,
		pushedAt:   time.Now(),
	}
	inst.pendingCount.Store(int64(len(read) + len(mutate)))

	e.emitter.emit(instructionEvent(inst, "push", nil))

	// Enqueue on mutate tags first, then read tags — order between the
	// two has no semantic effect (each RSQ only ever sees this
	// instruction once). Within each set the order follows map
	// iteration and is not fixed.
	for t := range mutate {
		e.rsqFromTable(t).push(inst)
	}
	for t := range read {
		e.rsqFromTable(t).push(inst)
	}

	return inst, nil
}

func (e *Engine) rsqFromTable(t Tag) *resourceStateQueue {
	e.tagsMu.RLock()
	defer e.tagsMu.RUnlock()
	return e.rsqs[t]
}

// rsqFor implements resourceLocator for Instruction.restoreStatesAndNotify.
func (e *Engine) rsqFor(t Tag) (*resourceStateQueue, bool) {
	e.tagsMu.RLock()
	defer e.tagsMu.RUnlock()
	rsq, ok := e.rsqs[t]
	return rsq, ok
}

// Start spawns a listener goroutine for every Tag minted so far and marks
// the engine running. Calling Start on an already-running engine is a
// no-op. Start may be called again after Stop — each RSQ's listen loop
// is stateless across cycles, and Engine's WaitGroup is safe to reuse
// once its counter has returned to zero (spec P6).
func (e *Engine) Start() {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.running {
		return
	}

	e.shouldStop.store(false)
	e.hardStop.store(false)
	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.running = true

	e.tagsMu.RLock()
	rsqs := make([]*resourceStateQueue, 0, len(e.rsqs))
	for _, rsq := range e.rsqs {
		rsqs = append(rsqs, rsq)
	}
	e.tagsMu.RUnlock()

	for _, rsq := range rsqs {
		e.spawnListener(e.ctx, rsq)
	}

	e.emitter.emit(event{msg: "engine_start"})
}

func (e *Engine) spawnListener(ctx context.Context, rsq *resourceStateQueue) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		rsq.listen(ctx)
	}()
}

// Stop signals every RSQ listener to exit once its queue drains (or
// immediately, under WithHardStop), wakes every listener so it observes
// the flag, waits for all of them to exit, then waits for every
// dispatched callback to return. Stop is idempotent: calling it on an
// already-stopped engine is a no-op. A subsequent Start resumes drain
// from wherever the queues were left (spec P6).
func (e *Engine) Stop() {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if !e.running {
		return
	}

	e.shouldStop.store(true)
	if e.cfg.hardStop {
		e.hardStop.store(true)
	}

	e.tagsMu.RLock()
	rsqs := make([]*resourceStateQueue, 0, len(e.rsqs))
	for _, rsq := range e.rsqs {
		rsqs = append(rsqs, rsq)
	}
	e.tagsMu.RUnlock()

	// Wake every listener so it observes the updated flags. Under a soft
	// stop a listener still drains its queue to completion before
	// exiting; under a hard stop it exits on its next wake regardless of
	// queue contents.
	for _, rsq := range rsqs {
		rsq.notify()
	}

	e.wg.Wait()
	e.dispatcher.wait()

	e.cancel()
	e.running = false
	e.emitter.emit(event{msg: "engine_stop"})
	e.emitter.sink.Flush(context.Background())
}

// Close stops the engine if running and permanently prevents further use:
// subsequent Push calls return ErrStopped. Unlike Stop, Close is not meant
// to be followed by Start. It exists for hosts that tear an Engine down
// for good, as opposed to pausing and resuming dispatch.
func (e *Engine) Close() {
	e.Stop()

	e.tagsMu.Lock()
	e.closed = true
	e.tagsMu.Unlock()
}
