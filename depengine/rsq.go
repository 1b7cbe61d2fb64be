package depengine

import (
	"context"
	"sync"
)

// resourceStateQueue (RSQ) is the per-resource FIFO, state machine, and
// listener goroutine described in SPEC_FULL.md §3–§4.2. One exists per
// Tag, for the lifetime of the Engine that minted it.
//
// Two independent locks guard disjoint state and are never held together
// (spec §5): queueMu (paired with a sync.Cond) guards queue and the
// listener's wait predicate; stateMu guards state and pastRChainLength. A
// listener releases queueMu before touching state.
type resourceStateQueue struct {
	tag Tag

	queueMu sync.Mutex
	cond    *sync.Cond
	queue   []*Instruction

	stateMu          sync.Mutex
	state            state
	pastRChainLength int

	shouldStop *atomicBool
	hardStop   *atomicBool

	dispatcher dispatcher
	emitter    emitter
	metrics    *PrometheusMetrics
}

func newResourceStateQueue(tag Tag, shouldStop, hardStop *atomicBool, d dispatcher, em emitter, metrics *PrometheusMetrics) *resourceStateQueue {
	r := &resourceStateQueue{
		tag:        tag,
		state:      stateMR,
		shouldStop: shouldStop,
		hardStop:   hardStop,
		dispatcher: d,
		emitter:    em,
		metrics:    metrics,
	}
	r.cond = sync.NewCond(&r.queueMu)
	return r
}

// push enqueues instruction at the tail of this RSQ's FIFO and wakes the
// listener. Order across concurrent pushers touching the same tag matches
// call order into push. Engine.Push does not serialize concurrent callers:
// two Push calls that overlap in time may reach different tags' RSQs in
// different relative orders.
func (r *resourceStateQueue) push(i *Instruction) {
	r.queueMu.Lock()
	r.queue = append(r.queue, i)
	depth := len(r.queue)
	r.queueMu.Unlock()

	r.metrics.setQueueDepth(r.tag, depth)
	r.emitter.emit(tagEvent(r.tag, "enqueue", map[string]any{"depth": depth}))

	r.cond.Signal()
}

// notify wakes the listener without changing the queue, used after a
// restore to make the listener re-examine the (possibly still-blocked)
// head.
func (r *resourceStateQueue) notify() {
	r.cond.Signal()
}

// listen is the per-RSQ event loop from spec §4.2:
//  1. wait until queue non-empty or shouldStop,
//  2. exit if shouldStop and queue empty,
//  3. drain ready instructions from the head until none are admissible.
//
// The caller (Engine) owns the goroutine this runs on and the WaitGroup
// that tracks its exit; listen itself knows nothing about restarts, which
// is what lets Engine.Start/Stop cycle it any number of times.
func (r *resourceStateQueue) listen(ctx context.Context) {
	for {
		r.queueMu.Lock()
		for len(r.queue) == 0 && !r.shouldStop.load() {
			r.cond.Wait()
		}
		if r.hardStop.load() {
			r.queueMu.Unlock()
			return
		}
		if len(r.queue) == 0 && r.shouldStop.load() {
			r.queueMu.Unlock()
			return
		}
		r.queueMu.Unlock()

		for r.handleNextPendingInstruction(ctx) {
		}
	}
}

// handleNextPendingInstruction implements the admission logic in spec
// §4.2: peek the head, decide admission by which set (read-only or
// mutate) this tag belongs to for that instruction, and either admit it
// (pop, transition, maybe dispatch) or leave it blocking the queue.
func (r *resourceStateQueue) handleNextPendingInstruction(ctx context.Context) bool {
	r.queueMu.Lock()
	if len(r.queue) == 0 {
		r.queueMu.Unlock()
		return false
	}
	head := r.queue[0]
	r.queueMu.Unlock()

	switch {
	case head.mutateTags.has(r.tag):
		return r.admitMutator(ctx, head)
	case head.readTags.has(r.tag):
		return r.admitReader(ctx, head)
	default:
		// The instruction was never enqueued on this tag — impossible
		// by construction of Push, and fatal if it happens anyway.
		fatalf(r.tag, r.currentState(), "not-a-participant")
		return false
	}
}

func (r *resourceStateQueue) currentState() state {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	return r.state
}

// admitMutator handles spec §4.2 Case A: a would-be exclusive mutator is
// only admitted from the idle state MR.
func (r *resourceStateQueue) admitMutator(ctx context.Context, head *Instruction) bool {
	r.stateMu.Lock()
	if r.state != stateMR {
		r.stateMu.Unlock()
		return false
	}
	r.toStateLocked(stateN)
	r.stateMu.Unlock()

	r.metrics.setActiveMutator(r.tag, true)
	r.popHeadAndDispatch(ctx, head)
	return true
}

// admitReader handles spec §4.2 Case B: readers are admitted from MR
// (opening a new read chain) or from R (extending the existing chain);
// they are blocked while a mutator holds N.
func (r *resourceStateQueue) admitReader(ctx context.Context, head *Instruction) bool {
	r.stateMu.Lock()
	if r.state != stateMR && r.state != stateR {
		r.stateMu.Unlock()
		return false
	}
	r.toStateLocked(stateR)
	chainLen := r.pastRChainLength
	r.stateMu.Unlock()

	r.metrics.setActiveReaders(r.tag, chainLen)
	r.popHeadAndDispatch(ctx, head)
	return true
}

// popHeadAndDispatch removes head from the queue — re-checked by identity
// since the admission decision in admitMutator/admitReader releases
// queueMu before re-acquiring it here — and, if this was the last RSQ to
// clear it, dispatches the callback.
func (r *resourceStateQueue) popHeadAndDispatch(ctx context.Context, head *Instruction) {
	r.queueMu.Lock()
	depth := 0
	if len(r.queue) > 0 && r.queue[0] == head {
		r.queue = r.queue[1:]
		depth = len(r.queue)
	}
	r.queueMu.Unlock()

	r.metrics.setQueueDepth(r.tag, depth)
	r.emitter.emit(tagEvent(r.tag, "state_transition", map[string]any{"depth": depth}))

	if head.decrementPendingAndIsReady() {
		r.metrics.incDispatch(r.tag)
		r.emitter.emit(instructionEvent(head, "dispatch", nil))
		dispatchTag := r.tag
		em, metrics := r.emitter, r.metrics
		r.dispatcher.run(func() {
			head.run(ctx, dispatchTag, em, metrics)
		})
	}
}

// restoreState implements spec §4.2's restoreState: step this resource one
// state back toward MR after an instruction touching it has finished.
func (r *resourceStateQueue) restoreState(em emitter, metrics *PrometheusMetrics) {
	r.stateMu.Lock()
	switch r.state {
	case stateMR:
		r.stateMu.Unlock()
		fatalf(r.tag, stateMR, "restore")
		return
	case stateR:
		r.pastRChainLength--
		remaining := r.pastRChainLength
		if r.pastRChainLength == 0 {
			r.toStateLocked(stateMR)
			remaining = 0
		}
		r.stateMu.Unlock()
		metrics.setActiveReaders(r.tag, remaining)
	case stateN:
		r.toStateLocked(stateMR)
		r.stateMu.Unlock()
		metrics.setActiveMutator(r.tag, false)
	}
	metrics.incRestore(r.tag)
	em.emit(tagEvent(r.tag, "restore", nil))
}

// toStateLocked is the only legal state-change entry point (spec §4.2's
// toState), called with stateMu already held. It enforces the transition
// table in spec §3; anything else is an engine bug and panics.
func (r *resourceStateQueue) toStateLocked(target state) {
	switch r.state {
	case stateN:
		if target != stateMR {
			fatalf(r.tag, stateN, target.String())
		}
	case stateR:
		switch target {
		case stateN:
			fatalf(r.tag, stateR, target.String())
		case stateR:
			r.pastRChainLength++
		case stateMR:
			if r.pastRChainLength != 0 {
				fatalf(r.tag, stateR, target.String())
			}
		}
	case stateMR:
		switch target {
		case stateMR:
			fatalf(r.tag, stateMR, target.String())
		case stateR:
			r.pastRChainLength++
		}
	}
	r.state = target
}
