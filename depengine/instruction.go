package depengine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// Callback is the side-effecting action a client attaches to an
// Instruction. The ctx it receives is derived from the engine's own context
// for the current Start/Stop cycle, enriched with dispatch metadata (see
// context.go); the ctx given to Push is not forwarded to the callback. The
// engine is oblivious to what the callback does with ctx. A callback must not synchronously Push and await another
// instruction that touches a tag it already holds — the engine does not
// detect or prevent that deadlock (SPEC_FULL.md §9).
type Callback func(ctx context.Context)

// resourceLocator lets an Instruction resolve a Tag to its RSQ during
// restore, without holding RSQ pointers directly. Implemented by Engine.
// This indirection exists specifically to avoid the ownership cycle
// RSQ -> queue -> Instruction -> RSQ described in SPEC_FULL.md §9.
type resourceLocator interface {
	rsqFor(t Tag) (*resourceStateQueue, bool)
}

// Instruction is the unit of work submitted via Engine.Push: a callback
// plus its declared read-tag and mutate-tag sets, plus an atomic pending
// counter that gates dispatch (spec §3).
//
// An Instruction is immutable after construction except for pendingCount,
// which is only ever modified via atomic fetch-and-subtract.
type Instruction struct {
	id       uint64
	callback Callback

	// readTags excludes any tag also present in mutateTags — per
	// Invariant I-1, a tag in both sets is a mutate participant only.
	readTags   tagSet
	mutateTags tagSet

	// pendingCount starts at len(readTags)+len(mutateTags) (the size of
	// the union, since readTags and mutateTags are disjoint by
	// construction) and is decremented once per RSQ that clears this
	// instruction's head position.
	pendingCount atomic.Int64

	// pushedAt is stamped at construction and read back in run to feed
	// depengine_instruction_latency_ms (SPEC_FULL.md §4.5): the time from
	// Push to callback return.
	pushedAt time.Time

	locator resourceLocator
}

// decrementPendingAndIsReady atomically decrements the pending counter and
// reports whether this call observed it transition from 1 to 0. Because
// the decrement and the zero-check happen as a single atomic operation,
// exactly one caller across all racing RSQs ever sees true — this is what
// guarantees Invariant I-2 (single dispatch) without any lock.
func (i *Instruction) decrementPendingAndIsReady() bool {
	return i.pendingCount.Add(-1) == 0
}

// allTags returns the union of readTags and mutateTags — the full set of
// resources this instruction participates in, used by run's restore walk.
func (i *Instruction) allTags() []Tag {
	out := make([]Tag, 0, len(i.readTags)+len(i.mutateTags))
	for t := range i.readTags {
		out = append(out, t)
	}
	for t := range i.mutateTags {
		out = append(out, t)
	}
	return out
}

// run invokes the callback, recovering any panic it raises so that a
// misbehaving callback can never prevent restoreStatesAndNotify from
// running and unblocking downstream instructions (spec §7's callback-panic
// policy). It then walks every participating tag's RSQ, restoring its
// state one step and notifying its listener.
func (i *Instruction) run(ctx context.Context, dispatchTag Tag, em emitter, metrics *PrometheusMetrics) {
	ctx = withInstructionContext(ctx, i, dispatchTag)

	status := "ok"
	func() {
		defer func() {
			if r := recover(); r != nil {
				status = "panic"
				em.emit(instructionEvent(i, "callback_panic", map[string]any{
					"error": fmt.Sprintf("%v", r),
				}))
			}
		}()
		i.callback(ctx)
	}()
	metrics.observeLatency(status, time.Since(i.pushedAt))

	i.restoreStatesAndNotify(em, metrics)
}

// restoreStatesAndNotify implements the post-execution protocol from spec
// §4.3: for every tag this instruction touched, ask that tag's RSQ to step
// its state back toward MR, then re-arm the listener so it considers the
// next head.
func (i *Instruction) restoreStatesAndNotify(em emitter, metrics *PrometheusMetrics) {
	for _, t := range i.allTags() {
		rsq, ok := i.locator.rsqFor(t)
		if !ok {
			// A tag that was valid at Push time cannot disappear — tags
			// and their RSQs live for the engine's lifetime (spec §3).
			fatalf(t, stateMR, "restore-missing-rsq")
		}
		rsq.restoreState(em, metrics)
		rsq.notify()
	}
}

func instructionEvent(i *Instruction, msg string, meta map[string]any) event {
	return event{instructionID: i.id, msg: msg, meta: meta, pendingCount: int(i.pendingCount.Load())}
}
