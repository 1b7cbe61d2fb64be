package depengine

import (
	"errors"
	"fmt"
)

// ErrUnknownTag is returned by Push when a caller supplies a tag that was
// never returned by Engine.NewVariable. Unlike an illegal state transition,
// this is a caller mistake, not an engine bug, and is recoverable: the
// instruction is never enqueued anywhere.
var ErrUnknownTag = errors.New("depengine: unknown resource tag")

// ErrEmptyEnqueue is returned by Push when both the read-tag and mutate-tag
// sets are empty. Such an instruction would have a pendingCount of zero and
// nothing to gate dispatch on, so Push rejects it rather than guessing at
// inline-execution semantics. See SPEC_FULL.md §9 for the rationale.
var ErrEmptyEnqueue = errors.New("depengine: push with no read or mutate tags")

// ErrStopped is returned by Push only in the narrow case where the engine
// has been permanently shut down with Engine.Close. The engine's
// Stop/Start pair does not itself return this; it exists for hosts that
// tear an Engine down entirely.
var ErrStopped = errors.New("depengine: engine closed")

// state is the per-resource state-machine value described in SPEC_FULL.md
// §3: N (mutating, exclusive), R (one or more outstanding readers), or MR
// (idle — "may read or mutate").
type state uint8

const (
	stateN state = iota
	stateR
	stateMR
)

func (s state) String() string {
	switch s {
	case stateN:
		return "N"
	case stateR:
		return "R"
	case stateMR:
		return "MR"
	default:
		return "invalid"
	}
}

// IllegalStateTransitionError indicates that a toState or restoreState call
// contradicted the transition table in SPEC_FULL.md §3. It always indicates
// a bug in the engine itself — a corrupted pending counter, a duplicate
// enqueue, or a missed restore — never a caller mistake. The engine does
// not try to recover from it: the goroutine that discovers it panics with
// this error, which is the Go analogue of the original C++ core's
// exit(EXIT_FAILURE) on the same condition.
type IllegalStateTransitionError struct {
	Tag  Tag
	From state
	To   string // target state, "restore" for restoreState violations, or "not-a-participant" / "restore-missing-rsq"
}

func (e *IllegalStateTransitionError) Error() string {
	return fmt.Sprintf("depengine: illegal state transition on %s: %s -> %s", e.Tag, e.From, e.To)
}

// fatalf panics with an IllegalStateTransitionError. It is the single
// choke point every invariant violation in rsq.go funnels through.
func fatalf(tag Tag, from state, to string) {
	panic(&IllegalStateTransitionError{Tag: tag, From: from, To: to})
}
