// Package emit provides pluggable event emission and observability for the
// dependency engine. It is modeled directly on the observability package of
// the graph-execution engine this module grew out of: the same three-method
// Emitter contract (Emit / EmitBatch / Flush) backs a no-op sink, a
// text-or-JSON log sink, and an OpenTelemetry tracing sink, so any of them
// can be swapped in without touching engine code.
package emit

// Event is a structured record of something the engine did: a tag was
// minted, an instruction was enqueued, a resource changed state, an
// instruction was dispatched or restored, or the engine started/stopped.
type Event struct {
	// InstructionID identifies the instruction this event concerns, if any.
	// Zero for engine-level events (start/stop, tag allocation).
	InstructionID uint64 `json:"instructionID"`

	// Tag identifies the resource this event concerns, if any.
	Tag uint64 `json:"tag"`

	// HasTag reports whether Tag is meaningful for this event; Tag alone
	// cannot distinguish "tag 0" from "no tag" since Tag 0 is a valid tag.
	HasTag bool `json:"hasTag"`

	// PendingCount is the instruction's pending counter at the moment of
	// the event, when applicable (0 once dispatched).
	PendingCount int `json:"pendingCount"`

	// Msg names the event: "new_variable", "push", "enqueue",
	// "state_transition", "dispatch", "callback_panic", "restore",
	// "engine_start", "engine_stop".
	Msg string `json:"msg"`

	// Meta carries event-specific detail, e.g. {"depth": 2} (the queue
	// depth) for enqueue and state_transition, or {"error": "..."} for
	// callback_panic.
	Meta map[string]any `json:"meta,omitempty"`
}
