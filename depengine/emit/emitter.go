package emit

import "context"

// Emitter receives and processes observability events from the dependency
// engine (ground: graph/emit/emitter.go in the teacher).
//
// Emitters enable pluggable observability backends:
//   - Logging: stdout, files.
//   - Distributed tracing: OpenTelemetry.
//   - Metrics and analytics backends layered on top of Emit.
//
// Implementations should be:
//   - Non-blocking: avoid slowing down instruction dispatch.
//   - Thread-safe: Emit may be called concurrently by many RSQ listener
//     goroutines and worker goroutines at once.
//   - Resilient: handle failures gracefully; Emit must never panic.
type Emitter interface {
	// Emit sends a single observability event to the configured backend.
	// Implementations must not block the caller (the RSQ listener or
	// dispatch goroutine) for any meaningful amount of time, and must not
	// panic.
	Emit(event Event)

	// EmitBatch sends multiple events in one operation, preserving order.
	// Returns an error only on catastrophic, unrecoverable failures;
	// per-event delivery failures should be handled internally.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until all buffered events have been delivered, or ctx
	// is done. Safe to call multiple times. Call before process shutdown
	// to avoid losing buffered events.
	Flush(ctx context.Context) error
}
