package emit

import "context"

// NullEmitter discards every event. It is the Engine's default Emitter
// (ground: graph/emit/null.go), chosen so that observability is strictly
// opt-in and carries no cost for callers who never configure one.
type NullEmitter struct{}

// Emit discards the event.
func (NullEmitter) Emit(Event) {}

// EmitBatch discards the events and always succeeds.
func (NullEmitter) EmitBatch(context.Context, []Event) error { return nil }

// Flush is a no-op; there is nothing buffered to flush.
func (NullEmitter) Flush(context.Context) error { return nil }
