package emit

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter turns each event into an OpenTelemetry span that is started
// and ended at once,
// tagged with the resource tag and instruction ID (ground: graph/emit/otel.go).
// It is how the module wires go.opentelemetry.io/otel, .../otel/sdk, and
// .../otel/trace into the RSQ/Instruction/Engine core: every state
// transition, dispatch, and restore becomes an optional, attributed span
// when an OTelEmitter is configured via WithEmitter.
//
// Usage:
//
//	tracer := otel.Tracer("depengine")
//	engine, err := depengine.New(depengine.WithEmitter(emit.NewOTelEmitter(tracer)))
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter creates an OTelEmitter backed by tracer.
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

// Emit starts and immediately ends a span named after event.Msg, carrying
// the event's tag, instruction ID, and metadata as span attributes.
func (o *OTelEmitter) Emit(event Event) {
	_, span := o.tracer.Start(context.Background(), event.Msg)
	defer span.End()
	span.SetAttributes(o.attributes(event)...)
}

// EmitBatch emits every event as its own span, in order.
func (o *OTelEmitter) EmitBatch(ctx context.Context, events []Event) error {
	for _, event := range events {
		_, span := o.tracer.Start(ctx, event.Msg)
		span.SetAttributes(o.attributes(event)...)
		span.End()
	}
	return nil
}

// Flush is a no-op: spans are ended synchronously as they are created.
// Exporter-level buffering (e.g. a batch span processor) is configured on
// the TracerProvider supplied to otel.Tracer, not here.
func (o *OTelEmitter) Flush(context.Context) error { return nil }

func (o *OTelEmitter) attributes(event Event) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 4+len(event.Meta))
	if event.HasTag {
		attrs = append(attrs, attribute.Int64("depengine.tag", int64(event.Tag)))
	}
	if event.InstructionID != 0 {
		attrs = append(attrs, attribute.Int64("depengine.instruction_id", int64(event.InstructionID)))
	}
	attrs = append(attrs, attribute.Int("depengine.pending_count", event.PendingCount))
	for k, v := range event.Meta {
		attrs = append(attrs, attribute.String("depengine.meta."+k, fmt.Sprintf("%v", v)))
	}
	return attrs
}
