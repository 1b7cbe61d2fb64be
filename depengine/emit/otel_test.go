package emit

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestOTelEmitterEmit(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	emitter := NewOTelEmitter(tp.Tracer("depengine-test"))
	emitter.Emit(Event{
		InstructionID: 9,
		Tag:           4,
		HasTag:        true,
		PendingCount:  1,
		Msg:           "dispatch",
		Meta:          map[string]any{"note": "ok"},
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name != "dispatch" {
		t.Errorf("span name = %q, want %q", span.Name, "dispatch")
	}

	attrs := attributeMap(span.Attributes)
	if got := attrs["depengine.tag"]; got != int64(4) {
		t.Errorf("tag attribute = %v, want 4", got)
	}
	if got := attrs["depengine.instruction_id"]; got != int64(9) {
		t.Errorf("instruction_id attribute = %v, want 9", got)
	}
	if got := attrs["depengine.meta.note"]; got != "ok" {
		t.Errorf("meta.note attribute = %v, want ok", got)
	}
	if !span.EndTime.After(span.StartTime) {
		t.Error("span was not ended")
	}
}

func TestOTelEmitterEmitOmitsMissingTag(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	emitter := NewOTelEmitter(tp.Tracer("depengine-test"))
	emitter.Emit(Event{Msg: "engine_start"})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	attrs := attributeMap(spans[0].Attributes)
	if _, ok := attrs["depengine.tag"]; ok {
		t.Error("tag attribute should be absent when HasTag is false")
	}
}

func TestOTelEmitterEmitBatch(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	emitter := NewOTelEmitter(tp.Tracer("depengine-test"))
	events := []Event{
		{Tag: 1, HasTag: true, Msg: "enqueue"},
		{Tag: 1, HasTag: true, Msg: "state_transition"},
		{Tag: 1, HasTag: true, Msg: "restore"},
	}
	if err := emitter.EmitBatch(context.Background(), events); err != nil {
		t.Fatalf("EmitBatch: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(spans))
	}
	want := []string{"enqueue", "state_transition", "restore"}
	for i, span := range spans {
		if span.Name != want[i] {
			t.Errorf("span[%d] name = %q, want %q", i, span.Name, want[i])
		}
	}
}

func TestOTelEmitterFlushIsNoOp(t *testing.T) {
	emitter := NewOTelEmitter(sdktrace.NewTracerProvider().Tracer("depengine-test"))
	if err := emitter.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func TestOTelEmitterInterfaceContract(t *testing.T) {
	var _ Emitter = NewOTelEmitter(sdktrace.NewTracerProvider().Tracer("depengine-test"))
}

func attributeMap(attrs []attribute.KeyValue) map[string]any {
	m := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		m[string(kv.Key)] = kv.Value.AsInterface()
	}
	return m
}
