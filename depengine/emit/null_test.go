package emit

import (
	"context"
	"testing"
)

func TestNullEmitterNoOp(t *testing.T) {
	var e NullEmitter

	events := []Event{
		{Tag: 1, HasTag: true, Msg: "enqueue"},
		{InstructionID: 7, Msg: "dispatch"},
		{Tag: 2, HasTag: true, Msg: "restore", Meta: map[string]any{"from": "N"}},
	}
	for _, ev := range events {
		e.Emit(ev) // must not panic
	}

	if err := e.EmitBatch(context.Background(), events); err != nil {
		t.Fatalf("EmitBatch: %v", err)
	}
	if err := e.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func TestNullEmitterInterfaceContract(t *testing.T) {
	var _ Emitter = NullEmitter{}
}
