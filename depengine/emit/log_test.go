package emit

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogEmitterTextOutput(t *testing.T) {
	t.Run("emits event with all fields", func(t *testing.T) {
		var buf bytes.Buffer
		emitter := NewLogEmitter(&buf, false)

		emitter.Emit(Event{
			InstructionID: 12,
			Tag:           3,
			HasTag:        true,
			PendingCount:  0,
			Msg:           "state_transition",
			Meta:          map[string]any{"from": "MR", "to": "N"},
		})

		output := buf.String()
		if output == "" {
			t.Fatal("expected output, got empty string")
		}
		if !strings.Contains(output, "state_transition") {
			t.Errorf("expected output to contain Msg, got: %s", output)
		}
		if !strings.Contains(output, "tag=3") {
			t.Errorf("expected output to contain tag=3, got: %s", output)
		}
		if !strings.Contains(output, "instr=12") {
			t.Errorf("expected output to contain instr=12, got: %s", output)
		}
	})

	t.Run("omits tag when HasTag is false", func(t *testing.T) {
		var buf bytes.Buffer
		emitter := NewLogEmitter(&buf, false)

		emitter.Emit(Event{Msg: "engine_start"})

		output := buf.String()
		if strings.Contains(output, "tag=") {
			t.Errorf("expected no tag field, got: %s", output)
		}
	})

	t.Run("emits multiple events on separate lines", func(t *testing.T) {
		var buf bytes.Buffer
		emitter := NewLogEmitter(&buf, false)

		emitter.Emit(Event{Tag: 1, HasTag: true, Msg: "enqueue"})
		emitter.Emit(Event{Tag: 1, HasTag: true, Msg: "dispatch"})

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 2 {
			t.Errorf("expected 2 lines of output, got %d", len(lines))
		}
	})
}

func TestLogEmitterJSONFormatting(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewLogEmitter(&buf, true)

	emitter.Emit(Event{
		Tag:          5,
		HasTag:       true,
		PendingCount: 2,
		Msg:          "dispatch",
	})

	var parsed map[string]any
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("expected valid JSON, got error: %v\noutput: %s", err, buf.String())
	}
	if parsed["msg"] != "dispatch" {
		t.Errorf("msg = %v, want dispatch", parsed["msg"])
	}
	if parsed["tag"] != float64(5) {
		t.Errorf("tag = %v, want 5", parsed["tag"])
	}
}

func TestLogEmitterEmitBatch(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewLogEmitter(&buf, false)

	events := []Event{
		{Tag: 1, HasTag: true, Msg: "enqueue"},
		{Tag: 1, HasTag: true, Msg: "state_transition"},
	}
	if err := emitter.EmitBatch(nil, events); err != nil {
		t.Fatalf("EmitBatch: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Errorf("expected 2 lines, got %d", len(lines))
	}
}

func TestLogEmitterDefaultsToStdoutOnNilWriter(t *testing.T) {
	emitter := NewLogEmitter(nil, false)
	if emitter.writer == nil {
		t.Fatal("expected writer to default to os.Stdout, got nil")
	}
}

func TestLogEmitterInterfaceContract(t *testing.T) {
	var buf bytes.Buffer
	var _ Emitter = NewLogEmitter(&buf, false)
}
