package emit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LogEmitter writes structured event output to an io.Writer, either as
// human-readable text or as JSON Lines (ground: graph/emit/log.go).
//
// Example text output:
//
//	[state_transition] tag=3 instr=12 meta={"from":"MR","to":"N"}
//
// Example JSON output:
//
//	{"instructionID":12,"tag":3,"hasTag":true,"pendingCount":0,"msg":"dispatch"}
type LogEmitter struct {
	writer   io.Writer
	jsonMode bool
}

// NewLogEmitter creates a LogEmitter. If writer is nil, it defaults to
// os.Stdout. jsonMode selects JSON Lines output instead of text.
func NewLogEmitter(writer io.Writer, jsonMode bool) *LogEmitter {
	if writer == nil {
		writer = os.Stdout
	}
	return &LogEmitter{writer: writer, jsonMode: jsonMode}
}

// Emit writes a single event in the configured format.
func (l *LogEmitter) Emit(event Event) {
	if l.jsonMode {
		l.emitJSON(event)
		return
	}
	l.emitText(event)
}

func (l *LogEmitter) emitJSON(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		_, _ = fmt.Fprintf(l.writer, "{\"error\":\"failed to marshal event: %v\"}\n", err)
		return
	}
	_, _ = fmt.Fprintf(l.writer, "%s\n", data)
}

func (l *LogEmitter) emitText(event Event) {
	_, _ = fmt.Fprintf(l.writer, "[%s]", event.Msg)
	if event.HasTag {
		_, _ = fmt.Fprintf(l.writer, " tag=%d", event.Tag)
	}
	if event.InstructionID != 0 {
		_, _ = fmt.Fprintf(l.writer, " instr=%d", event.InstructionID)
	}
	if len(event.Meta) > 0 {
		metaJSON, err := json.Marshal(event.Meta)
		if err == nil {
			_, _ = fmt.Fprintf(l.writer, " meta=%s", metaJSON)
		} else {
			_, _ = fmt.Fprintf(l.writer, " meta=%v", event.Meta)
		}
	}
	_, _ = fmt.Fprint(l.writer, "\n")
}

// EmitBatch writes every event in order. Always returns nil: LogEmitter
// writes synchronously and has no failure mode beyond a per-event marshal
// error, which is already handled inline by emitJSON.
func (l *LogEmitter) EmitBatch(_ context.Context, events []Event) error {
	for _, event := range events {
		l.Emit(event)
	}
	return nil
}

// Flush is a no-op: LogEmitter performs unbuffered synchronous writes. If
// the underlying writer buffers (e.g. bufio.Writer), flush that directly.
func (l *LogEmitter) Flush(context.Context) error { return nil }
