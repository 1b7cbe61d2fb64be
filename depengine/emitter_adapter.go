package depengine

import "github.com/cse599-dlsys/depengine/emit"

// event is the engine's internal event shape. emitter converts it to
// emit.Event at the point of emission. No check is made for which Emitter
// is configured: every event, including any Meta map its caller builds, is
// constructed and handed to the sink even when that sink is the default
// NullEmitter.
type event struct {
	instructionID uint64
	tag           Tag
	hasTag        bool
	pendingCount  int
	msg           string
	meta          map[string]any
}

// emitter wraps an emit.Emitter with the conversion from the engine's
// internal event shape to the public emit.Event, and is itself unexported
// so only Engine/Instruction/resourceStateQueue construct and use it.
type emitter struct {
	sink emit.Emitter
}

func (e emitter) emit(ev event) {
	e.sink.Emit(emit.Event{
		InstructionID: ev.instructionID,
		Tag:           uint64(ev.tag),
		HasTag:        ev.hasTag,
		PendingCount:  ev.pendingCount,
		Msg:           ev.msg,
		Meta:          ev.meta,
	})
}

func tagEvent(t Tag, msg string, meta map[string]any) event {
	return event{tag: t, hasTag: true, msg: msg, meta: meta}
}
