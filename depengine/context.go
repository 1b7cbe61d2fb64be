package depengine

import "context"

// contextKey is a private type used for context value keys to avoid
// collisions with keys from other packages, following Go's context
// best practices (ground: graph/engine.go's contextKey in the teacher).
type contextKey string

const (
	// InstructionIDKey is the context key for the dispatched instruction's
	// identifier, injected into the ctx passed to Callback.
	InstructionIDKey contextKey = "depengine.instruction_id"

	// ReadTagsKey and MutateTagsKey expose the instruction's declared
	// tag sets to the callback, so a callback can assert at runtime that
	// it only touches tags it declared (useful in tests and debug builds).
	ReadTagsKey   contextKey = "depengine.read_tags"
	MutateTagsKey contextKey = "depengine.mutate_tags"

	// DispatchTagKey is the tag of the RSQ that performed the dispatch —
	// i.e., the one that observed the pending counter reach zero. It is
	// informational only; which RSQ wins the race is unspecified by the
	// engine's contract (spec Invariant I-2).
	DispatchTagKey contextKey = "depengine.dispatch_tag"
)

// withInstructionContext enriches ctx with the metadata a host framework
// would want visible to the callback, mirroring the teacher's pattern of
// injecting RunIDKey/StepIDKey/NodeIDKey into the node's context.
func withInstructionContext(ctx context.Context, i *Instruction, dispatchTag Tag) context.Context {
	ctx = context.WithValue(ctx, InstructionIDKey, i.id)
	ctx = context.WithValue(ctx, ReadTagsKey, i.readTags.slice())
	ctx = context.WithValue(ctx, MutateTagsKey, i.mutateTags.slice())
	ctx = context.WithValue(ctx, DispatchTagKey, dispatchTag)
	return ctx
}
