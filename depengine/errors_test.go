package depengine

import (
	"testing"

	"github.com/cse599-dlsys/depengine/emit"
)

func TestStateString(t *testing.T) {
	cases := map[state]string{stateN: "N", stateR: "R", stateMR: "MR"}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("state(%d).String() = %q, want %q", s, got, want)
		}
	}
}

func TestIllegalStateTransitionErrorMessage(t *testing.T) {
	err := &IllegalStateTransitionError{Tag: Tag(3), From: stateMR, To: "restore"}
	want := "depengine: illegal state transition on tag(3): MR -> restore"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

// TestFatalfPanics verifies the single invariant-violation choke point
// panics with the typed error rather than returning, so a caller cannot
// accidentally swallow a broken state machine.
func TestFatalfPanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected fatalf to panic")
		}
		if _, ok := r.(*IllegalStateTransitionError); !ok {
			t.Fatalf("expected *IllegalStateTransitionError, got %T", r)
		}
	}()
	fatalf(Tag(1), stateR, "N")
}

// TestToStateLockedRejectsIllegalTransition verifies the transition table
// in the resource state machine: N can only restore to MR, never to R.
func TestToStateLockedRejectsIllegalTransition(t *testing.T) {
	r := newResourceStateQueue(Tag(1), &atomicBool{}, &atomicBool{}, newUnboundedDispatcher(), emitter{sink: emit.NullEmitter{}}, nil)
	r.state = stateN

	defer func() {
		if recover() == nil {
			t.Fatal("expected illegal N->R transition to panic")
		}
	}()
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	r.toStateLocked(stateR)
}
