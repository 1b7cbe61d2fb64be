package depengine

import "sync/atomic"

// atomicBool is the shared stop flag every RSQ listener polls, matching
// the std::atomic<bool> shouldStop reference threaded through every
// ResourceStateQueue in the original source.
type atomicBool struct {
	v atomic.Bool
}

func (b *atomicBool) load() bool   { return b.v.Load() }
func (b *atomicBool) store(v bool) { b.v.Store(v) }
