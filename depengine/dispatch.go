package depengine

import "sync"

// dispatcher runs a ready callback on a worker goroutine. It resolves the
// open question in SPEC_FULL.md §9/§4.7: the original spawns an unjoined
// thread per instruction; this module offers that as the default and adds
// a bounded alternative, selected via WithWorkerPoolSize.
//
// Both implementations track in-flight work with a sync.WaitGroup so
// Engine.Stop can block until every dispatched callback has returned.
type dispatcher interface {
	// run executes fn on a worker goroutine, never inline: fn always runs
	// off the calling goroutine, and run returns without waiting for fn or
	// for pool admission, so the RSQ listener is never blocked by either.
	run(fn func())
	// wait blocks until every dispatched fn has returned.
	wait()
}

// unboundedDispatcher spawns a fresh goroutine per call, exactly like the
// original source's std::thread per instruction (ground: original_source's
// ResourceStateQueue.cpp workThreads).
type unboundedDispatcher struct {
	wg sync.WaitGroup
}

func newUnboundedDispatcher() *unboundedDispatcher {
	return &unboundedDispatcher{}
}

func (d *unboundedDispatcher) run(fn func()) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		fn()
	}()
}

func (d *unboundedDispatcher) wait() {
	d.wg.Wait()
}

// pooledDispatcher bounds concurrent callback execution to n goroutines
// using a buffered channel as a counting semaphore (ground: the
// concurrencySem pattern in the pack's task-queue worker pool reference).
// Admission (acquiring a semaphore slot) happens on a goroutine spawned by
// run, not on the caller's goroutine, so a full pool blocks only that
// short-lived admission goroutine and never the RSQ listener that called
// run — preserving the per-tag FIFO ordering guarantee.
type pooledDispatcher struct {
	sem chan struct{}
	wg  sync.WaitGroup
}

func newPooledDispatcher(n int) *pooledDispatcher {
	if n <= 0 {
		n = 1
	}
	return &pooledDispatcher{sem: make(chan struct{}, n)}
}

func (d *pooledDispatcher) run(fn func()) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.sem <- struct{}{}
		defer func() { <-d.sem }()
		fn()
	}()
}

func (d *pooledDispatcher) wait() {
	d.wg.Wait()
}

func newDispatcher(workerPoolSize int) dispatcher {
	if workerPoolSize <= 0 {
		return newUnboundedDispatcher()
	}
	return newPooledDispatcher(workerPoolSize)
}
