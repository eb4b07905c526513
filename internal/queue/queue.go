package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/oakbranch-dev/raven-remediator/internal/remediation"
)

// ErrNoProcessor is returned by Start when no processor function has been
// configured via SetProcessor.
var ErrNoProcessor = errors.New("queue: no processor function set")

const (
	defaultMaxConcurrent  = 3
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 2 * time.Second
	defaultMaxBackoff     = 60 * time.Second
)

// Queue drives remediation.Pipeline.ProcessGroup over a set of groups with
// bounded concurrency and retry-with-backoff: a worker pool pulls from a
// FIFO of pending groups, requeuing a retryable failure with backoff instead
// of discarding it.
type Queue struct {
	maxConcurrent  int
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *log.Logger

	processor ProcessorFunc

	mu       sync.Mutex
	cond     *sync.Cond
	pending  []*Item
	all      []*Item
	active   int
	paused   bool
	stopping bool
	forceStopped bool
	cancel   context.CancelFunc

	interrupt *remediation.Interrupter

	subMu       sync.Mutex
	subscribers map[int]func(Event)
	subSeq      int
}

// Option configures a Queue at construction time.
type Option func(*Queue)

// WithBackoff overrides the base and max retry delay (defaults 2s / 60s).
func WithBackoff(initial, max time.Duration) Option {
	return func(q *Queue) {
		q.initialBackoff = initial
		q.maxBackoff = max
	}
}

// WithLogger attaches a component logger, matching every other new package.
func WithLogger(logger *log.Logger) Option {
	return func(q *Queue) { q.logger = logger }
}

// New creates a Queue. maxConcurrent and maxAttempts default to 3 and 3
// when given as zero or negative.
func New(maxConcurrent, maxAttempts int, opts ...Option) *Queue {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	q := &Queue{
		maxConcurrent:  maxConcurrent,
		maxAttempts:    maxAttempts,
		initialBackoff: defaultInitialBackoff,
		maxBackoff:     defaultMaxBackoff,
		subscribers:    make(map[int]func(Event)),
	}
	q.cond = sync.NewCond(&q.mu)
	q.interrupt = remediation.NewInterrupter()
	q.interrupt.OnCleanup(q.failRemainingPending)
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Interrupter returns the queue's cooperative-cancellation facility, shared
// with the processor so long-running stage implementations can poll it
// between steps rather than only reacting to context cancellation.
func (q *Queue) Interrupter() *remediation.Interrupter {
	return q.interrupt
}

// failRemainingPending is registered as the Interrupter's cleanup callback:
// it drains whatever is still pending and marks it failed instead of
// silently dropping it.
func (q *Queue) failRemainingPending() {
	q.mu.Lock()
	remaining := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, item := range remaining {
		q.mu.Lock()
		item.Status = StatusFailed
		q.mu.Unlock()
		q.emit(Event{Type: EventItemFailed, Group: item.Group, Timestamp: now(), Error: "queue force-stopped"})
	}
}

// SetProcessor supplies the per-group processing function.
func (q *Queue) SetProcessor(fn ProcessorFunc) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.processor = fn
}

// Enqueue appends groups to the pending set, emitting one item_queued event
// per group, in order.
func (q *Queue) Enqueue(groups []remediation.Group) {
	q.mu.Lock()
	items := make([]*Item, 0, len(groups))
	for _, g := range groups {
		item := &Item{Group: g, Status: StatusQueued, QueuedAt: now()}
		q.pending = append(q.pending, item)
		q.all = append(q.all, item)
		items = append(items, item)
	}
	q.cond.Broadcast()
	q.mu.Unlock()

	for _, item := range items {
		q.emit(Event{Type: EventItemQueued, Group: item.Group, Timestamp: item.QueuedAt})
	}
}

// Start begins dispatching and blocks until every item has reached a
// terminal state, forceStop is called, or ctx is cancelled. It returns the
// results accumulated so far.
func (q *Queue) Start(ctx context.Context) ([]*remediation.PipelineResult, error) {
	q.mu.Lock()
	if q.processor == nil {
		q.mu.Unlock()
		return nil, ErrNoProcessor
	}
	runCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	q.mu.Unlock()
	defer cancel()

	var wg sync.WaitGroup

	// watcher cancels runCtx if the caller's ctx is cancelled, waking the
	// dispatcher loop below via the same mechanism as forceStop.
	go func() {
		<-ctx.Done()
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	}()

	for {
		q.mu.Lock()
		for {
			if q.forceStopped || ctx.Err() != nil {
				q.mu.Unlock()
				goto drain
			}
			if len(q.pending) == 0 {
				if q.active == 0 {
					q.mu.Unlock()
					goto drain
				}
				q.cond.Wait()
				continue
			}
			if q.paused || q.active >= q.maxConcurrent {
				q.cond.Wait()
				continue
			}
			break
		}

		item := q.pending[0]
		q.pending = q.pending[1:]
		q.active++
		q.mu.Unlock()

		wg.Add(1)
		go func(it *Item) {
			defer wg.Done()
			q.runItem(runCtx, it)
			q.mu.Lock()
			q.active--
			q.cond.Broadcast()
			q.mu.Unlock()
		}(item)
	}

drain:
	q.mu.Lock()
	forced := q.forceStopped
	q.mu.Unlock()
	if !forced {
		wg.Wait()
	}
	return q.GetResults(), nil
}

// runItem drives one item through its full attempt-and-retry lifecycle,
// occupying one concurrency slot for the duration (including backoff
// waits between attempts).
func (q *Queue) runItem(ctx context.Context, item *Item) {
	for attempt := 1; attempt <= q.maxAttempts; attempt++ {
		if q.interrupt.IsInterrupted() {
			q.mu.Lock()
			item.Status = StatusFailed
			q.mu.Unlock()
			q.emit(Event{Type: EventItemFailed, Group: item.Group, Timestamp: now(), Attempt: attempt, Error: "queue force-stopped"})
			return
		}

		q.mu.Lock()
		item.Attempt = attempt
		item.Status = StatusProcessing
		q.mu.Unlock()
		q.emit(Event{Type: EventItemStarted, Group: item.Group, Timestamp: now(), Attempt: attempt})

		result := q.processor(ctx, item.Group, attempt)

		q.mu.Lock()
		item.Result = result
		q.mu.Unlock()

		if result != nil && result.Status != remediation.StatusFailed {
			q.mu.Lock()
			item.Status = StatusCompleted
			q.mu.Unlock()
			q.emit(Event{Type: EventItemCompleted, Group: item.Group, Timestamp: now(), Attempt: attempt, Result: result})
			return
		}

		retryable := result != nil && result.ErrorDetail != nil && result.ErrorDetail.Code.Retryable()
		lastAttempt := attempt >= q.maxAttempts

		if !retryable || lastAttempt {
			errMsg := "unknown error"
			if result != nil && result.ErrorSummary != "" {
				errMsg = result.ErrorSummary
			}
			q.mu.Lock()
			item.Status = StatusFailed
			q.mu.Unlock()
			q.emit(Event{Type: EventItemFailed, Group: item.Group, Timestamp: now(), Attempt: attempt, Error: errMsg})
			return
		}

		delay := computeBackoff(attempt, q.initialBackoff, q.maxBackoff)
		errMsg := ""
		if result != nil {
			errMsg = result.ErrorSummary
		}
		q.mu.Lock()
		item.Status = StatusRetrying
		q.mu.Unlock()
		q.emit(Event{
			Type:      EventItemRetrying,
			Group:     item.Group,
			Timestamp: now(),
			Attempt:   attempt,
			Error:     errMsg,
			DelayMs:   delay.Milliseconds(),
		})

		if q.logger != nil {
			q.logger.Info("queue: retrying item", "group", item.Group.ID, "attempt", attempt, "delay", delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			q.mu.Lock()
			item.Status = StatusFailed
			q.mu.Unlock()
			q.emit(Event{Type: EventItemFailed, Group: item.Group, Timestamp: now(), Attempt: attempt, Error: ctx.Err().Error()})
			return
		}

		if q.interrupt.IsInterrupted() {
			q.mu.Lock()
			item.Status = StatusFailed
			q.mu.Unlock()
			q.emit(Event{Type: EventItemFailed, Group: item.Group, Timestamp: now(), Attempt: attempt, Error: "queue force-stopped"})
			return
		}
	}
}

// Pause stops the queue from dispatching further items once current
// in-flight items finish. Safe to call repeatedly.
func (q *Queue) Pause() {
	q.mu.Lock()
	q.paused = true
	q.cond.Broadcast()
	q.mu.Unlock()
}

// Resume resumes dispatching from where Pause left off.
func (q *Queue) Resume() {
	q.mu.Lock()
	q.paused = false
	q.cond.Broadcast()
	q.mu.Unlock()
}

// Stop requests a graceful shutdown: in-flight items finish, no further
// items are dispatched, and Start's blocked call returns once the last
// in-flight item reaches a terminal state.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.stopping = true
	q.pending = nil
	q.cond.Broadcast()
	q.mu.Unlock()
}

// ForceStop requests an immediate shutdown: Start returns without waiting
// for in-flight items. It sets the queue's Interrupter flag (polled by
// runItem between attempts and backoff waits, and available to the
// processor itself via Interrupter) and runs the Interrupter's registered
// cleanup, which drains the remaining pending items as failed rather than
// dropping them silently. It does not interrupt a processor call already in
// progress — the processor must honor ctx cancellation itself.
func (q *Queue) ForceStop() {
	q.mu.Lock()
	q.forceStopped = true
	cancel := q.cancel
	q.cond.Broadcast()
	q.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	q.interrupt.RequestInterrupt()
	q.interrupt.RunCleanup()
}

// On subscribes handler to every lifecycle event. It returns an unsubscribe
// function.
func (q *Queue) On(handler func(Event)) (unsubscribe func()) {
	q.subMu.Lock()
	id := q.subSeq
	q.subSeq++
	q.subscribers[id] = handler
	q.subMu.Unlock()

	return func() {
		q.subMu.Lock()
		delete(q.subscribers, id)
		q.subMu.Unlock()
	}
}

func (q *Queue) emit(ev Event) {
	q.subMu.Lock()
	handlers := make([]func(Event), 0, len(q.subscribers))
	for _, h := range q.subscribers {
		handlers = append(handlers, h)
	}
	q.subMu.Unlock()
	for _, h := range handlers {
		h(ev)
	}
}

// GetStats returns a point-in-time snapshot of item counts by status.
func (q *Queue) GetStats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	stats := Stats{Total: len(q.all)}
	for _, item := range q.all {
		switch item.Status {
		case StatusQueued:
			stats.Queued++
		case StatusProcessing, StatusRetrying:
			stats.Processing++
		case StatusCompleted:
			stats.Completed++
		case StatusFailed:
			stats.Failed++
		}
	}
	return stats
}

// GetResults returns every item's most recent result, in enqueue order.
// An item with no completed attempt yet is omitted.
func (q *Queue) GetResults() []*remediation.PipelineResult {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*remediation.PipelineResult, 0, len(q.all))
	for _, item := range q.all {
		if item.Result != nil {
			out = append(out, item.Result)
		}
	}
	return out
}

// IsEmpty reports whether the queue has no pending or in-flight items.
func (q *Queue) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending) == 0 && q.active == 0
}

// IsActive reports whether the queue is currently dispatching or has
// in-flight work, and has not been force-stopped.
func (q *Queue) IsActive() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.forceStopped {
		return false
	}
	return len(q.pending) > 0 || q.active > 0
}

func now() time.Time { return time.Now() }
