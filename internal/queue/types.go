// Package queue implements the bounded, retrying dispatcher that drives the
// remediation pipeline over a set of groups: up to maxConcurrent pipeline
// invocations in flight at once, each item retried on a retryable failure
// with exponential backoff and jitter, until it reaches a terminal state.
package queue

import (
	"context"
	"time"

	"github.com/oakbranch-dev/raven-remediator/internal/remediation"
)

// ProcessorFunc runs one attempt of one group and returns its result. It
// mirrors remediation.Pipeline.ProcessGroup's contract exactly: never
// panics, never returns a Go error of its own.
type ProcessorFunc func(ctx context.Context, group remediation.Group, attempt int) *remediation.PipelineResult

// Status is the lifecycle state of one queued item.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusRetrying   Status = "retrying"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Item tracks one group's progress through the queue, including every
// attempt's result.
type Item struct {
	Group   remediation.Group
	Status  Status
	Attempt int
	Result  *remediation.PipelineResult

	QueuedAt time.Time
}

// EventType identifies the kind of lifecycle event emitted for an item.
type EventType string

const (
	EventItemQueued    EventType = "item_queued"
	EventItemStarted   EventType = "item_started"
	EventItemRetrying  EventType = "item_retrying"
	EventItemCompleted EventType = "item_completed"
	EventItemFailed    EventType = "item_failed"
)

// Event is the value delivered to every subscriber registered via On.
// Per-item events are emitted in the order
// {queued, started, (retrying >= 0 times), (completed | failed)}.
type Event struct {
	Type      EventType
	Group     remediation.Group
	Timestamp time.Time

	Attempt int // set for item_started, item_retrying, item_completed, item_failed

	Result *remediation.PipelineResult // set for item_completed

	Error   string // set for item_failed and item_retrying
	DelayMs int64  // set for item_retrying
}

// Stats is a point-in-time snapshot of the queue's item counts.
type Stats struct {
	Total      int
	Queued     int
	Processing int
	Completed  int
	Failed     int
}
