// Package lease implements the worktree lease manager: a bounded pool of
// isolated working copies of the source repository, keyed by branch
// name, handed out to pipeline invocations and reclaimed on release.
package lease

import (
	"context"
	"time"
)

// Status is the lifecycle status a lease's working copy can carry. The
// pipeline annotates its lease via UpdateStatus as it moves through
// stages; the manager itself only assigns StatusReady on acquire.
type Status string

const (
	StatusReady     Status = "ready"
	StatusInUse     Status = "in_use"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Worktree describes the working copy a Lease owns.
type Worktree struct {
	Path           string
	Branch         string
	Status         Status
	CreatedAt      time.Time
	LastActivityAt time.Time
	IssueNumbers   []int
	HeadCommit     string
}

// Lease is an outstanding permit to use a working copy, held by one
// pipeline invocation. Release is idempotent: calling it more than once
// is a no-op, not an error.
type Lease struct {
	ID         string
	Worktree   Worktree
	AcquiredAt time.Time

	manager *Manager
}

// Release returns the working copy to the manager, removing it from
// disk and keeping the branch. It is equivalent to
// Manager.Release(ctx, lease.ID) and is safe to call more than once.
func (l *Lease) Release(ctx context.Context) error {
	return l.manager.Release(ctx, l.ID)
}
