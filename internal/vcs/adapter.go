// Package vcs defines the narrow version-control / working-copy
// capability the worktree lease manager depends on, plus a default
// adapter backed by the git CLI.
package vcs

import "context"

// WorktreeInfo describes one working copy known to the underlying
// version-control system.
type WorktreeInfo struct {
	Path       string
	Branch     string
	HeadCommit string
}

// Adapter is the narrow capability interface the lease manager consumes.
// Replacing the implementation (e.g. swapping git for another VCS)
// requires no changes inside the lease manager or pipeline.
type Adapter interface {
	// Fetch updates the named remote (empty means the default remote).
	Fetch(ctx context.Context, remote string) error

	// CreateWorktree creates a working copy at path, checked out to
	// branch, branched from base. Atomic from the caller's standpoint:
	// either a usable working copy exists at path on return, or an error
	// is returned and nothing lingers at path.
	CreateWorktree(ctx context.Context, path, branch, base string) error

	// RemoveWorktree removes the working copy at path. force removes it
	// even with uncommitted changes present.
	RemoveWorktree(ctx context.Context, path string, force bool) error

	// DeleteBranch deletes the named local branch. force deletes even
	// an unmerged branch.
	DeleteBranch(ctx context.Context, branch string, force bool) error

	// ListWorktrees returns every working copy known to the VCS, not
	// just those with a live lease.
	ListWorktrees(ctx context.Context) ([]WorktreeInfo, error)

	// BranchExists reports whether the named local branch exists.
	BranchExists(ctx context.Context, branch string) (bool, error)

	// HasUncommittedChanges reports whether the working copy at path has
	// uncommitted changes. If the probe itself fails, implementations
	// MUST report (false, err) and let the caller decide how to treat a
	// failed probe — the lease manager treats a failed probe as clean.
	HasUncommittedChanges(ctx context.Context, path string) (bool, error)

	// Exec runs an arbitrary VCS subcommand inside the working copy at
	// path, returning stdout, stderr, and the process exit code.
	Exec(ctx context.Context, path string, args ...string) (stdout, stderr string, exitCode int, err error)
}
