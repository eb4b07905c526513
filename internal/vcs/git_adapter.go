package vcs

import (
	"context"
	"fmt"

	"github.com/oakbranch-dev/raven-remediator/internal/git"
)

// GitAdapter is the default Adapter, backed by the teacher's git CLI
// wrapper. root is the canonical repository's working directory — the
// one that fetch, worktree add/remove/list, and branch delete operate
// against. Per-worktree operations (status probes, arbitrary exec) are
// scoped to the worktree's own path via an ad-hoc *git.GitClient, since
// every worktree shares the same .git but has its own HEAD.
type GitAdapter struct {
	root *git.GitClient
}

var _ Adapter = (*GitAdapter)(nil)

// NewGitAdapter wraps an existing *git.GitClient rooted at the canonical
// repository.
func NewGitAdapter(root *git.GitClient) *GitAdapter {
	return &GitAdapter{root: root}
}

func (a *GitAdapter) Fetch(ctx context.Context, remote string) error {
	return a.root.Fetch(ctx, remote)
}

func (a *GitAdapter) CreateWorktree(ctx context.Context, path, branch, base string) error {
	if err := a.root.AddWorktree(ctx, path, branch, base); err != nil {
		return fmt.Errorf("vcs: create worktree: %w", err)
	}
	return nil
}

func (a *GitAdapter) RemoveWorktree(ctx context.Context, path string, force bool) error {
	if err := a.root.RemoveWorktree(ctx, path, force); err != nil {
		return fmt.Errorf("vcs: remove worktree: %w", err)
	}
	return nil
}

func (a *GitAdapter) DeleteBranch(ctx context.Context, branch string, force bool) error {
	if err := a.root.DeleteBranch(ctx, branch, force); err != nil {
		return fmt.Errorf("vcs: delete branch: %w", err)
	}
	return nil
}

func (a *GitAdapter) ListWorktrees(ctx context.Context) ([]WorktreeInfo, error) {
	infos, err := a.root.ListWorktrees(ctx)
	if err != nil {
		return nil, fmt.Errorf("vcs: list worktrees: %w", err)
	}
	out := make([]WorktreeInfo, len(infos))
	for i, wi := range infos {
		out[i] = WorktreeInfo{Path: wi.Path, Branch: wi.Branch, HeadCommit: wi.HeadCommit}
	}
	return out, nil
}

func (a *GitAdapter) BranchExists(ctx context.Context, branch string) (bool, error) {
	return a.root.BranchExists(ctx, branch)
}

// HasUncommittedChanges scopes a status probe to path by constructing a
// client bound to that directory. A probe failure is returned verbatim;
// the lease manager, not this adapter, decides to treat it as clean.
func (a *GitAdapter) HasUncommittedChanges(ctx context.Context, path string) (bool, error) {
	client := &git.GitClient{WorkDir: path, GitBin: a.root.GitBin}
	return client.HasUncommittedChanges(ctx)
}

func (a *GitAdapter) Exec(ctx context.Context, path string, args ...string) (string, string, int, error) {
	client := &git.GitClient{WorkDir: path, GitBin: a.root.GitBin}
	return client.ExecIn(ctx, args...)
}
