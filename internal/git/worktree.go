package git

import (
	"context"
	"fmt"
	"strings"
)

// WorktreeInfo describes one working copy as reported by
// `git worktree list --porcelain`.
type WorktreeInfo struct {
	// Path is the absolute path to the working copy.
	Path string
	// Branch is the local branch checked out in the working copy. Empty
	// for a detached-HEAD worktree.
	Branch string
	// HeadCommit is the SHA currently checked out.
	HeadCommit string
}

// AddWorktree creates a new working copy at path, checking out a new
// branch named branch based on the tip of base. If a local branch named
// branch already exists, it is not deleted; `git worktree add -B`
// force-moves the existing branch ref to base.
func (g *GitClient) AddWorktree(ctx context.Context, path, branch, base string) error {
	args := []string{"worktree", "add", "-B", branch, path}
	if base != "" {
		args = append(args, base)
	}
	if _, err := g.run(ctx, args...); err != nil {
		return fmt.Errorf("git: worktree add %q (branch %q): %w", path, branch, err)
	}
	return nil
}

// RemoveWorktree removes the working copy at path. When force is true,
// uncommitted changes in the working copy do not block removal. Removing
// a path that is not a registered worktree is not an error as long as
// force is true and git accepts --force; callers that need "no-op for
// unknown path" semantics should check ListWorktrees first.
func (g *GitClient) RemoveWorktree(ctx context.Context, path string, force bool) error {
	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, path)
	if _, err := g.run(ctx, args...); err != nil {
		return fmt.Errorf("git: worktree remove %q: %w", path, err)
	}
	return nil
}

// DeleteBranch deletes the named local branch. When force is true the
// branch is deleted even if it has not been merged (-D instead of -d).
func (g *GitClient) DeleteBranch(ctx context.Context, branch string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	if _, err := g.run(ctx, "branch", flag, branch); err != nil {
		return fmt.Errorf("git: delete branch %q: %w", branch, err)
	}
	return nil
}

// PruneWorktrees removes administrative files for worktrees whose working
// directory has been deleted out from under git (e.g. by `rm -rf`).
func (g *GitClient) PruneWorktrees(ctx context.Context) error {
	if _, err := g.run(ctx, "worktree", "prune"); err != nil {
		return fmt.Errorf("git: worktree prune: %w", err)
	}
	return nil
}

// ListWorktrees returns every working copy known to git, parsed from the
// porcelain block format of `git worktree list --porcelain`. Blocks are
// separated by a blank line; within a block, lines of the form
// "worktree <path>", "HEAD <sha>", and "branch <refs/heads/name>"
// contribute to one record. A block with no "branch" line (detached HEAD)
// is skipped, matching the lease manager's requirement that only
// branch-backed working copies are reportable leases.
func (g *GitClient) ListWorktrees(ctx context.Context) ([]WorktreeInfo, error) {
	out, err := g.run(ctx, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("git: worktree list: %w", err)
	}
	return parseWorktreePorcelain(out), nil
}

// parseWorktreePorcelain parses the porcelain output of
// `git worktree list --porcelain` into WorktreeInfo records.
func parseWorktreePorcelain(out string) []WorktreeInfo {
	var infos []WorktreeInfo

	var cur WorktreeInfo
	haveBranch := false
	flush := func() {
		if cur.Path != "" && haveBranch {
			infos = append(infos, cur)
		}
		cur = WorktreeInfo{}
		haveBranch = false
	}

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			flush()
			continue
		}
		switch {
		case strings.HasPrefix(line, "worktree "):
			cur.Path = strings.TrimPrefix(line, "worktree ")
		case strings.HasPrefix(line, "HEAD "):
			cur.HeadCommit = strings.TrimPrefix(line, "HEAD ")
		case strings.HasPrefix(line, "branch "):
			ref := strings.TrimPrefix(line, "branch ")
			cur.Branch = strings.TrimPrefix(ref, "refs/heads/")
			haveBranch = true
		}
	}
	flush()

	return infos
}

// ExecIn runs an arbitrary git subcommand inside the working copy and
// returns stdout, stderr, and the process exit code. It distinguishes
// "git exited non-zero" (exitCode > 0) from "the binary could not be
// started at all" (exitCode == -1), exactly as runSilent does for every
// other operation in this package.
func (g *GitClient) ExecIn(ctx context.Context, args ...string) (stdout, stderr string, exitCode int, err error) {
	exitCode, stdout, stderr, err = g.runSilent(ctx, args...)
	return stdout, stderr, exitCode, err
}
