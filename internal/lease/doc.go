// Package lease implements the worktree lease manager: a bounded pool of isolated working copies keyed by branch name.
package lease
