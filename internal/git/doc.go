// Package git wraps git CLI operations used by branch, diff, and worktree management.
package git
