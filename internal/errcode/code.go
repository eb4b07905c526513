// Package errcode defines the stable error-code taxonomy shared by every
// core component (lease manager, pipeline, queue, and the external
// collaborator adapters). It deliberately uses string constants rather
// than an iota-based enum, the same choice the teacher made for workflow
// event names, so codes round-trip cleanly through JSON and log output.
package errcode

// Code identifies the kind of failure a stage or collaborator produced.
type Code string

const (
	// init
	PipelineInitFailed Code = "PIPELINE_INIT_FAILED"

	// worktree_create
	WorktreeExists        Code = "WORKTREE_EXISTS"
	WorktreeNotFound      Code = "WORKTREE_NOT_FOUND"
	BranchExists          Code = "BRANCH_EXISTS"
	GitError              Code = "GIT_ERROR"
	PathError             Code = "PATH_ERROR"
	MaxConcurrentExceeded Code = "MAX_CONCURRENT_EXCEEDED"
	AcquireFailed         Code = "ACQUIRE_FAILED"
	WorktreeCreateFailed  Code = "WORKTREE_CREATE_FAILED"

	// ai_analysis / ai_fix
	AIAnalysisFailed Code = "AI_ANALYSIS_FAILED"
	AIFixFailed      Code = "AI_FIX_FAILED"

	// install_deps
	InstallDepsFailed Code = "INSTALL_DEPS_FAILED"

	// checks
	CheckFailed          Code = "CHECK_FAILED"
	CheckTimeout         Code = "CHECK_TIMEOUT"
	CheckDependencyError Code = "CHECK_DEPENDENCY_ERROR"

	// commit
	WorktreeGitError Code = "WORKTREE_GIT_ERROR"

	// pr_create
	PRCreateFailed  Code = "PR_CREATE_FAILED"
	PRExists        Code = "PR_EXISTS"
	AuthFailed      Code = "AUTH_FAILED"
	BranchNotFound  Code = "BRANCH_NOT_FOUND"
	ValidationFailed Code = "VALIDATION_FAILED"
	APIError        Code = "API_ERROR"

	// issue_update
	IssueUpdateFailed Code = "ISSUE_UPDATE_FAILED"
	NotFound          Code = "NOT_FOUND"
	RateLimited       Code = "RATE_LIMITED"

	// cleanup
	WorktreeRemoveFailed Code = "WORKTREE_REMOVE_FAILED"

	// any / transient-network fallback, not in the spec's table by name
	// but required by §6's "network errors -> retryable" rule.
	NetworkError Code = "NETWORK_ERROR"

	// generic fallbacks
	PipelineFailed      Code = "PIPELINE_FAILED"
	PipelineInterrupted Code = "PIPELINE_INTERRUPTED"
	PipelineTimeout     Code = "PIPELINE_TIMEOUT"
	Unknown             Code = "UNKNOWN"
)

// retryable is the recoverable set from §7's propagation policy: if the
// queue sees one of these codes and attempts remain, it schedules a
// retry instead of terminating the item as failed.
var retryable = map[Code]bool{
	AIAnalysisFailed: true,
	AIFixFailed:      true,
	CheckFailed:      true,
	CheckTimeout:     true,
	RateLimited:      true,
	APIError:         true, // only transient (5xx) API errors reach this code; see tracker package
	NetworkError:     true,
}

// Retryable reports whether a failure bearing this code should be retried
// by the queue, attempts permitting.
func (c Code) Retryable() bool {
	return retryable[c]
}
