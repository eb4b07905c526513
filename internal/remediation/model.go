// Package remediation implements the fixed-stage issue-remediation
// pipeline: the one non-trivial state machine at the core of this
// repository. It drives one IssueGroup through eleven strictly ordered
// stages by wrapping internal/workflow's general Engine/Registry machinery,
// rather than hand-rolling a bespoke sequential runner.
package remediation

import (
	"time"

	"github.com/oakbranch-dev/raven-remediator/internal/codeagent"
	"github.com/oakbranch-dev/raven-remediator/internal/errcode"
	"github.com/oakbranch-dev/raven-remediator/internal/checkrunner"
	"github.com/oakbranch-dev/raven-remediator/internal/tracker"
)

// Issue is a single tracked issue belonging to a Group.
type Issue struct {
	Number        int
	Title         string
	Body          string
	Labels        []string
	Type          string
	Priority      string
	Assignees     []string
	RelatedFiles  []string
	RelatedIssues []int
	AcceptanceCriteria []string
	SourceURL     string
}

// Group is the immutable input to one pipeline invocation: a cohesive
// bundle of issues sharing one branch and one eventual review request.
// Its branch name MUST match fix/<slug>[-<n1-n2-n3>[-and-more]] and its
// issue list MUST be non-empty; these are caller-enforced invariants, not
// re-validated by the pipeline itself.
type Group struct {
	ID           string
	DisplayName  string
	GroupingKey  string
	BranchName   string
	Issues       []Issue

	Components       []string
	AggregatePriority string
	RelatedFiles     []string // merged across all member issues
}

// Stage is one of the eleven fixed phases of the pipeline.
type Stage string

const (
	StageInit           Stage = "init"
	StageWorktreeCreate Stage = "worktree_create"
	StageAIAnalysis     Stage = "ai_analysis"
	StageAIFix          Stage = "ai_fix"
	StageInstallDeps    Stage = "install_deps"
	StageChecks         Stage = "checks"
	StageCommit         Stage = "commit"
	StagePRCreate       Stage = "pr_create"
	StageIssueUpdate    Stage = "issue_update"
	StageCleanup        Stage = "cleanup"
	StageDone           Stage = "done"
)

// Status is the terminal verdict of a PipelineResult.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// PullRequestInfo captures the upstream review request opened by pr_create.
type PullRequestInfo struct {
	URL    string
	Number int
}

// ErrorDetail aggregates {stage, code, message, cause} for a pipeline
// failure, per spec §4.2's "the pipeline aggregates ... into the result's
// errorDetails" requirement.
type ErrorDetail struct {
	Stage   Stage
	Code    errcode.Code
	Message string
	Cause   error
}

// PipelineResult is the value Pipeline.ProcessGroup always returns —
// ProcessGroup never panics or returns a Go error of its own; every failure
// is reflected here.
type PipelineResult struct {
	Group        Group
	Status       Status
	Attempt      int
	DurationMs   int64
	StartedAt    time.Time
	CompletedAt  time.Time
	PullRequest  *PullRequestInfo
	CheckReport  *checkrunner.Report
	ErrorSummary string
	ErrorDetail  *ErrorDetail
}

// pipelineContext is the mutable per-invocation scratch state threaded
// through workflow.WorkflowState.Metadata under metadataKey. It is mutated
// only by the pipeline's own step handlers, only on the goroutine running
// that invocation.
type pipelineContext struct {
	group   Group
	attempt int
	dryRun  bool

	startedAt time.Time

	lease          *leaseHandle
	analysis       *codeagent.AnalyzeResult
	fix            *codeagent.ApplyResult
	checkReport    *checkrunner.Report
	pullRequest    *tracker.ReviewRequestResult

	result *PipelineResult
}

// leaseHandle is a narrow view of the lease this invocation holds, kept
// here (rather than importing internal/lease.Lease directly into the
// exported data model) so callers of PipelineResult never need the lease
// package in scope.
type leaseHandle struct {
	id   string
	path string
}

// metadataKey is the single key the pipeline's step handlers use to stash
// the pipelineContext inside workflow.WorkflowState.Metadata.
const metadataKey = "remediation_ctx"
