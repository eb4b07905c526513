// handlers.go contains the eleven StepHandler implementations backing the
// remediation pipeline's fixed stage order. Each handler reads and writes
// the invocation's pipelineContext, stashed in WorkflowState.Metadata by
// initHandler and read back by every later stage. Following the teacher's
// workflow handler convention, a handler whose required Pipeline dependency
// is nil returns EventFailure with a descriptive error rather than panicking,
// so handlers can be registered before runtime wiring is complete.
package remediation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oakbranch-dev/raven-remediator/internal/checkrunner"
	"github.com/oakbranch-dev/raven-remediator/internal/codeagent"
	"github.com/oakbranch-dev/raven-remediator/internal/errcode"
	"github.com/oakbranch-dev/raven-remediator/internal/lease"
	"github.com/oakbranch-dev/raven-remediator/internal/tracker"
	"github.com/oakbranch-dev/raven-remediator/internal/workflow"
)

var (
	_ workflow.StepHandler = (*initHandler)(nil)
	_ workflow.StepHandler = (*worktreeCreateHandler)(nil)
	_ workflow.StepHandler = (*aiAnalysisHandler)(nil)
	_ workflow.StepHandler = (*aiFixHandler)(nil)
	_ workflow.StepHandler = (*installDepsHandler)(nil)
	_ workflow.StepHandler = (*checksHandler)(nil)
	_ workflow.StepHandler = (*commitHandler)(nil)
	_ workflow.StepHandler = (*prCreateHandler)(nil)
	_ workflow.StepHandler = (*issueUpdateHandler)(nil)
	_ workflow.StepHandler = (*cleanupHandler)(nil)
	_ workflow.StepHandler = (*doneHandler)(nil)
)

func pctx(state *workflow.WorkflowState) *pipelineContext {
	pc, _ := state.Metadata[metadataKey].(*pipelineContext)
	return pc
}

// fail builds the EventFailure return value and records the error detail on
// the invocation's pipelineContext so cleanup/done can read it back.
func fail(pc *pipelineContext, stage Stage, code errcode.Code, cause error) (string, error) {
	if pc != nil {
		pc.result = &PipelineResult{
			Group:       pc.group,
			Status:      StatusFailed,
			Attempt:     pc.attempt,
			ErrorSummary: fmt.Sprintf("%s: %v", stage, cause),
			ErrorDetail: &ErrorDetail{Stage: stage, Code: code, Message: cause.Error(), Cause: cause},
		}
	}
	return workflow.EventFailure, errcode.NewStageError(string(stage), code, "", cause)
}

// -----------------------------------------------------------------------
// init
// -----------------------------------------------------------------------

type initHandler struct {
	p *Pipeline
}

func (h *initHandler) Name() string { return string(StageInit) }

func (h *initHandler) Execute(ctx context.Context, state *workflow.WorkflowState) (string, error) {
	pc, _ := state.Metadata[metadataKey].(*pipelineContext)
	if pc == nil {
		return workflow.EventFailure, errcode.NewStageError(string(StageInit), errcode.PipelineInitFailed, "missing pipeline context", nil)
	}
	pc.startedAt = time.Now()
	return workflow.EventSuccess, nil
}

func (h *initHandler) DryRun(state *workflow.WorkflowState) string { return "record start time" }

// -----------------------------------------------------------------------
// worktree_create
// -----------------------------------------------------------------------

type worktreeCreateHandler struct {
	p *Pipeline
}

func (h *worktreeCreateHandler) Name() string { return string(StageWorktreeCreate) }

func (h *worktreeCreateHandler) Execute(ctx context.Context, state *workflow.WorkflowState) (string, error) {
	pc := pctx(state)
	if h.p.leases == nil {
		return fail(pc, StageWorktreeCreate, errcode.AcquireFailed, fmt.Errorf("worktree_create: no lease manager configured"))
	}

	issueNumbers := make([]int, 0, len(pc.group.Issues))
	for _, iss := range pc.group.Issues {
		issueNumbers = append(issueNumbers, iss.Number)
	}

	acquired, err := h.p.leases.Acquire(ctx, pc.group.BranchName, issueNumbers, h.p.baseBranch)
	if err != nil {
		code := errcode.AcquireFailed
		var ae *lease.AcquireError
		if errors.As(err, &ae) {
			code = ae.Code
		}
		return fail(pc, StageWorktreeCreate, code, err)
	}

	pc.lease = &leaseHandle{id: acquired.ID, path: acquired.Worktree.Path}
	return workflow.EventSuccess, nil
}

func (h *worktreeCreateHandler) DryRun(state *workflow.WorkflowState) string {
	return "acquire a worktree lease"
}

// -----------------------------------------------------------------------
// ai_analysis
// -----------------------------------------------------------------------

type aiAnalysisHandler struct {
	p *Pipeline
}

func (h *aiAnalysisHandler) Name() string { return string(StageAIAnalysis) }

func (h *aiAnalysisHandler) Execute(ctx context.Context, state *workflow.WorkflowState) (string, error) {
	pc := pctx(state)
	if h.p.agent == nil {
		return fail(pc, StageAIAnalysis, errcode.AIAnalysisFailed, fmt.Errorf("ai_analysis: no code-generation agent configured"))
	}

	group := toCodeagentGroup(pc.group)
	analysis, err := h.p.agent.Analyze(ctx, group, pc.lease.path)
	if err != nil {
		return fail(pc, StageAIAnalysis, errcode.AIAnalysisFailed, err)
	}
	pc.analysis = analysis
	return workflow.EventSuccess, nil
}

func (h *aiAnalysisHandler) DryRun(state *workflow.WorkflowState) string {
	return "ask the code-generation agent to analyze the group's issues"
}

// -----------------------------------------------------------------------
// ai_fix
// -----------------------------------------------------------------------

type aiFixHandler struct {
	p *Pipeline
}

func (h *aiFixHandler) Name() string { return string(StageAIFix) }

func (h *aiFixHandler) Execute(ctx context.Context, state *workflow.WorkflowState) (string, error) {
	pc := pctx(state)
	if h.p.agent == nil {
		return fail(pc, StageAIFix, errcode.AIFixFailed, fmt.Errorf("ai_fix: no code-generation agent configured"))
	}

	group := toCodeagentGroup(pc.group)
	fix, err := h.p.agent.Apply(ctx, group, pc.lease.path, pc.analysis)
	if err != nil {
		return fail(pc, StageAIFix, errcode.AIFixFailed, err)
	}
	if !fix.Success || len(fix.FilesModified) == 0 {
		return fail(pc, StageAIFix, errcode.AIFixFailed, fmt.Errorf("ai_fix: agent reported no changes"))
	}

	if h.p.vcs != nil {
		dirty, err := h.p.vcs.HasUncommittedChanges(ctx, pc.lease.path)
		if err == nil && !dirty {
			return fail(pc, StageAIFix, errcode.AIFixFailed, fmt.Errorf("ai_fix: working copy has no uncommitted changes after apply"))
		}
	}

	pc.fix = fix
	return workflow.EventSuccess, nil
}

func (h *aiFixHandler) DryRun(state *workflow.WorkflowState) string {
	return "ask the code-generation agent to apply its suggested fix"
}

// -----------------------------------------------------------------------
// install_deps
// -----------------------------------------------------------------------

type installDepsHandler struct {
	p *Pipeline
}

func (h *installDepsHandler) Name() string { return string(StageInstallDeps) }

func (h *installDepsHandler) Execute(ctx context.Context, state *workflow.WorkflowState) (string, error) {
	pc := pctx(state)
	if h.p.checks == nil {
		return fail(pc, StageInstallDeps, errcode.InstallDepsFailed, fmt.Errorf("install_deps: no check runner configured"))
	}
	if err := h.p.checks.InstallDeps(ctx, pc.lease.path); err != nil {
		return fail(pc, StageInstallDeps, errcode.InstallDepsFailed, err)
	}
	return workflow.EventSuccess, nil
}

func (h *installDepsHandler) DryRun(state *workflow.WorkflowState) string {
	return "install project dependencies in the working copy"
}

// -----------------------------------------------------------------------
// checks
// -----------------------------------------------------------------------

type checksHandler struct {
	p *Pipeline
}

func (h *checksHandler) Name() string { return string(StageChecks) }

// Execute runs {lint, typecheck, test}. Per spec §4.2, a failing verdict is
// a successful call from the engine's point of view: Execute returns
// (EventFailure, nil) rather than a Go error, so the step is recorded as
// "completed with event failure" and the engine looks up the EventFailure
// transition without ever entering the stepErr != nil branch.
func (h *checksHandler) Execute(ctx context.Context, state *workflow.WorkflowState) (string, error) {
	pc := pctx(state)
	if h.p.checks == nil {
		return fail(pc, StageChecks, errcode.CheckDependencyError, fmt.Errorf("checks: no check runner configured"))
	}

	report, err := h.p.checks.RunChecks(ctx, pc.lease.path, h.p.checkNames, h.p.checkFailFast, h.p.checkTimeout, pc.attempt)
	if err != nil {
		return fail(pc, StageChecks, errcode.CheckDependencyError, err)
	}
	pc.checkReport = report

	if !report.Passed {
		code := errcode.CheckFailed
		for _, r := range report.Results {
			if r.Status == checkrunner.StatusTimeout {
				code = errcode.CheckTimeout
				break
			}
		}
		pc.result = &PipelineResult{
			Group:       pc.group,
			Status:      StatusFailed,
			Attempt:     pc.attempt,
			CheckReport: report,
			ErrorSummary: "checks: one or more checks did not pass",
			ErrorDetail: &ErrorDetail{Stage: StageChecks, Code: code, Message: "one or more checks did not pass"},
		}
		return workflow.EventFailure, nil
	}

	return workflow.EventSuccess, nil
}

func (h *checksHandler) DryRun(state *workflow.WorkflowState) string {
	return fmt.Sprintf("run checks %v", h.p.checkNames)
}

// -----------------------------------------------------------------------
// commit
// -----------------------------------------------------------------------

type commitHandler struct {
	p *Pipeline
}

func (h *commitHandler) Name() string { return string(StageCommit) }

func (h *commitHandler) Execute(ctx context.Context, state *workflow.WorkflowState) (string, error) {
	pc := pctx(state)
	if pc.dryRun {
		return workflow.EventSuccess, nil
	}
	if h.p.vcs == nil {
		return fail(pc, StageCommit, errcode.WorktreeGitError, fmt.Errorf("commit: no vcs adapter configured"))
	}

	msg := commitMessage(pc.group, pc.fix)

	if _, _, _, err := h.p.vcs.Exec(ctx, pc.lease.path, "add", "-A"); err != nil {
		return fail(pc, StageCommit, errcode.WorktreeGitError, err)
	}
	if _, stderr, exitCode, err := h.p.vcs.Exec(ctx, pc.lease.path, "commit", "-m", msg); err != nil || exitCode != 0 {
		if err == nil {
			err = fmt.Errorf("git commit exited %d: %s", exitCode, stderr)
		}
		return fail(pc, StageCommit, errcode.WorktreeGitError, err)
	}

	return workflow.EventSuccess, nil
}

func (h *commitHandler) DryRun(state *workflow.WorkflowState) string {
	return "stage all changes and commit"
}

// -----------------------------------------------------------------------
// pr_create
// -----------------------------------------------------------------------

type prCreateHandler struct {
	p *Pipeline
}

func (h *prCreateHandler) Name() string { return string(StagePRCreate) }

func (h *prCreateHandler) Execute(ctx context.Context, state *workflow.WorkflowState) (string, error) {
	pc := pctx(state)
	if pc.dryRun {
		return workflow.EventSuccess, nil
	}
	if h.p.tracker == nil {
		return fail(pc, StagePRCreate, errcode.PRCreateFailed, fmt.Errorf("pr_create: no upstream tracker configured"))
	}

	issueNumbers := make([]int, 0, len(pc.group.Issues))
	for _, iss := range pc.group.Issues {
		issueNumbers = append(issueNumbers, iss.Number)
	}

	result, err := h.p.tracker.CreateReviewRequest(ctx, tracker.ReviewRequest{
		Title:        prTitle(pc.group),
		Body:         prBody(pc.group, pc.analysis, pc.fix),
		HeadBranch:   pc.group.BranchName,
		BaseBranch:   h.p.baseBranch,
		LinkedIssues: issueNumbers,
		Labels:       prLabels(pc.group),
	})
	if err != nil {
		code := errcode.PRCreateFailed
		var te *tracker.TrackerError
		if errors.As(err, &te) {
			code = te.Code
		}
		return fail(pc, StagePRCreate, code, err)
	}

	pc.pullRequest = result
	return workflow.EventSuccess, nil
}

func (h *prCreateHandler) DryRun(state *workflow.WorkflowState) string {
	return "open a review request on the upstream tracker"
}

// -----------------------------------------------------------------------
// issue_update
// -----------------------------------------------------------------------

type issueUpdateHandler struct {
	p *Pipeline
}

func (h *issueUpdateHandler) Name() string { return string(StageIssueUpdate) }

func (h *issueUpdateHandler) Execute(ctx context.Context, state *workflow.WorkflowState) (string, error) {
	pc := pctx(state)
	if pc.dryRun {
		return workflow.EventSuccess, nil
	}
	if h.p.tracker == nil {
		return fail(pc, StageIssueUpdate, errcode.IssueUpdateFailed, fmt.Errorf("issue_update: no upstream tracker configured"))
	}

	prNumber := 0
	if pc.pullRequest != nil {
		prNumber = pc.pullRequest.Number
	}

	for _, iss := range pc.group.Issues {
		if err := h.p.tracker.MarkFixed(ctx, iss.Number, prNumber); err != nil {
			code := errcode.IssueUpdateFailed
			var te *tracker.TrackerError
			if errors.As(err, &te) {
				code = te.Code
			}
			return fail(pc, StageIssueUpdate, code, err)
		}
	}

	return workflow.EventSuccess, nil
}

func (h *issueUpdateHandler) DryRun(state *workflow.WorkflowState) string {
	return "mark member issues fixed and link the review request"
}

// -----------------------------------------------------------------------
// cleanup
// -----------------------------------------------------------------------

type cleanupHandler struct {
	p *Pipeline
}

func (h *cleanupHandler) Name() string { return string(StageCleanup) }

// Execute always runs regardless of which stage preceded it, and always
// releases the lease if one was acquired. A release failure is logged but
// never overwrites an earlier stage's failure code, per spec §7.
func (h *cleanupHandler) Execute(ctx context.Context, state *workflow.WorkflowState) (string, error) {
	pc := pctx(state)
	if pc == nil || pc.lease == nil {
		return workflow.EventSuccess, nil
	}

	succeeded := pc.result == nil
	var releaseErr error
	if succeeded {
		releaseErr = h.p.leases.Release(ctx, pc.lease.id)
	} else {
		releaseErr = h.p.leases.ReleaseAndCleanBranch(ctx, pc.lease.id)
	}

	if releaseErr != nil && h.p.logger != nil {
		h.p.logger.Warn("cleanup: lease release failed", "lease_id", pc.lease.id, "error", releaseErr)
	}

	return workflow.EventSuccess, nil
}

func (h *cleanupHandler) DryRun(state *workflow.WorkflowState) string {
	return "release the worktree lease"
}

// -----------------------------------------------------------------------
// done
// -----------------------------------------------------------------------

type doneHandler struct {
	p *Pipeline
}

func (h *doneHandler) Name() string { return string(StageDone) }

func (h *doneHandler) Execute(ctx context.Context, state *workflow.WorkflowState) (string, error) {
	pc := pctx(state)
	if pc.result == nil {
		pc.result = &PipelineResult{Group: pc.group, Status: StatusCompleted, Attempt: pc.attempt}
		if pc.pullRequest != nil {
			pc.result.PullRequest = &PullRequestInfo{URL: pc.pullRequest.URL, Number: pc.pullRequest.Number}
		}
		pc.result.CheckReport = pc.checkReport
	}
	pc.result.StartedAt = pc.startedAt
	pc.result.CompletedAt = time.Now()
	pc.result.DurationMs = pc.result.CompletedAt.Sub(pc.startedAt).Milliseconds()
	return workflow.EventSuccess, nil
}

func (h *doneHandler) DryRun(state *workflow.WorkflowState) string { return "record final result" }

// -----------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------

func toCodeagentGroup(g Group) codeagent.Group {
	issues := make([]codeagent.IssueRef, 0, len(g.Issues))
	for _, iss := range g.Issues {
		issues = append(issues, codeagent.IssueRef{Number: iss.Number, Title: iss.Title, Body: iss.Body})
	}
	return codeagent.Group{BranchName: g.BranchName, Issues: issues}
}

func commitMessage(g Group, fix *codeagent.ApplyResult) string {
	if fix != nil && fix.CommitMessage != "" {
		return fix.CommitMessage
	}
	return fmt.Sprintf("fix: %s", g.DisplayName)
}

func prTitle(g Group) string {
	return fmt.Sprintf("fix: %s", g.DisplayName)
}

func prBody(g Group, analysis *codeagent.AnalyzeResult, fix *codeagent.ApplyResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Automated remediation for %s.\n\n", g.DisplayName)
	if analysis != nil {
		fmt.Fprintf(&sb, "**Root cause**: %s\n\n**Fix**: %s\n\n", analysis.RootCause, analysis.SuggestedFix)
	}
	if fix != nil {
		fmt.Fprintf(&sb, "**Summary**: %s\n\n", fix.Summary)
	}
	sb.WriteString("Closes: ")
	for i, iss := range g.Issues {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "#%d", iss.Number)
	}
	sb.WriteString("\n")
	return sb.String()
}

func prLabels(g Group) []string {
	labels := []string{"auto-fix"}
	seen := map[string]bool{}
	for _, iss := range g.Issues {
		if iss.Type != "" && !seen["type:"+iss.Type] {
			labels = append(labels, "type:"+iss.Type)
			seen["type:"+iss.Type] = true
		}
		if iss.Priority != "" && !seen["priority:"+iss.Priority] {
			labels = append(labels, "priority:"+iss.Priority)
			seen["priority:"+iss.Priority] = true
		}
	}
	for _, c := range g.Components {
		key := "component:" + c
		if !seen[key] {
			labels = append(labels, key)
			seen[key] = true
		}
	}
	return labels
}
