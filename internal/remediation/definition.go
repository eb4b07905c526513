package remediation

import "github.com/oakbranch-dev/raven-remediator/internal/workflow"

// WorkflowName identifies this package's workflow.WorkflowDefinition, for
// callers (e.g. `raven resume`) that resolve a checkpointed run by name
// without importing the full Pipeline.
const WorkflowName = "issue-remediation"

// Definition returns the issue-remediation workflow.WorkflowDefinition, the
// same one every Pipeline registers its stage handlers against.
func Definition() *workflow.WorkflowDefinition {
	return buildDefinition()
}

// buildDefinition wires the eleven fixed stages into the workflow.Engine's
// state-machine shape, per the failure-routing rules: a failure before a
// lease exists (init, worktree_create) goes straight to the terminal failed
// step since there is nothing for cleanup to release; any failure from
// ai_analysis onward routes through cleanup first, so the lease is always
// released before the pipeline's invocation ends.
func buildDefinition() *workflow.WorkflowDefinition {
	return &workflow.WorkflowDefinition{
		Name:        WorkflowName,
		Description: "drives one issue group from worktree creation through review-request handoff",
		InitialStep: string(StageInit),
		Steps: []workflow.StepDefinition{
			{
				Name: string(StageInit),
				Transitions: map[string]string{
					workflow.EventSuccess: string(StageWorktreeCreate),
					workflow.EventFailure: workflow.StepFailed,
				},
			},
			{
				Name: string(StageWorktreeCreate),
				Transitions: map[string]string{
					workflow.EventSuccess: string(StageAIAnalysis),
					workflow.EventFailure: workflow.StepFailed,
				},
			},
			{
				Name: string(StageAIAnalysis),
				Transitions: map[string]string{
					workflow.EventSuccess: string(StageAIFix),
					workflow.EventFailure: string(StageCleanup),
				},
			},
			{
				Name: string(StageAIFix),
				Transitions: map[string]string{
					workflow.EventSuccess: string(StageInstallDeps),
					workflow.EventFailure: string(StageCleanup),
				},
			},
			{
				Name: string(StageInstallDeps),
				Transitions: map[string]string{
					workflow.EventSuccess: string(StageChecks),
					workflow.EventFailure: string(StageCleanup),
				},
			},
			{
				Name: string(StageChecks),
				Transitions: map[string]string{
					workflow.EventSuccess: string(StageCommit),
					workflow.EventFailure: string(StageCleanup),
				},
			},
			{
				Name: string(StageCommit),
				Transitions: map[string]string{
					workflow.EventSuccess: string(StagePRCreate),
					workflow.EventFailure: string(StageCleanup),
				},
			},
			{
				Name: string(StagePRCreate),
				Transitions: map[string]string{
					workflow.EventSuccess: string(StageIssueUpdate),
					workflow.EventFailure: string(StageCleanup),
				},
			},
			{
				Name: string(StageIssueUpdate),
				Transitions: map[string]string{
					workflow.EventSuccess: string(StageCleanup),
					workflow.EventFailure: string(StageCleanup),
				},
			},
			{
				Name: string(StageCleanup),
				Transitions: map[string]string{
					workflow.EventSuccess: string(StageDone),
				},
			},
			{
				Name: string(StageDone),
				Transitions: map[string]string{
					workflow.EventSuccess: workflow.StepDone,
				},
			},
		},
	}
}
