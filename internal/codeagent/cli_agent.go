package codeagent

import (
	"context"
	"fmt"
	"strings"

	"github.com/oakbranch-dev/raven-remediator/internal/agent"
	"github.com/oakbranch-dev/raven-remediator/internal/jsonutil"
)

var _ Agent = (*CLIAgent)(nil)

// CLIAgent adapts an internal/agent.Agent CLI wrapper (claude, codex,
// gemini) to the narrow Analyze/Apply contract the pipeline consumes. It
// prompts the underlying agent for a JSON payload and extracts it from the
// (possibly noisy) CLI output via jsonutil.
type CLIAgent struct {
	inner agent.Agent
}

// NewCLIAgent wraps an already-constructed agent.Agent.
func NewCLIAgent(inner agent.Agent) *CLIAgent {
	return &CLIAgent{inner: inner}
}

type analyzePayload struct {
	Issues        []string `json:"issues"`
	FilesToModify []string `json:"filesToModify"`
	RootCause     string   `json:"rootCause"`
	SuggestedFix  string   `json:"suggestedFix"`
	Confidence    float64  `json:"confidence"`
	Complexity    string   `json:"complexity"`
}

type applyPayload struct {
	FilesModified []string `json:"filesModified"`
	Summary       string   `json:"summary"`
	Success       bool     `json:"success"`
	CommitMessage string   `json:"commitMessage"`
}

func (c *CLIAgent) Analyze(ctx context.Context, group Group, workingCopyPath string) (*AnalyzeResult, error) {
	result, err := c.inner.Run(ctx, agent.RunOpts{
		Prompt:       analyzePrompt(group),
		OutputFormat: agent.OutputFormatJSON,
		WorkDir:      workingCopyPath,
	})
	if err != nil {
		return nil, c.classify(result, err)
	}

	var payload analyzePayload
	if err := jsonutil.ExtractInto(result.Stdout, &payload); err != nil {
		return nil, &TransientError{Err: fmt.Errorf("codeagent: analyze: %w", err)}
	}

	return &AnalyzeResult{
		Issues:        payload.Issues,
		FilesToModify: payload.FilesToModify,
		RootCause:     payload.RootCause,
		SuggestedFix:  payload.SuggestedFix,
		Confidence:    payload.Confidence,
		Complexity:    Complexity(payload.Complexity),
	}, nil
}

func (c *CLIAgent) Apply(ctx context.Context, group Group, workingCopyPath string, analysis *AnalyzeResult) (*ApplyResult, error) {
	result, err := c.inner.Run(ctx, agent.RunOpts{
		Prompt:       applyPrompt(group, analysis),
		OutputFormat: agent.OutputFormatJSON,
		WorkDir:      workingCopyPath,
	})
	if err != nil {
		return nil, c.classify(result, err)
	}

	var payload applyPayload
	if err := jsonutil.ExtractInto(result.Stdout, &payload); err != nil {
		return nil, &TransientError{Err: fmt.Errorf("codeagent: apply: %w", err)}
	}

	return &ApplyResult{
		FilesModified: payload.FilesModified,
		Summary:       payload.Summary,
		Success:       payload.Success,
		CommitMessage: payload.CommitMessage,
	}, nil
}

// classify turns a raw agent.Agent error into a TransientError when the
// underlying result indicates a rate limit, matching the narrow contract's
// requirement that transient failures be distinguishable from permanent ones.
func (c *CLIAgent) classify(result *agent.RunResult, err error) error {
	if result != nil && result.WasRateLimited() {
		return &TransientError{Err: err}
	}
	if rl, ok := c.inner.ParseRateLimit(errString(result)); ok && rl.IsLimited {
		return &TransientError{Err: err}
	}
	return fmt.Errorf("codeagent: %w", err)
}

func errString(result *agent.RunResult) string {
	if result == nil {
		return ""
	}
	return result.Stdout + "\n" + result.Stderr
}

func analyzePrompt(group Group) string {
	var sb strings.Builder
	sb.WriteString("Analyze the following issues and respond with a single JSON object with keys ")
	sb.WriteString(`"issues", "filesToModify", "rootCause", "suggestedFix", "confidence", "complexity".`)
	sb.WriteString("\n\nIssues:\n")
	for _, iss := range group.Issues {
		fmt.Fprintf(&sb, "- #%d %s\n%s\n", iss.Number, iss.Title, iss.Body)
	}
	return sb.String()
}

func applyPrompt(group Group, analysis *AnalyzeResult) string {
	var sb strings.Builder
	sb.WriteString("Apply the suggested fix and respond with a single JSON object with keys ")
	sb.WriteString(`"filesModified", "summary", "success", "commitMessage".`)
	fmt.Fprintf(&sb, "\n\nRoot cause: %s\nSuggested fix: %s\nFiles to modify: %s\n",
		analysis.RootCause, analysis.SuggestedFix, strings.Join(analysis.FilesToModify, ", "))
	return sb.String()
}
