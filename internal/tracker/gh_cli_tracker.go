package tracker

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/oakbranch-dev/raven-remediator/internal/errcode"
)

// prNumberRe extracts a PR number from a GitHub PR URL, e.g.
// "https://github.com/owner/repo/pull/42".
var prNumberRe = regexp.MustCompile(`/pull/(\d+)`)

var _ Tracker = (*GHCLITracker)(nil)

// GHCLITracker implements Tracker over the `gh` CLI, grounded on the
// teacher's review.PRCreator subprocess idiom: a temp file for the PR body
// to dodge shell escaping, and a dry-run mode that logs and skips every
// `gh` call (CreateReviewRequest then returns an empty result).
type GHCLITracker struct {
	workDir string
	dryRun  bool
	logger  *log.Logger
}

// NewGHCLITracker builds a GHCLITracker rooted at workDir. logger may be nil.
func NewGHCLITracker(workDir string, dryRun bool, logger *log.Logger) *GHCLITracker {
	return &GHCLITracker{workDir: workDir, dryRun: dryRun, logger: logger}
}

func (t *GHCLITracker) CreateReviewRequest(ctx context.Context, req ReviewRequest) (*ReviewRequestResult, error) {
	base := req.BaseBranch
	if base == "" {
		base = "main"
	}

	if t.dryRun {
		if t.logger != nil {
			t.logger.Info("tracker: dry run, skipping pr create", "title", req.Title, "base", base)
		}
		return &ReviewRequestResult{}, nil
	}

	bodyFile, err := os.CreateTemp("", "raven-pr-body-*.md")
	if err != nil {
		return nil, fmt.Errorf("tracker: create review request: body temp file: %w", err)
	}
	defer os.Remove(bodyFile.Name())
	if err := bodyFile.Chmod(0600); err != nil {
		bodyFile.Close()
		return nil, fmt.Errorf("tracker: create review request: chmod body temp file: %w", err)
	}
	if _, err := bodyFile.WriteString(req.Body); err != nil {
		bodyFile.Close()
		return nil, fmt.Errorf("tracker: create review request: writing body temp file: %w", err)
	}
	if err := bodyFile.Close(); err != nil {
		return nil, fmt.Errorf("tracker: create review request: closing body temp file: %w", err)
	}

	args := []string{
		"pr", "create",
		"--title", req.Title,
		"--body-file", bodyFile.Name(),
		"--base", base,
		"--head", req.HeadBranch,
	}
	if req.Draft {
		args = append(args, "--draft")
	}
	for _, l := range req.Labels {
		args = append(args, "--label", l)
	}
	for _, r := range req.Reviewers {
		args = append(args, "--reviewer", r)
	}

	exitCode, stdout, stderr, err := t.runGH(ctx, args...)
	if err != nil {
		return nil, t.classifyCommandError(exitCode, stdout, stderr, err)
	}

	url := lastNonEmptyLine(stdout)
	number := extractPRNumber(url)

	for _, issue := range req.LinkedIssues {
		_ = t.MarkInProgress(ctx, issue)
	}

	return &ReviewRequestResult{URL: url, Number: number}, nil
}

func (t *GHCLITracker) UpdateIssue(ctx context.Context, issueNumber int, update IssueUpdate) error {
	args := []string{"issue", "edit", strconv.Itoa(issueNumber)}
	for _, l := range update.AddLabels {
		args = append(args, "--add-label", l)
	}
	for _, l := range update.RemoveLabels {
		args = append(args, "--remove-label", l)
	}
	for _, a := range update.Assignees {
		args = append(args, "--add-assignee", a)
	}

	if len(args) > 3 {
		if t.dryRun {
			if t.logger != nil {
				t.logger.Info("tracker: dry run, skipping issue edit", "issue", issueNumber)
			}
		} else if exitCode, stdout, stderr, err := t.runGH(ctx, args...); err != nil {
			return t.classifyCommandError(exitCode, stdout, stderr, err)
		}
	}

	if update.State == "closed" {
		if !t.dryRun {
			if exitCode, stdout, stderr, err := t.runGH(ctx, "issue", "close", strconv.Itoa(issueNumber)); err != nil {
				return t.classifyCommandError(exitCode, stdout, stderr, err)
			}
		}
	} else if update.State == "open" {
		if !t.dryRun {
			if exitCode, stdout, stderr, err := t.runGH(ctx, "issue", "reopen", strconv.Itoa(issueNumber)); err != nil {
				return t.classifyCommandError(exitCode, stdout, stderr, err)
			}
		}
	}

	if update.Comment != "" {
		if t.dryRun {
			if t.logger != nil {
				t.logger.Info("tracker: dry run, skipping issue comment", "issue", issueNumber)
			}
			return nil
		}
		if exitCode, stdout, stderr, err := t.runGH(ctx, "issue", "comment", strconv.Itoa(issueNumber), "--body", update.Comment); err != nil {
			return t.classifyCommandError(exitCode, stdout, stderr, err)
		}
	}

	return nil
}

func (t *GHCLITracker) MarkInProgress(ctx context.Context, issueNumber int) error {
	return t.UpdateIssue(ctx, issueNumber, IssueUpdate{
		AddLabels:    []string{"in-progress"},
		RemoveLabels: []string{"needs-triage"},
		Comment:      fmt.Sprintf("Automated remediation is now in progress for issue #%d.", issueNumber),
	})
}

func (t *GHCLITracker) MarkFixed(ctx context.Context, issueNumber int, prNumber int) error {
	return t.UpdateIssue(ctx, issueNumber, IssueUpdate{
		AddLabels:    []string{"fixed"},
		RemoveLabels: []string{"in-progress"},
		Comment:      fmt.Sprintf("Automated remediation opened #%d to fix this issue.", prNumber),
	})
}

func (t *GHCLITracker) MarkFailed(ctx context.Context, issueNumber int, reason string) error {
	return t.UpdateIssue(ctx, issueNumber, IssueUpdate{
		AddLabels:    []string{"remediation-failed"},
		RemoveLabels: []string{"in-progress"},
		Comment:      fmt.Sprintf("Automated remediation failed: %s", reason),
	})
}

// classifyCommandError maps a failed `gh` invocation onto the error-code
// table by sniffing the combined output, since the gh CLI does not surface
// raw HTTP status codes directly.
func (t *GHCLITracker) classifyCommandError(exitCode int, stdout, stderr string, cause error) error {
	combined := strings.ToLower(stdout + " " + stderr)

	switch {
	case strings.Contains(combined, "already exists"):
		return &TrackerError{Code: errcode.PRExists, Err: cause}
	case strings.Contains(combined, "not authenticated") || strings.Contains(combined, "authentication"):
		return &TrackerError{Code: errcode.AuthFailed, StatusCode: 401, Err: cause}
	case strings.Contains(combined, "rate limit"):
		return &TrackerError{Code: errcode.RateLimited, StatusCode: 403, Err: cause}
	case strings.Contains(combined, "not found") || strings.Contains(combined, "404"):
		return &TrackerError{Code: errcode.NotFound, StatusCode: 404, Err: cause}
	case strings.Contains(combined, "could not find") && strings.Contains(combined, "branch"):
		return &TrackerError{Code: errcode.BranchNotFound, Err: cause}
	case strings.Contains(combined, "validation failed"):
		return &TrackerError{Code: errcode.ValidationFailed, StatusCode: 422, Err: cause}
	default:
		return &TrackerError{Code: errcode.PRCreateFailed, Err: cause}
	}
}

func (t *GHCLITracker) runGH(ctx context.Context, args ...string) (int, string, string, error) {
	cmd := exec.CommandContext(ctx, "gh", args...)
	if t.workDir != "" {
		cmd.Dir = t.workDir
	}
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	runErr := cmd.Run()
	if runErr == nil {
		return 0, stdoutBuf.String(), stderrBuf.String(), nil
	}
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		code := exitErr.ExitCode()
		return code, stdoutBuf.String(), strings.TrimSpace(stderrBuf.String()), fmt.Errorf("gh exited %d: %s", code, strings.TrimSpace(stderrBuf.String()))
	}
	return -1, "", "", runErr
}

func lastNonEmptyLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

func extractPRNumber(url string) int {
	m := prNumberRe.FindStringSubmatch(url)
	if len(m) < 2 {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
