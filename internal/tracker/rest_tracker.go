package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oakbranch-dev/raven-remediator/internal/errcode"
)

var _ Tracker = (*RESTTracker)(nil)

// RESTTracker implements Tracker directly against the GitHub REST API. It
// exists alongside GHCLITracker because only a direct HTTP client can
// express the exact status-code-to-error-code mapping §6 requires (a CLI
// wrapper only sees gh's own text output, not the raw status). There is no
// HTTP client library anywhere in the example corpus, so this adapter is
// deliberately built on net/http + encoding/json rather than gh CLI
// shelling-out, and is the one place in this repository's domain stack that
// is standard-library by necessity rather than by omission.
type RESTTracker struct {
	owner, repo string
	token       string
	baseURL     string
	httpClient  *http.Client
}

// NewRESTTracker builds a RESTTracker for owner/repo, authenticating with
// token (a GitHub personal access token or installation token).
func NewRESTTracker(owner, repo, token string) *RESTTracker {
	return &RESTTracker{
		owner:      owner,
		repo:       repo,
		token:      token,
		baseURL:    "https://api.github.com",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (t *RESTTracker) CreateReviewRequest(ctx context.Context, req ReviewRequest) (*ReviewRequestResult, error) {
	base := req.BaseBranch
	if base == "" {
		base = "main"
	}

	body := map[string]any{
		"title": req.Title,
		"body":  req.Body,
		"head":  req.HeadBranch,
		"base":  base,
		"draft": req.Draft,
	}
	var created struct {
		Number  int    `json:"number"`
		HTMLURL string `json:"html_url"`
	}
	if err := t.do(ctx, http.MethodPost, fmt.Sprintf("/repos/%s/%s/pulls", t.owner, t.repo), body, &created); err != nil {
		return nil, err
	}

	if len(req.Labels) > 0 || len(req.Reviewers) > 0 {
		_ = t.addLabelsAndReviewers(ctx, created.Number, req.Labels, req.Reviewers)
	}
	for _, issue := range req.LinkedIssues {
		_ = t.MarkInProgress(ctx, issue)
	}

	return &ReviewRequestResult{URL: created.HTMLURL, Number: created.Number}, nil
}

func (t *RESTTracker) addLabelsAndReviewers(ctx context.Context, prNumber int, labels, reviewers []string) error {
	if len(labels) > 0 {
		if err := t.do(ctx, http.MethodPost, fmt.Sprintf("/repos/%s/%s/issues/%d/labels", t.owner, t.repo, prNumber), map[string]any{"labels": labels}, nil); err != nil {
			return err
		}
	}
	if len(reviewers) > 0 {
		if err := t.do(ctx, http.MethodPost, fmt.Sprintf("/repos/%s/%s/pulls/%d/requested_reviewers", t.owner, t.repo, prNumber), map[string]any{"reviewers": reviewers}, nil); err != nil {
			return err
		}
	}
	return nil
}

func (t *RESTTracker) UpdateIssue(ctx context.Context, issueNumber int, update IssueUpdate) error {
	patch := map[string]any{}
	if update.State != "" {
		patch["state"] = update.State
	}
	if len(update.Assignees) > 0 {
		patch["assignees"] = update.Assignees
	}
	if len(patch) > 0 {
		if err := t.do(ctx, http.MethodPatch, fmt.Sprintf("/repos/%s/%s/issues/%d", t.owner, t.repo, issueNumber), patch, nil); err != nil {
			return err
		}
	}

	for _, l := range update.RemoveLabels {
		path := fmt.Sprintf("/repos/%s/%s/issues/%d/labels/%s", t.owner, t.repo, issueNumber, l)
		if err := t.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
			if te, ok := err.(*TrackerError); !ok || te.Code != errcode.NotFound {
				return err
			}
		}
	}
	if len(update.AddLabels) > 0 {
		if err := t.do(ctx, http.MethodPost, fmt.Sprintf("/repos/%s/%s/issues/%d/labels", t.owner, t.repo, issueNumber), map[string]any{"labels": update.AddLabels}, nil); err != nil {
			return err
		}
	}
	if update.Comment != "" {
		if err := t.do(ctx, http.MethodPost, fmt.Sprintf("/repos/%s/%s/issues/%d/comments", t.owner, t.repo, issueNumber), map[string]any{"body": update.Comment}, nil); err != nil {
			return err
		}
	}
	return nil
}

func (t *RESTTracker) MarkInProgress(ctx context.Context, issueNumber int) error {
	return t.UpdateIssue(ctx, issueNumber, IssueUpdate{
		AddLabels:    []string{"in-progress"},
		RemoveLabels: []string{"needs-triage"},
		Comment:      fmt.Sprintf("Automated remediation is now in progress for issue #%d.", issueNumber),
	})
}

func (t *RESTTracker) MarkFixed(ctx context.Context, issueNumber int, prNumber int) error {
	return t.UpdateIssue(ctx, issueNumber, IssueUpdate{
		AddLabels:    []string{"fixed"},
		RemoveLabels: []string{"in-progress"},
		Comment:      fmt.Sprintf("Automated remediation opened #%d to fix this issue.", prNumber),
	})
}

func (t *RESTTracker) MarkFailed(ctx context.Context, issueNumber int, reason string) error {
	return t.UpdateIssue(ctx, issueNumber, IssueUpdate{
		AddLabels:    []string{"remediation-failed"},
		RemoveLabels: []string{"in-progress"},
		Comment:      fmt.Sprintf("Automated remediation failed: %s", reason),
	})
}

// do issues a single GitHub REST call and maps a non-2xx response onto the
// §6 error-code table. out may be nil when the caller doesn't need the body.
func (t *RESTTracker) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("tracker: encoding request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("tracker: building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return &TrackerError{Code: errcode.NetworkError, Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("tracker: decoding response: %w", err)
			}
		}
		return nil
	}

	return t.classifyStatus(resp, respBody)
}

func (t *RESTTracker) classifyStatus(resp *http.Response, body []byte) error {
	status := resp.StatusCode
	text := strings.ToLower(string(body))
	baseErr := fmt.Errorf("tracker: github api %s: %s", resp.Request.Method+" "+resp.Request.URL.Path, strconv.Itoa(status))

	switch {
	case status == http.StatusUnauthorized:
		return &TrackerError{Code: errcode.AuthFailed, StatusCode: status, Err: baseErr}
	case status == http.StatusForbidden && (strings.Contains(text, "rate limit") || resp.Header.Get("X-RateLimit-Remaining") == "0"):
		return &TrackerError{Code: errcode.RateLimited, StatusCode: status, Err: baseErr}
	case status == http.StatusForbidden:
		return &TrackerError{Code: errcode.AuthFailed, StatusCode: status, Err: baseErr}
	case status == http.StatusNotFound:
		return &TrackerError{Code: errcode.NotFound, StatusCode: status, Err: baseErr}
	case status == http.StatusConflict:
		return &TrackerError{Code: errcode.APIError, StatusCode: status, Err: baseErr}
	case status == http.StatusUnprocessableEntity && strings.Contains(text, "already exists"):
		return &TrackerError{Code: errcode.PRExists, StatusCode: status, Err: baseErr}
	case status == http.StatusUnprocessableEntity:
		return &TrackerError{Code: errcode.ValidationFailed, StatusCode: status, Err: baseErr}
	case status >= 500:
		return &TrackerError{Code: errcode.APIError, StatusCode: status, Err: baseErr}
	default:
		return &TrackerError{Code: errcode.APIError, StatusCode: status, Err: baseErr}
	}
}
