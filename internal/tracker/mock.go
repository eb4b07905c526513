package tracker

import "context"

var _ Tracker = (*MockTracker)(nil)

// MockTracker is a configurable in-memory Tracker for pipeline tests.
type MockTracker struct {
	CreateFunc func(ctx context.Context, req ReviewRequest) (*ReviewRequestResult, error)
	UpdateFunc func(ctx context.Context, issueNumber int, update IssueUpdate) error

	CreateCalls []ReviewRequest
	UpdateCalls []IssueUpdate
}

func (m *MockTracker) CreateReviewRequest(ctx context.Context, req ReviewRequest) (*ReviewRequestResult, error) {
	m.CreateCalls = append(m.CreateCalls, req)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, req)
	}
	return &ReviewRequestResult{URL: "https://github.com/mock/mock/pull/1", Number: 1}, nil
}

func (m *MockTracker) UpdateIssue(ctx context.Context, issueNumber int, update IssueUpdate) error {
	m.UpdateCalls = append(m.UpdateCalls, update)
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, issueNumber, update)
	}
	return nil
}

func (m *MockTracker) MarkInProgress(ctx context.Context, issueNumber int) error {
	return m.UpdateIssue(ctx, issueNumber, IssueUpdate{AddLabels: []string{"in-progress"}})
}

func (m *MockTracker) MarkFixed(ctx context.Context, issueNumber int, prNumber int) error {
	return m.UpdateIssue(ctx, issueNumber, IssueUpdate{AddLabels: []string{"fixed"}})
}

func (m *MockTracker) MarkFailed(ctx context.Context, issueNumber int, reason string) error {
	return m.UpdateIssue(ctx, issueNumber, IssueUpdate{AddLabels: []string{"remediation-failed"}, Comment: reason})
}
