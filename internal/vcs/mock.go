package vcs

import "context"

var _ Adapter = (*MockAdapter)(nil)

// MockAdapter is a configurable in-memory Adapter, modeled on
// internal/agent.MockAgent, for exercising the lease manager and pipeline
// without a real git checkout.
type MockAdapter struct {
	FetchFunc                 func(ctx context.Context, remote string) error
	CreateWorktreeFunc         func(ctx context.Context, path, branch, base string) error
	RemoveWorktreeFunc         func(ctx context.Context, path string, force bool) error
	DeleteBranchFunc           func(ctx context.Context, branch string, force bool) error
	ListWorktreesFunc          func(ctx context.Context) ([]WorktreeInfo, error)
	BranchExistsFunc           func(ctx context.Context, branch string) (bool, error)
	HasUncommittedChangesFunc func(ctx context.Context, path string) (bool, error)
	ExecFunc                  func(ctx context.Context, path string, args ...string) (string, string, int, error)

	FetchCalls          []string
	CreateWorktreeCalls []CreateWorktreeCall
	RemoveWorktreeCalls []RemoveWorktreeCall
	DeleteBranchCalls   []DeleteBranchCall
	ExecCalls           []ExecCall
}

// CreateWorktreeCall records one CreateWorktree invocation.
type CreateWorktreeCall struct {
	Path, Branch, Base string
}

// RemoveWorktreeCall records one RemoveWorktree invocation.
type RemoveWorktreeCall struct {
	Path  string
	Force bool
}

// DeleteBranchCall records one DeleteBranch invocation.
type DeleteBranchCall struct {
	Branch string
	Force  bool
}

// ExecCall records one Exec invocation.
type ExecCall struct {
	Path string
	Args []string
}

func (m *MockAdapter) Fetch(ctx context.Context, remote string) error {
	m.FetchCalls = append(m.FetchCalls, remote)
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, remote)
	}
	return nil
}

func (m *MockAdapter) CreateWorktree(ctx context.Context, path, branch, base string) error {
	m.CreateWorktreeCalls = append(m.CreateWorktreeCalls, CreateWorktreeCall{Path: path, Branch: branch, Base: base})
	if m.CreateWorktreeFunc != nil {
		return m.CreateWorktreeFunc(ctx, path, branch, base)
	}
	return nil
}

func (m *MockAdapter) RemoveWorktree(ctx context.Context, path string, force bool) error {
	m.RemoveWorktreeCalls = append(m.RemoveWorktreeCalls, RemoveWorktreeCall{Path: path, Force: force})
	if m.RemoveWorktreeFunc != nil {
		return m.RemoveWorktreeFunc(ctx, path, force)
	}
	return nil
}

func (m *MockAdapter) DeleteBranch(ctx context.Context, branch string, force bool) error {
	m.DeleteBranchCalls = append(m.DeleteBranchCalls, DeleteBranchCall{Branch: branch, Force: force})
	if m.DeleteBranchFunc != nil {
		return m.DeleteBranchFunc(ctx, branch, force)
	}
	return nil
}

func (m *MockAdapter) ListWorktrees(ctx context.Context) ([]WorktreeInfo, error) {
	if m.ListWorktreesFunc != nil {
		return m.ListWorktreesFunc(ctx)
	}
	return nil, nil
}

func (m *MockAdapter) BranchExists(ctx context.Context, branch string) (bool, error) {
	if m.BranchExistsFunc != nil {
		return m.BranchExistsFunc(ctx, branch)
	}
	return false, nil
}

func (m *MockAdapter) HasUncommittedChanges(ctx context.Context, path string) (bool, error) {
	if m.HasUncommittedChangesFunc != nil {
		return m.HasUncommittedChangesFunc(ctx, path)
	}
	return true, nil
}

func (m *MockAdapter) Exec(ctx context.Context, path string, args ...string) (string, string, int, error) {
	m.ExecCalls = append(m.ExecCalls, ExecCall{Path: path, Args: args})
	if m.ExecFunc != nil {
		return m.ExecFunc(ctx, path, args...)
	}
	return "", "", 0, nil
}
