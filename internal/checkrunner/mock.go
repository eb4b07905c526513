package checkrunner

import (
	"context"
	"time"
)

var _ Runner = (*MockRunner)(nil)

// MockRunner is a configurable in-memory Runner, modeled on
// internal/agent.MockAgent, for exercising the pipeline without launching
// real subprocesses.
type MockRunner struct {
	InstallDepsFunc func(ctx context.Context, workDir string) error
	RunChecksFunc   func(ctx context.Context, workDir string, checks []string, failFast bool, perCheckTimeout time.Duration, attempt int) (*Report, error)

	InstallDepsCalls []string
	RunChecksCalls   []RunChecksCall
}

// RunChecksCall records one RunChecks invocation.
type RunChecksCall struct {
	WorkDir  string
	Checks   []string
	FailFast bool
	Attempt  int
}

func (m *MockRunner) InstallDeps(ctx context.Context, workDir string) error {
	m.InstallDepsCalls = append(m.InstallDepsCalls, workDir)
	if m.InstallDepsFunc != nil {
		return m.InstallDepsFunc(ctx, workDir)
	}
	return nil
}

func (m *MockRunner) RunChecks(ctx context.Context, workDir string, checks []string, failFast bool, perCheckTimeout time.Duration, attempt int) (*Report, error) {
	m.RunChecksCalls = append(m.RunChecksCalls, RunChecksCall{WorkDir: workDir, Checks: checks, FailFast: failFast, Attempt: attempt})
	if m.RunChecksFunc != nil {
		return m.RunChecksFunc(ctx, workDir, checks, failFast, perCheckTimeout, attempt)
	}
	results := make([]CheckResult, len(checks))
	for i, c := range checks {
		results[i] = CheckResult{Check: c, Status: StatusPassed, DurationMs: 10}
	}
	return &Report{Passed: true, Results: results, Attempt: attempt, TotalDurationMs: 10 * int64(len(checks))}, nil
}
