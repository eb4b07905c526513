package codeagent

import "context"

var _ Agent = (*MockAgent)(nil)

// MockAgent is a configurable in-memory Agent, modeled on
// internal/agent.MockAgent, for exercising the pipeline without invoking a
// real code-generation CLI.
type MockAgent struct {
	// AnalyzeFunc is called by Analyze. If nil, Analyze returns a fixed
	// successful result.
	AnalyzeFunc func(ctx context.Context, group Group, workingCopyPath string) (*AnalyzeResult, error)

	// ApplyFunc is called by Apply. If nil, Apply returns a fixed
	// successful result.
	ApplyFunc func(ctx context.Context, group Group, workingCopyPath string, analysis *AnalyzeResult) (*ApplyResult, error)

	// AnalyzeCalls and ApplyCalls record every invocation, in order.
	AnalyzeCalls []Group
	ApplyCalls   []Group
}

func (m *MockAgent) Analyze(ctx context.Context, group Group, workingCopyPath string) (*AnalyzeResult, error) {
	m.AnalyzeCalls = append(m.AnalyzeCalls, group)
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, group, workingCopyPath)
	}
	return &AnalyzeResult{
		Issues:        []string{"mock issue"},
		FilesToModify: []string{"main.go"},
		RootCause:     "mock root cause",
		SuggestedFix:  "mock fix",
		Confidence:    0.9,
		Complexity:    ComplexityModerate,
	}, nil
}

func (m *MockAgent) Apply(ctx context.Context, group Group, workingCopyPath string, analysis *AnalyzeResult) (*ApplyResult, error) {
	m.ApplyCalls = append(m.ApplyCalls, group)
	if m.ApplyFunc != nil {
		return m.ApplyFunc(ctx, group, workingCopyPath, analysis)
	}
	return &ApplyResult{
		FilesModified: []string{"main.go"},
		Summary:       "mock summary",
		Success:       true,
		CommitMessage: "fix: mock commit",
	}, nil
}
