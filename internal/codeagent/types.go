package codeagent

import "context"

// IssueRef is the minimal issue identity the code-generation agent needs:
// enough to describe what is broken without pulling in the full remediation
// data model (avoids an import cycle between codeagent and remediation).
type IssueRef struct {
	Number int
	Title  string
	Body   string
}

// Group is the set of related issues a single pipeline invocation addresses.
type Group struct {
	BranchName string
	Issues     []IssueRef
}

// Complexity is the agent's self-reported estimate of how involved the fix
// is, used by callers that want to surface it in a review request body.
type Complexity string

const (
	ComplexityTrivial  Complexity = "trivial"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// AnalyzeResult is the structured outcome of Agent.Analyze.
type AnalyzeResult struct {
	Issues         []string
	FilesToModify  []string
	RootCause      string
	SuggestedFix   string
	Confidence     float64
	Complexity     Complexity
}

// ApplyResult is the structured outcome of Agent.Apply.
type ApplyResult struct {
	FilesModified []string
	Summary       string
	Success       bool
	CommitMessage string
}

// Agent is the narrow code-generation capability the pipeline's ai_analysis
// and ai_fix stages consume. Implementations MUST distinguish transient
// failures (network blip, rate limit, malformed-but-retriable output) from
// permanent ones (the CLI tool is missing, the prompt itself is rejected) by
// returning an error that satisfies errors.As against *TransientError.
type Agent interface {
	Analyze(ctx context.Context, group Group, workingCopyPath string) (*AnalyzeResult, error)
	Apply(ctx context.Context, group Group, workingCopyPath string, analysis *AnalyzeResult) (*ApplyResult, error)
}
