package remediation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/oakbranch-dev/raven-remediator/internal/checkrunner"
	"github.com/oakbranch-dev/raven-remediator/internal/codeagent"
	"github.com/oakbranch-dev/raven-remediator/internal/errcode"
	"github.com/oakbranch-dev/raven-remediator/internal/lease"
	"github.com/oakbranch-dev/raven-remediator/internal/tracker"
	"github.com/oakbranch-dev/raven-remediator/internal/vcs"
	"github.com/oakbranch-dev/raven-remediator/internal/workflow"
)

// StageChangeHandler is notified whenever a stage starts or finishes during
// a ProcessGroup call. It is invoked synchronously on the event-pump
// goroutine; handlers that need to do slow work should hand the event off
// to their own goroutine rather than block it.
type StageChangeHandler func(workflow.WorkflowEvent)

// Pipeline drives one Group at a time through the eleven fixed stages. It
// owns no concurrency of its own — internal/queue is responsible for
// running multiple Pipeline.ProcessGroup calls in parallel, one worktree
// lease per call, bounded by the lease manager's own capacity.
type Pipeline struct {
	leases  *lease.Manager
	agent   codeagent.Agent
	checks  checkrunner.Runner
	tracker tracker.Tracker
	vcs     vcs.Adapter
	logger  *log.Logger

	baseBranch    string
	checkNames    []string
	checkFailFast bool
	checkTimeout  time.Duration
	dryRun        bool

	registry   *workflow.Registry
	definition *workflow.WorkflowDefinition

	mu          sync.Mutex
	subscribers []StageChangeHandler
}

// Option configures a Pipeline at construction time, following the
// teacher's functional-options constructor shape.
type Option func(*Pipeline)

func WithLeaseManager(m *lease.Manager) Option { return func(p *Pipeline) { p.leases = m } }
func WithCodeAgent(a codeagent.Agent) Option    { return func(p *Pipeline) { p.agent = a } }
func WithCheckRunner(r checkrunner.Runner) Option {
	return func(p *Pipeline) { p.checks = r }
}
func WithTracker(t tracker.Tracker) Option { return func(p *Pipeline) { p.tracker = t } }
func WithVCS(a vcs.Adapter) Option         { return func(p *Pipeline) { p.vcs = a } }
func WithLogger(logger *log.Logger) Option { return func(p *Pipeline) { p.logger = logger } }
func WithBaseBranch(branch string) Option  { return func(p *Pipeline) { p.baseBranch = branch } }
func WithChecks(names []string, failFast bool, timeout time.Duration) Option {
	return func(p *Pipeline) {
		p.checkNames = names
		p.checkFailFast = failFast
		p.checkTimeout = timeout
	}
}
func WithDryRun(dryRun bool) Option { return func(p *Pipeline) { p.dryRun = dryRun } }

// New builds a Pipeline and registers its eleven stage handlers against a
// private registry, mirroring the teacher's pattern of constructing handler
// structs that hold nil-able dependency fields until wired here.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		baseBranch: "main",
		checkNames: []string{"lint", "typecheck", "test"},
	}
	for _, opt := range opts {
		opt(p)
	}

	p.registry = workflow.NewRegistry()
	p.definition = buildDefinition()

	p.registry.Register(&initHandler{p: p})
	p.registry.Register(&worktreeCreateHandler{p: p})
	p.registry.Register(&aiAnalysisHandler{p: p})
	p.registry.Register(&aiFixHandler{p: p})
	p.registry.Register(&installDepsHandler{p: p})
	p.registry.Register(&checksHandler{p: p})
	p.registry.Register(&commitHandler{p: p})
	p.registry.Register(&prCreateHandler{p: p})
	p.registry.Register(&issueUpdateHandler{p: p})
	p.registry.Register(&cleanupHandler{p: p})
	p.registry.Register(&doneHandler{p: p})

	return p
}

// OnStageChange subscribes handler to every stage-lifecycle event emitted
// while processing any group. Multiple subscribers may be registered; all
// are called, in registration order.
func (p *Pipeline) OnStageChange(handler StageChangeHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, handler)
}

func (p *Pipeline) broadcast(ev workflow.WorkflowEvent) {
	p.mu.Lock()
	handlers := append([]StageChangeHandler(nil), p.subscribers...)
	p.mu.Unlock()
	for _, h := range handlers {
		h(ev)
	}
}

// ProcessGroup drives group through the pipeline to completion. It never
// panics and never returns a Go error of its own — every failure, including
// one inside the engine itself (a configuration bug, a cancelled context),
// is reflected in the returned PipelineResult.
func (p *Pipeline) ProcessGroup(ctx context.Context, group Group, attempt int) *PipelineResult {
	pc := &pipelineContext{group: group, attempt: attempt, dryRun: p.dryRun}

	state := workflow.NewWorkflowState(
		fmt.Sprintf("remediation-%s-%d", group.ID, attempt),
		p.definition.Name,
		p.definition.InitialStep,
	)
	state.Metadata[metadataKey] = pc

	events := make(chan workflow.WorkflowEvent, 32)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			p.broadcast(ev)
		}
	}()

	engine := workflow.NewEngine(p.registry,
		workflow.WithEventChannel(events),
		workflow.WithLogger(p.logger),
	)

	_, runErr := engine.Run(ctx, p.definition, state)
	close(events)
	<-done

	// If the engine aborted (bad definition, cancelled context, a panicking
	// handler) before cleanupHandler ran, a lease acquired earlier would
	// otherwise leak, so release it here, best-effort, outside the cancelled
	// ctx. Release is idempotent: when cleanupHandler already released the
	// lease this is a no-op and the branch is left alone.
	if pc.lease != nil && p.leases != nil {
		if err := p.leases.ReleaseAndCleanBranch(context.Background(), pc.lease.id); err != nil && p.logger != nil {
			p.logger.Warn("process group: lease release after engine abort failed", "lease_id", pc.lease.id, "error", err)
		}
	}

	if pc.result != nil {
		return pc.result
	}

	code := errcode.PipelineFailed
	if ctx.Err() != nil {
		code = errcode.PipelineInterrupted
	}

	result := &PipelineResult{
		Group:       group,
		Status:      StatusFailed,
		Attempt:     attempt,
		StartedAt:   pc.startedAt,
		CompletedAt: time.Now(),
	}
	if runErr != nil {
		result.ErrorSummary = runErr.Error()
		result.ErrorDetail = &ErrorDetail{Code: code, Message: runErr.Error(), Cause: runErr}
	}
	return result
}
