package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/oakbranch-dev/raven-remediator/internal/checkrunner"
	"github.com/oakbranch-dev/raven-remediator/internal/codeagent"
	"github.com/oakbranch-dev/raven-remediator/internal/git"
	"github.com/oakbranch-dev/raven-remediator/internal/lease"
	"github.com/oakbranch-dev/raven-remediator/internal/logging"
	"github.com/oakbranch-dev/raven-remediator/internal/queue"
	"github.com/oakbranch-dev/raven-remediator/internal/remediation"
	"github.com/oakbranch-dev/raven-remediator/internal/tracker"
	"github.com/oakbranch-dev/raven-remediator/internal/vcs"
	"github.com/oakbranch-dev/raven-remediator/internal/workflow"
)

// remediateFlags holds parsed flag values for the remediate command.
type remediateFlags struct {
	// GroupsFile is a path to a JSON file describing the groups to
	// process. Group discovery/grouping itself is out of this
	// repository's scope (upstream-tracker concern); this file is the
	// narrow seam where that upstream output enters the pipeline.
	GroupsFile string

	// Agent selects which configured code-generation agent to run.
	Agent string

	// UseRESTTracker selects the HTTP-backed tracker over the `gh`
	// CLI-backed one (the default).
	UseRESTTracker bool

	// Owner/Repo are required when --rest-tracker is set.
	Owner string
	Repo  string
}

func newRemediateCmd() *cobra.Command {
	var flags remediateFlags

	cmd := &cobra.Command{
		Use:   "remediate",
		Short: "Run the autonomous issue-remediation pipeline over a set of issue groups",
		Long: `Run the autonomous issue-remediation pipeline: for each issue group, acquire
an isolated worktree, invoke the configured code-generation agent to analyze
and patch the tree, run verification checks, commit, open a review request,
update issue metadata, and release the worktree — all with bounded
concurrency and retry.

Groups are read from a JSON file (see --groups) since fetching and grouping
issues from the upstream tracker is outside this command's scope.`,
		Example: `  # Run remediation for a set of groups, 3 at a time
  raven remediate --groups groups.json

  # Use a specific agent and the GitHub REST tracker
  raven remediate --groups groups.json --agent codex --rest-tracker --owner acme --repo widgets`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemediate(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.GroupsFile, "groups", "", "Path to a JSON file listing issue groups to remediate (required)")
	cmd.Flags().StringVar(&flags.Agent, "agent", "", "Agent to use for analysis/fix (default: first configured agent)")
	cmd.Flags().BoolVar(&flags.UseRESTTracker, "rest-tracker", false, "Use the GitHub REST tracker instead of the gh CLI")
	cmd.Flags().StringVar(&flags.Owner, "owner", "", "Repository owner (required with --rest-tracker)")
	cmd.Flags().StringVar(&flags.Repo, "repo", "", "Repository name (required with --rest-tracker)")

	_ = cmd.MarkFlagRequired("groups")

	return cmd
}

func init() {
	rootCmd.AddCommand(newRemediateCmd())
}

// stageDescriptions labels each fixed remediation stage for the dry-run
// preview printed by `raven remediate --dry-run`.
var stageDescriptions = map[string]string{
	string(remediation.StageInit):          "validate the group and prepare pipeline state",
	string(remediation.StageWorktreeCreate): "acquire an isolated worktree lease",
	string(remediation.StageAIAnalysis):    "ask the code agent to analyze the issue",
	string(remediation.StageAIFix):         "ask the code agent to apply a fix",
	string(remediation.StageInstallDeps):   "install dependencies in the worktree",
	string(remediation.StageChecks):        "run configured verification checks",
	string(remediation.StageCommit):        "commit the applied changes",
	string(remediation.StagePRCreate):      "open a pull/review request",
	string(remediation.StageIssueUpdate):   "update the source issue with remediation metadata",
	string(remediation.StageCleanup):       "release the worktree lease",
	string(remediation.StageDone):          "mark the group complete",
}

// groupsFile is the on-disk shape accepted by --groups: the minimal JSON
// rendering of remediation.Group, populated by whatever upstream grouping
// process produced it (out of scope here).
type groupsFile struct {
	Groups []remediation.Group `json:"groups"`
}

func runRemediate(cmd *cobra.Command, flags remediateFlags) error {
	logger := logging.New("remediate")

	resolved, _, err := loadAndResolveConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := resolved.Config

	groups, err := loadGroupsFile(flags.GroupsFile)
	if err != nil {
		return fmt.Errorf("loading groups: %w", err)
	}
	if len(groups) == 0 {
		return fmt.Errorf("no groups found in %q", flags.GroupsFile)
	}

	dryRun := flagDryRun || cfg.DryRun

	if dryRun {
		formatter := workflow.NewDryRunFormatter(cmd.OutOrStdout(), false)
		formatter.Write(formatter.FormatWorkflowDryRun(remediation.Definition(), nil, stageDescriptions))
		fmt.Fprintf(cmd.OutOrStdout(), "%d group(s) would be queued from %q\n\n", len(groups), flags.GroupsFile)
	}

	// Step 1: Resolve the code-generation agent.
	agentName := flags.Agent
	if agentName == "" {
		agentName = firstConfiguredAgentName(cfg.Agents)
	}
	if agentName == "" {
		return fmt.Errorf(
			"no agent specified and no agents configured: use --agent to specify one " +
				"or add [agents.<name>] to raven.toml",
		)
	}
	agentRegistry, err := buildAgentRegistry(cfg.Agents, "", agentName)
	if err != nil {
		return err
	}
	innerAgent, err := agentRegistry.Get(agentName)
	if err != nil {
		return fmt.Errorf("unknown agent %q: %w", agentName, err)
	}
	if checkErr := innerAgent.CheckPrerequisites(); checkErr != nil {
		return fmt.Errorf("agent prerequisite check failed for %q: %w", agentName, checkErr)
	}
	codeAgent := codeagent.NewCLIAgent(innerAgent)

	// Step 2: Build the git client and vcs adapter.
	gitClient, gitErr := git.NewGitClient("")
	if gitErr != nil {
		return fmt.Errorf("git client: %w", gitErr)
	}
	vcsAdapter := vcs.NewGitAdapter(gitClient)

	// Step 3: Build the lease manager.
	leaseOpts := []lease.Option{
		lease.WithMaxConcurrent(cfg.Worktree.MaxConcurrent),
		lease.WithLogger(logging.New("lease")),
	}
	leaseMgr := lease.NewManager(vcsAdapter, cfg.Worktree.BaseDir, cfg.Worktree.BranchPrefix, leaseOpts...)

	// Step 4: Build the check runner.
	checkRunner := checkrunner.NewDefaultRunner(logging.New("checkrunner"))

	// Step 5: Build the tracker.
	var trk tracker.Tracker
	if flags.UseRESTTracker {
		if flags.Owner == "" || flags.Repo == "" {
			return fmt.Errorf("--owner and --repo are required with --rest-tracker")
		}
		token := os.Getenv("GITHUB_TOKEN")
		trk = tracker.NewRESTTracker(flags.Owner, flags.Repo, token)
	} else {
		trk = tracker.NewGHCLITracker("", dryRun, logging.New("tracker"))
	}

	// Step 6: Build the pipeline.
	pipe := remediation.New(
		remediation.WithLeaseManager(leaseMgr),
		remediation.WithCodeAgent(codeAgent),
		remediation.WithCheckRunner(checkRunner),
		remediation.WithTracker(trk),
		remediation.WithVCS(vcsAdapter),
		remediation.WithLogger(logging.New("pipeline")),
		remediation.WithChecks(cfg.Checks.Names, cfg.Checks.FailFast, time.Duration(cfg.Checks.TimeoutSeconds)*time.Second),
		remediation.WithDryRun(dryRun),
	)

	pipe.OnStageChange(func(ev workflow.WorkflowEvent) {
		logStageChange(logger, ev)
	})

	// Step 7: Build the queue.
	q := queue.New(
		cfg.Queue.MaxConcurrent,
		cfg.Queue.MaxAttempts,
		queue.WithBackoff(
			time.Duration(cfg.Queue.InitialBackoffMs)*time.Millisecond,
			time.Duration(cfg.Queue.MaxBackoffMs)*time.Millisecond,
		),
		queue.WithLogger(logging.New("queue")),
	)
	q.SetProcessor(pipe.ProcessGroup)
	unsubscribe := q.On(func(ev queue.Event) {
		logQueueEvent(logger, ev)
	})
	defer unsubscribe()

	q.Enqueue(groups)

	// Step 8: Run, honoring Ctrl+C as a graceful-then-force stop.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		logger.Info("interrupt received, stopping queue gracefully")
		q.Stop()
	}()

	logger.Info("starting remediation",
		"groups", len(groups),
		"agent", agentName,
		"max_concurrent", cfg.Queue.MaxConcurrent,
		"max_attempts", cfg.Queue.MaxAttempts,
		"dry_run", dryRun,
	)

	results, runErr := q.Start(ctx)
	if runErr != nil {
		return fmt.Errorf("running queue: %w", runErr)
	}

	printRemediationSummary(cmd, results)

	failed := 0
	for _, r := range results {
		if r.Status == remediation.StatusFailed {
			failed++
		}
	}
	if failed > 0 {
		os.Exit(2)
	}
	return nil
}

func logStageChange(logger *log.Logger, ev workflow.WorkflowEvent) {
	logger.Debug("stage change", "step", ev.Step, "type", ev.Type)
}

func logQueueEvent(logger *log.Logger, ev queue.Event) {
	fields := []interface{}{"type", ev.Type, "group", ev.Group.ID}
	if ev.Attempt > 0 {
		fields = append(fields, "attempt", ev.Attempt)
	}
	if ev.Error != "" {
		fields = append(fields, "error", ev.Error)
	}
	if ev.DelayMs > 0 {
		fields = append(fields, "delay_ms", ev.DelayMs)
	}
	logger.Info("queue event", fields...)
}

func printRemediationSummary(cmd *cobra.Command, results []*remediation.PipelineResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nRemediation complete: %d group(s) processed\n", len(results))
	fmt.Fprintln(out, strings.Repeat("-", 60))
	for _, r := range results {
		line := fmt.Sprintf("  %-30s  %-10s  attempt %d", r.Group.ID, r.Status, r.Attempt)
		if r.PullRequest != nil {
			line += fmt.Sprintf("  PR: %s", r.PullRequest.URL)
		}
		if r.ErrorSummary != "" {
			line += fmt.Sprintf("  error: %s", r.ErrorSummary)
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)
}

func loadGroupsFile(path string) ([]remediation.Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var gf groupsFile
	if err := json.Unmarshal(data, &gf); err != nil {
		return nil, fmt.Errorf("parsing %q: %w", path, err)
	}
	return gf.Groups, nil
}
