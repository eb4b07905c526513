package config

// NewDefaults returns a Config populated with all default values.
// These defaults match the PRD-specified defaults for a Go CLI project.
func NewDefaults() *Config {
	return &Config{
		Project: ProjectConfig{
			TasksDir:       "docs/tasks",
			TaskStateFile:  "docs/tasks/task-state.conf",
			PhasesConf:     "docs/tasks/phases.conf",
			ProgressFile:   "docs/tasks/PROGRESS.md",
			LogDir:         "scripts/logs",
			PromptDir:      "prompts",
			BranchTemplate: "phase/{phase_id}-{slug}",
		},
		Agents:    map[string]AgentConfig{},
		Workflows: map[string]WorkflowConfig{},
		Queue: QueueConfig{
			MaxConcurrent:    3,
			MaxAttempts:      3,
			InitialBackoffMs: 2000,
			MaxBackoffMs:     60000,
		},
		Worktree: WorktreeConfig{
			BaseDir:            ".raven/worktrees",
			BranchPrefix:       "remediate",
			MaxConcurrent:      3,
			AutoCleanupMinutes: 60,
		},
		Checks: ChecksConfig{
			Names:          []string{"lint", "typecheck", "test"},
			FailFast:       false,
			TimeoutSeconds: 300,
		},
		DryRun: false,
	}
}
