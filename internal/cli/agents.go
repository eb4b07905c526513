package cli

import (
	"fmt"

	"github.com/oakbranch-dev/raven-remediator/internal/agent"
	"github.com/oakbranch-dev/raven-remediator/internal/config"
	"github.com/oakbranch-dev/raven-remediator/internal/logging"
)

// charmLogger is the minimal interface satisfied by *charmbracelet/log.Logger.
// It uses interface{} for the message argument, unlike the string-typed
// interfaces required by internal packages.
type charmLogger interface {
	Info(msg interface{}, kv ...interface{})
	Debug(msg interface{}, kv ...interface{})
}

// agentDebugLogger wraps a charmbracelet/log.Logger to satisfy the agent
// package's unexported claudeLogger and codexLogger interfaces, which require
// Debug(msg string, ...).
type agentDebugLogger struct {
	logger charmLogger
}

func (l *agentDebugLogger) Debug(msg string, kv ...interface{}) {
	l.logger.Debug(msg, kv...)
}

// firstConfiguredAgentName returns the name of the first agent in priority
// order (claude, codex, gemini) that has a non-empty Command or Model in the
// agent config map. Returns an empty string when no agents are configured.
func firstConfiguredAgentName(agentCfgs map[string]config.AgentConfig) string {
	for _, name := range []string{"claude", "codex", "gemini"} {
		if ac, ok := agentCfgs[name]; ok && (ac.Command != "" || ac.Model != "") {
			return name
		}
	}
	return ""
}

// buildAgentRegistry creates an agent registry populated with Claude, Codex,
// and Gemini adapters. Agent configurations are sourced from the resolved
// config (config.AgentConfig) and converted to agent.AgentConfig for the
// agent constructors. If modelOverride is set, it replaces the configured
// model for the agent named by selectedAgent only.
func buildAgentRegistry(agentCfgs map[string]config.AgentConfig, modelOverride, selectedAgent string) (*agent.Registry, error) {
	registry := agent.NewRegistry()

	// toAgentCfg converts a config.AgentConfig to agent.AgentConfig. Both
	// types have identical fields; this conversion is required because they
	// are defined in separate packages.
	toAgentCfg := func(c config.AgentConfig) agent.AgentConfig {
		return agent.AgentConfig{
			Command:        c.Command,
			Model:          c.Model,
			Effort:         c.Effort,
			PromptTemplate: c.PromptTemplate,
			AllowedTools:   c.AllowedTools,
		}
	}

	// Retrieve configs and convert. Zero-value config.AgentConfig is safe.
	claudeCfg := toAgentCfg(agentCfgs["claude"])
	codexCfg := toAgentCfg(agentCfgs["codex"])
	geminiCfg := toAgentCfg(agentCfgs["gemini"])

	// Apply the model override only to the selected agent.
	if modelOverride != "" {
		switch selectedAgent {
		case "claude":
			claudeCfg.Model = modelOverride
		case "codex":
			codexCfg.Model = modelOverride
		case "gemini":
			geminiCfg.Model = modelOverride
		}
	}

	// Set default CLI commands when not configured.
	if claudeCfg.Command == "" {
		claudeCfg.Command = "claude"
	}
	if codexCfg.Command == "" {
		codexCfg.Command = "codex"
	}

	// Wrap charmbracelet loggers in agentDebugLogger adapters to satisfy the
	// agent package's unexported logger interfaces (Debug(string, ...)).
	claudeLog := &agentDebugLogger{logger: logging.New("claude")}
	codexLog := &agentDebugLogger{logger: logging.New("codex")}

	if err := registry.Register(agent.NewClaudeAgent(claudeCfg, claudeLog)); err != nil {
		return nil, fmt.Errorf("registering claude agent: %w", err)
	}
	if err := registry.Register(agent.NewCodexAgent(codexCfg, codexLog)); err != nil {
		return nil, fmt.Errorf("registering codex agent: %w", err)
	}
	if err := registry.Register(agent.NewGeminiAgent(geminiCfg)); err != nil {
		return nil, fmt.Errorf("registering gemini agent: %w", err)
	}

	return registry, nil
}
