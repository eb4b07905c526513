package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	tea "github.com/charmbracelet/bubbletea"
)

// ---------------------------------------------------------------------------
// RemediationWizardConfig
// ---------------------------------------------------------------------------

// RemediationWizardConfig holds the configuration collected by the
// remediation setup wizard: which agent drives the pipeline, how many
// worktrees and queue workers it may use concurrently, and its retry/backoff
// and orphan-cleanup behavior.
type RemediationWizardConfig struct {
	// Agent is the coding agent used to implement and verify each fix.
	Agent string

	// MaxConcurrent is the queue's bounded worker count: how many groups are
	// processed in parallel.
	MaxConcurrent int
	// WorktreeCap is the lease manager's maximum number of concurrently
	// checked-out worktrees.
	WorktreeCap int
	// AutoCleanupMinutes is the orphan-sweep interval in minutes. A value of
	// 0 disables the automatic sweep; CleanupOrphaned can still be invoked
	// on demand.
	AutoCleanupMinutes int

	// MaxAttempts is the maximum number of attempts per group before the
	// queue gives up and marks it failed.
	MaxAttempts int
	// InitialBackoffSeconds is the delay before the first retry.
	InitialBackoffSeconds int
	// MaxBackoffSeconds caps the exponential backoff between retries.
	MaxBackoffSeconds int

	// SkipChecks omits the verification stage when true, trusting the
	// agent's patch without re-running checks.
	SkipChecks bool
	// DryRun runs the pipeline without pushing a branch or opening a pull
	// request: worktrees are created and cleaned up, but nothing is
	// published.
	DryRun bool
}

// ---------------------------------------------------------------------------
// Wizard messages
// ---------------------------------------------------------------------------

// WizardCompleteMsg is dispatched when the user finishes the remediation
// wizard. The collected configuration is embedded in the message.
type WizardCompleteMsg struct {
	// Config is the configuration collected from the wizard form.
	Config RemediationWizardConfig
}

// WizardCancelledMsg is dispatched when the user cancels the remediation
// wizard by pressing Esc or the abort key.
type WizardCancelledMsg struct{}

// ---------------------------------------------------------------------------
// WizardModel
// ---------------------------------------------------------------------------

// WizardModel is the Bubble Tea sub-model for the remediation setup wizard.
// It wraps a charmbracelet/huh form and manages the wizard lifecycle.
// When active, it renders the form and emits WizardCompleteMsg or
// WizardCancelledMsg on completion/cancellation.
type WizardModel struct {
	theme           Theme
	form            *huh.Form
	width           int
	height          int
	active          bool
	config          RemediationWizardConfig
	availableAgents []string

	// Intermediate string values used by huh.Input for numeric fields.
	// Parsed into config when the form completes.
	rawMaxConcurrent      string
	rawWorktreeCap        string
	rawAutoCleanupMinutes string
	rawMaxAttempts        string
	rawInitialBackoff     string
	rawMaxBackoff         string
}

// NewWizardModel creates a WizardModel with sensible defaults. The wizard
// starts inactive; call Start() to build the form and activate it.
//
// agents is the list of available AI agent names (e.g. "claude", "codex").
func NewWizardModel(theme Theme, agents []string) WizardModel {
	return WizardModel{
		theme:           theme,
		availableAgents: agents,
		config: RemediationWizardConfig{
			MaxConcurrent:         3,
			WorktreeCap:           5,
			AutoCleanupMinutes:    0,
			MaxAttempts:           3,
			InitialBackoffSeconds: 5,
			MaxBackoffSeconds:     300,
		},
		rawMaxConcurrent:      "3",
		rawWorktreeCap:        "5",
		rawAutoCleanupMinutes: "0",
		rawMaxAttempts:        "3",
		rawInitialBackoff:     "5",
		rawMaxBackoff:         "300",
	}
}

// SetDimensions updates the terminal dimensions used to size the wizard form.
// Call this whenever the parent App receives a tea.WindowSizeMsg.
func (w *WizardModel) SetDimensions(width, height int) {
	w.width = width
	w.height = height
	if w.form != nil && w.active {
		w.form = w.form.WithWidth(width)
	}
}

// IsActive reports whether the wizard is currently displayed.
func (w WizardModel) IsActive() bool {
	return w.active
}

// Start builds the huh form, marks the wizard active, and returns the form's
// Init command. The caller must forward the returned tea.Cmd to the runtime.
func (w *WizardModel) Start() tea.Cmd {
	w.form = w.buildForm()
	w.active = true
	return w.form.Init()
}

// Update processes incoming messages while the wizard is active.
// It forwards all messages to the underlying huh form and transitions on
// form completion or abort.
//
// Returns:
//   - WizardCompleteMsg  when the user finishes the form.
//   - WizardCancelledMsg when the user presses Esc / abort key.
func (w WizardModel) Update(msg tea.Msg) (WizardModel, tea.Cmd) {
	if !w.active || w.form == nil {
		return w, nil
	}

	// Handle Esc directly to allow cancellation even if huh absorbs it.
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			w.active = false
			return w, func() tea.Msg { return WizardCancelledMsg{} }
		}
	}

	form, cmd := w.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		w.form = f
	}

	switch w.form.State {
	case huh.StateCompleted:
		w.active = false
		w.parseFormValues()
		cfg := w.config
		return w, func() tea.Msg { return WizardCompleteMsg{Config: cfg} }

	case huh.StateAborted:
		w.active = false
		return w, func() tea.Msg { return WizardCancelledMsg{} }

	default:
	}

	return w, cmd
}

// View renders the wizard overlay. Returns an empty string when inactive.
func (w WizardModel) View() string {
	if !w.active || w.form == nil {
		return ""
	}

	formView := w.form.View()
	if formView == "" {
		return ""
	}

	// Wrap the form in a styled container centered on the terminal.
	containerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(1, 2)

	boxed := containerStyle.Render(formView)

	if w.width > 0 && w.height > 0 {
		return lipgloss.Place(
			w.width, w.height,
			lipgloss.Center, lipgloss.Center,
			boxed,
		)
	}

	return boxed
}

// ---------------------------------------------------------------------------
// buildForm
// ---------------------------------------------------------------------------

// buildForm constructs the huh.Form with 5 groups:
//  1. Agent selection
//  2. Concurrency settings (queue workers, worktree cap, cleanup sweep)
//  3. Retry/backoff settings
//  4. Skip flags
//  5. Confirmation summary
func (w *WizardModel) buildForm() *huh.Form {
	huhTheme := buildHuhTheme(w.theme)

	groups := []*huh.Group{
		w.buildAgentGroup(),
		w.buildConcurrencyGroup(),
		w.buildRetryGroup(),
		w.buildSkipFlagsGroup(),
		w.buildConfirmGroup(),
	}

	formWidth := w.width
	if formWidth <= 0 {
		formWidth = 80
	}
	// Cap form width to avoid an overly wide form on large terminals.
	if formWidth > 100 {
		formWidth = 100
	}

	return huh.NewForm(groups...).
		WithTheme(huhTheme).
		WithWidth(formWidth).
		WithShowHelp(true)
}

// buildAgentGroup returns Group 1: agent selection.
func (w *WizardModel) buildAgentGroup() *huh.Group {
	if len(w.availableAgents) == 0 {
		return huh.NewGroup(
			huh.NewNote().
				Title("Agent Selection").
				Description("No agents are configured. Add agents to your configuration first."),
		)
	}

	options := make([]huh.Option[string], len(w.availableAgents))
	for i, a := range w.availableAgents {
		options[i] = huh.NewOption(capitalizeFirst(a), a)
	}

	// Pre-select the sole available agent.
	if len(w.availableAgents) == 1 {
		w.config.Agent = w.availableAgents[0]
	}

	return huh.NewGroup(
		huh.NewSelect[string]().
			Title("Remediation Agent").
			Description("Agent used to implement and verify each fix.").
			Options(options...).
			Value(&w.config.Agent),
	)
}

// buildConcurrencyGroup returns Group 2: worktree lease and queue
// concurrency, plus the orphan-cleanup sweep interval.
func (w *WizardModel) buildConcurrencyGroup() *huh.Group {
	return huh.NewGroup(
		huh.NewInput().
			Title("Queue Concurrency").
			Description("Maximum number of groups processed in parallel.").
			Value(&w.rawMaxConcurrent).
			Validate(positiveIntValidator("queue concurrency")),
		huh.NewInput().
			Title("Worktree Cap").
			Description("Maximum number of worktrees leased at once.").
			Value(&w.rawWorktreeCap).
			Validate(positiveIntValidator("worktree cap")),
		huh.NewInput().
			Title("Auto-Cleanup Interval (minutes, 0 = disabled)").
			Description("How often to sweep for orphaned worktrees. 0 disables the sweep.").
			Value(&w.rawAutoCleanupMinutes).
			Validate(nonNegativeIntValidator("auto-cleanup interval")),
	)
}

// buildRetryGroup returns Group 3: retry attempts and backoff bounds.
func (w *WizardModel) buildRetryGroup() *huh.Group {
	return huh.NewGroup(
		huh.NewInput().
			Title("Max Attempts").
			Description("Maximum number of attempts per group before giving up.").
			Value(&w.rawMaxAttempts).
			Validate(positiveIntValidator("max attempts")),
		huh.NewInput().
			Title("Initial Backoff (seconds)").
			Description("Delay before the first retry.").
			Value(&w.rawInitialBackoff).
			Validate(positiveIntValidator("initial backoff")),
		huh.NewInput().
			Title("Max Backoff (seconds)").
			Description("Cap on the exponential backoff between retries.").
			Value(&w.rawMaxBackoff).
			Validate(positiveIntValidator("max backoff")),
	)
}

// buildSkipFlagsGroup returns Group 4: skip flags (confirm toggles).
func (w *WizardModel) buildSkipFlagsGroup() *huh.Group {
	return huh.NewGroup(
		huh.NewConfirm().
			Title("Skip Verification Checks?").
			Description("When enabled, the post-fix check stage is bypassed.").
			Value(&w.config.SkipChecks),
		huh.NewConfirm().
			Title("Dry Run?").
			Description("When enabled, worktrees are created and cleaned up but nothing is pushed or opened as a pull request.").
			Value(&w.config.DryRun),
	)
}

// buildConfirmGroup returns Group 5: confirmation summary (Note field).
// The description is rendered dynamically via DescriptionFunc so it reflects
// the user's actual selections when they reach the final group. The binding
// is w.config (a plain struct) so hashstructure hashes only the configuration
// fields, not the embedded *huh.Form.
func (w *WizardModel) buildConfirmGroup() *huh.Group {
	return huh.NewGroup(
		huh.NewNote().
			Title("Configuration Summary").
			DescriptionFunc(func() string { return w.buildSummary() }, &w.config),
	)
}

// buildSummary produces a human-readable summary of the current configuration
// for display in the confirmation group.
func (w *WizardModel) buildSummary() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Agent           : %s\n", w.config.Agent))
	sb.WriteString(fmt.Sprintf("Queue workers   : %s\n", w.rawMaxConcurrent))
	sb.WriteString(fmt.Sprintf("Worktree cap    : %s\n", w.rawWorktreeCap))
	if w.rawAutoCleanupMinutes == "0" {
		sb.WriteString("Auto-cleanup    : disabled\n")
	} else {
		sb.WriteString(fmt.Sprintf("Auto-cleanup    : every %s min\n", w.rawAutoCleanupMinutes))
	}
	sb.WriteString(fmt.Sprintf("Max attempts    : %s\n", w.rawMaxAttempts))
	sb.WriteString(fmt.Sprintf("Initial backoff : %ss\n", w.rawInitialBackoff))
	sb.WriteString(fmt.Sprintf("Max backoff     : %ss\n", w.rawMaxBackoff))

	var skips []string
	if w.config.SkipChecks {
		skips = append(skips, "checks")
	}
	if w.config.DryRun {
		skips = append(skips, "publish (dry run)")
	}
	if len(skips) > 0 {
		sb.WriteString(fmt.Sprintf("Skip steps      : %s\n", strings.Join(skips, ", ")))
	} else {
		sb.WriteString("Skip steps      : none\n")
	}

	sb.WriteString("\nPress Enter to confirm or Esc to cancel.")
	return sb.String()
}

// parseFormValues converts the raw string fields collected by huh.Input
// widgets into the typed fields in w.config.
func (w *WizardModel) parseFormValues() {
	if n, err := strconv.Atoi(w.rawMaxConcurrent); err == nil && n > 0 {
		w.config.MaxConcurrent = n
	}
	if n, err := strconv.Atoi(w.rawWorktreeCap); err == nil && n > 0 {
		w.config.WorktreeCap = n
	}
	if n, err := strconv.Atoi(w.rawAutoCleanupMinutes); err == nil && n >= 0 {
		w.config.AutoCleanupMinutes = n
	}
	if n, err := strconv.Atoi(w.rawMaxAttempts); err == nil && n > 0 {
		w.config.MaxAttempts = n
	}
	if n, err := strconv.Atoi(w.rawInitialBackoff); err == nil && n > 0 {
		w.config.InitialBackoffSeconds = n
	}
	if n, err := strconv.Atoi(w.rawMaxBackoff); err == nil && n > 0 {
		w.config.MaxBackoffSeconds = n
	}
}

// ---------------------------------------------------------------------------
// buildHuhTheme
// ---------------------------------------------------------------------------

// buildHuhTheme translates the Raven TUI Theme into a huh.Theme so that the
// wizard form inherits the application's color palette.
func buildHuhTheme(theme Theme) *huh.Theme {
	t := huh.ThemeBase()

	// Derive colors from the Raven theme for consistent branding.
	t.Focused.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary)
	t.Focused.NoteTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		MarginBottom(1)
	t.Focused.Description = lipgloss.NewStyle().
		Foreground(ColorMuted)
	t.Focused.SelectSelector = lipgloss.NewStyle().
		Foreground(ColorAccent).
		SetString("> ")
	t.Focused.SelectedOption = lipgloss.NewStyle().
		Foreground(ColorAccent)
	t.Focused.UnselectedOption = lipgloss.NewStyle().
		Foreground(ColorMuted)
	t.Focused.FocusedButton = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(ColorPrimary).
		Padding(0, 2).
		MarginRight(1)
	t.Focused.BlurredButton = lipgloss.NewStyle().
		Foreground(ColorMuted).
		Background(ColorHighlight).
		Padding(0, 2).
		MarginRight(1)
	t.Focused.TextInput.Text = lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#E5E7EB"})
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().
		Foreground(ColorSubtle)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().
		Foreground(ColorAccent)
	t.Focused.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(ColorPrimary)

	// Blurred (non-focused) variants.
	t.Blurred.Title = lipgloss.NewStyle().
		Foreground(ColorMuted)
	t.Blurred.NoteTitle = lipgloss.NewStyle().
		Foreground(ColorMuted).
		MarginBottom(1)
	t.Blurred.Description = lipgloss.NewStyle().
		Foreground(ColorSubtle)
	t.Blurred.SelectSelector = lipgloss.NewStyle().
		Foreground(ColorSubtle).
		SetString("  ")
	t.Blurred.SelectedOption = lipgloss.NewStyle().
		Foreground(ColorMuted)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().
		Foreground(ColorSubtle)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().
		Foreground(ColorMuted)
	t.Blurred.TextInput.Placeholder = lipgloss.NewStyle().
		Foreground(ColorSubtle)
	t.Blurred.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.HiddenBorder()).
		BorderLeft(true)

	// Apply group-level header styles to match the focused field title.
	t.Group.Title = t.Focused.Title
	t.Group.Description = t.Focused.Description

	_ = theme // theme is available for future palette expansion

	return t
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// positiveIntValidator returns a validation function that ensures the input
// string parses as a positive integer. The fieldName is used in the error
// message.
func positiveIntValidator(fieldName string) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("%s must be a number", fieldName)
		}
		if n < 1 {
			return fmt.Errorf("%s must be >= 1", fieldName)
		}
		return nil
	}
}

// nonNegativeIntValidator is like positiveIntValidator but also accepts 0,
// used for fields where 0 carries the meaning "disabled".
func nonNegativeIntValidator(fieldName string) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("%s must be a number", fieldName)
		}
		if n < 0 {
			return fmt.Errorf("%s must be >= 0", fieldName)
		}
		return nil
	}
}

// capitalizeFirst returns s with its first Unicode rune uppercased.
// Returns s unchanged if it is empty.
func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	for i := range s {
		if i > 0 {
			return strings.ToUpper(s[:i]) + s[i:]
		}
	}
	return strings.ToUpper(s)
}
