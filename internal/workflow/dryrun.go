package workflow

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// DryRunFormatter formats dry-run output for workflows and pipelines.
// When styled is true, lipgloss ANSI styling is applied; when false, plain
// text is emitted. Output is written to the embedded io.Writer via Write.
type DryRunFormatter struct {
	writer io.Writer
	styled bool
}

// NewDryRunFormatter creates a new DryRunFormatter writing to w.
// When styled is true, lipgloss ANSI styling is applied; when false, plain
// text is emitted.
func NewDryRunFormatter(w io.Writer, styled bool) *DryRunFormatter {
	return &DryRunFormatter{writer: w, styled: styled}
}

// Write writes the formatted string s to f.writer.
func (f *DryRunFormatter) Write(s string) {
	fmt.Fprint(f.writer, s)
}

// FormatWorkflowDryRun formats the dry-run output for a single workflow
// definition. It walks the definition graph from the initial step in BFS
// order, collecting step descriptions and transitions. Cycles are detected
// and shown as "(cycles back to step N)" rather than causing infinite
// recursion.
//
// The stepOutputs map keys are step names; values are the description strings
// returned by StepHandler.DryRun() for that step. When a step name is absent
// from stepOutputs a generic "step N" fallback is used.
//
// The method returns a formatted string; it does not write to f.writer.
func (f *DryRunFormatter) FormatWorkflowDryRun(
	def *WorkflowDefinition,
	_ *WorkflowState,
	stepOutputs map[string]string,
) string {
	if def == nil || len(def.Steps) == 0 {
		return "No steps defined.\n"
	}

	// Build a name-keyed lookup for O(1) step access.
	stepByName := make(map[string]*StepDefinition, len(def.Steps))
	for i := range def.Steps {
		sd := &def.Steps[i]
		stepByName[sd.Name] = sd
	}

	// BFS from InitialStep, preserving visit order so step numbers are stable.
	visited := make(map[string]int) // name -> 1-based step number
	var ordered []string            // step names in BFS visit order

	queue := []string{def.InitialStep}
	visited[def.InitialStep] = 1
	ordered = append(ordered, def.InitialStep)

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		sd, ok := stepByName[current]
		if !ok {
			continue
		}

		// Sort transition events for deterministic output.
		events := sortedKeys(sd.Transitions)
		for _, ev := range events {
			target := sd.Transitions[ev]

			// Skip terminal pseudo-steps -- they are not real steps to visit.
			if target == StepDone || target == StepFailed {
				continue
			}

			if _, seen := visited[target]; !seen {
				n := len(ordered) + 1
				visited[target] = n
				ordered = append(ordered, target)
				queue = append(queue, target)
			}
		}
	}

	// Styles.
	headerStyle := lipgloss.NewStyle()
	stepNameStyle := lipgloss.NewStyle()
	transitionStyle := lipgloss.NewStyle()

	if f.styled {
		headerStyle = headerStyle.Bold(true).Foreground(lipgloss.Color("12")) // bright blue
		stepNameStyle = stepNameStyle.Bold(true)
		transitionStyle = transitionStyle.Faint(true)
	}

	var sb strings.Builder

	// Header.
	header := fmt.Sprintf("Workflow: %s", def.Name)
	underline := strings.Repeat("=", len(header))
	sb.WriteString(headerStyle.Render(header))
	sb.WriteString("\n")
	sb.WriteString(underline)
	sb.WriteString("\n\n")

	// Render each step in BFS order.
	for _, stepName := range ordered {
		stepNum := visited[stepName]
		sd := stepByName[stepName]

		desc, hasDesc := stepOutputs[stepName]
		if !hasDesc || desc == "" {
			desc = fmt.Sprintf("step %d", stepNum)
		}

		// Step header line: "  N. step_name: description"
		stepHeader := fmt.Sprintf("%s: %s", stepName, desc)
		sb.WriteString(fmt.Sprintf("  %d. %s\n", stepNum, stepNameStyle.Render(stepHeader)))

		if sd == nil {
			continue
		}

		// Transitions -- sorted for deterministic output.
		events := sortedKeys(sd.Transitions)
		for _, ev := range events {
			target := sd.Transitions[ev]

			var targetDisplay string
			switch target {
			case StepDone:
				targetDisplay = "DONE"
			case StepFailed:
				targetDisplay = "FAILED"
			default:
				targetNum, alreadySeen := visited[target]
				if alreadySeen && targetNum < stepNum {
					// Cycle: target is an earlier step.
					targetDisplay = fmt.Sprintf("%s (cycles back to step %d)", target, targetNum)
				} else if alreadySeen && targetNum == stepNum {
					// Self-loop edge case.
					targetDisplay = fmt.Sprintf("%s (cycles back to step %d)", target, targetNum)
				} else {
					targetDisplay = target
				}
			}

			transLine := fmt.Sprintf("     -> %s: %s", ev, targetDisplay)
			sb.WriteString(transitionStyle.Render(transLine))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// sortedKeys returns the keys of m sorted alphabetically.
// It is used throughout DryRunFormatter to ensure deterministic output.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
