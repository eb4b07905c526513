package checkrunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// maxOutputBytes is the threshold above which command output is truncated.
const maxOutputBytes = 1024 * 1024

// truncationLines is the number of lines kept from the head and tail of
// oversized output.
const truncationLines = 512

// DefaultRunner is the default Runner, backed by the host shell. It
// discovers the project's package manager by lockfile presence and maps
// check names to that manager's conventional commands.
type DefaultRunner struct {
	logger *log.Logger
}

// NewDefaultRunner builds a DefaultRunner. logger may be nil.
func NewDefaultRunner(logger *log.Logger) *DefaultRunner {
	return &DefaultRunner{logger: logger}
}

var _ Runner = (*DefaultRunner)(nil)

// InstallDeps runs the detected package manager's install command. A
// manager with no install step (Go) is a no-op.
func (r *DefaultRunner) InstallDeps(ctx context.Context, workDir string) error {
	pm := detectManager(workDir)
	cmd, ok := installCommands[pm.name]
	if !ok || strings.TrimSpace(cmd) == "" {
		return nil
	}

	if r.logger != nil {
		r.logger.Info("checkrunner: installing dependencies", "manager", pm.name, "command", cmd)
	}

	result := r.runOne(ctx, workDir, cmd, 0)
	if !result.passed {
		msg := result.stderr
		if strings.TrimSpace(msg) == "" {
			msg = result.stdout
		}
		return fmt.Errorf("checkrunner: install deps (%s): exit %d: %s", pm.name, result.exitCode, strings.TrimSpace(msg))
	}
	return nil
}

// RunChecks runs each named check in order against the manager detected for
// workDir, applying failFast and perCheckTimeout as described on the Runner
// interface.
func (r *DefaultRunner) RunChecks(ctx context.Context, workDir string, checks []string, failFast bool, perCheckTimeout time.Duration, attempt int) (*Report, error) {
	start := time.Now()
	pm := detectManager(workDir)

	results := make([]CheckResult, 0, len(checks))
	allPassed := true

	for _, check := range checks {
		if err := ctx.Err(); err != nil {
			return r.buildReport(results, attempt, time.Since(start)), nil
		}

		cmd, ok := commandFor(pm, check)
		if !ok {
			results = append(results, CheckResult{
				Check:  check,
				Status: StatusFailed,
				Error:  fmt.Sprintf("checkrunner: no command mapping for check %q under manager %q", check, pm.name),
			})
			allPassed = false
			if failFast {
				break
			}
			continue
		}

		execCtx := ctx
		var cancel context.CancelFunc
		if perCheckTimeout > 0 {
			execCtx, cancel = context.WithTimeout(ctx, perCheckTimeout)
		}

		raw := r.runOne(execCtx, workDir, cmd, perCheckTimeout)
		if cancel != nil {
			cancel()
		}

		status := StatusPassed
		if raw.timedOut {
			status = StatusTimeout
		} else if !raw.passed {
			status = StatusFailed
		}

		cr := CheckResult{
			Check:      check,
			Status:     status,
			DurationMs: raw.duration.Milliseconds(),
			Stdout:     raw.stdout,
			Stderr:     raw.stderr,
			ExitCode:   raw.exitCode,
		}
		if status != StatusPassed {
			allPassed = false
		}
		results = append(results, cr)

		if status != StatusPassed && failFast {
			break
		}
	}

	report := r.buildReport(results, attempt, time.Since(start))
	report.Passed = allPassed && len(results) == len(checks)
	return report, nil
}

func (r *DefaultRunner) buildReport(results []CheckResult, attempt int, total time.Duration) *Report {
	return &Report{
		Results:         results,
		Attempt:         attempt,
		TotalDurationMs: total.Milliseconds(),
	}
}

type rawResult struct {
	exitCode int
	stdout   string
	stderr   string
	duration time.Duration
	passed   bool
	timedOut bool
}

// runOne executes a single shell command in workDir, honoring the same
// timeout-classification rules as review.VerificationRunner.RunSingle.
func (r *DefaultRunner) runOne(ctx context.Context, workDir, command string, timeout time.Duration) rawResult {
	cmdStart := time.Now()

	if r.logger != nil {
		r.logger.Info("checkrunner: running command", "command", command)
	}

	var shellCmd *exec.Cmd
	if runtime.GOOS == "windows" {
		shellCmd = exec.CommandContext(ctx, "cmd", "/c", command)
	} else {
		shellCmd = exec.CommandContext(ctx, "sh", "-c", command)
	}
	shellCmd.Dir = workDir

	var stdoutBuf, stderrBuf bytes.Buffer
	shellCmd.Stdout = &stdoutBuf
	shellCmd.Stderr = &stderrBuf

	runErr := shellCmd.Run()
	duration := time.Since(cmdStart)

	exitCode := 0
	timedOut := false

	if runErr != nil {
		if timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			timedOut = true
			exitCode = -1
			if shellCmd.Process != nil {
				_ = shellCmd.Process.Kill()
			}
		} else {
			var exitErr *exec.ExitError
			if errors.As(runErr, &exitErr) {
				exitCode = exitErr.ExitCode()
			} else {
				exitCode = -1
			}
		}
	}

	return rawResult{
		exitCode: exitCode,
		stdout:   truncateOutput(stdoutBuf.String()),
		stderr:   truncateOutput(stderrBuf.String()),
		duration: duration,
		passed:   exitCode == 0 && !timedOut,
		timedOut: timedOut,
	}
}

// truncateOutput reduces oversized output to its head and tail, matching the
// behaviour of review.VerificationRunner's output handling.
func truncateOutput(s string) string {
	if len(s) <= maxOutputBytes {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= truncationLines*2 {
		// A handful of very long lines rather than many short ones: cut by
		// byte count instead.
		half := maxOutputBytes / 2
		return s[:half] + "\n... [output truncated] ...\n" + s[len(s)-half:]
	}
	head := lines[:truncationLines]
	tail := lines[len(lines)-truncationLines:]
	omitted := len(lines) - truncationLines*2
	return strings.Join(head, "\n") + fmt.Sprintf("\n... [%d lines omitted] ...\n", omitted) + strings.Join(tail, "\n")
}
