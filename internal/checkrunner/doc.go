// Package checkrunner runs a working copy's lint/typecheck/test commands and reports structured per-check verdicts.
package checkrunner
