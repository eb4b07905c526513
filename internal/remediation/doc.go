// Package remediation implements the fixed-stage issue-remediation pipeline: the one non-trivial state machine at the core of this repository.
package remediation
