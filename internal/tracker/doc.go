// Package tracker defines the narrow upstream-issue-tracker capability the pipeline consumes, with GitHub CLI and REST adapters.
package tracker
