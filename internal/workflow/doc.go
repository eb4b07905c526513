// Package workflow implements a general step/transition state-machine engine shared by every multi-stage process in this repository.
package workflow
