// Package vcs defines the narrow version-control / working-copy capability the lease manager depends on.
package vcs
