// Package logging provides the project's logging infrastructure built on charmbracelet/log.
package logging
