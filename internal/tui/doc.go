// Package tui implements the terminal dashboard over live workflow and queue events.
package tui
