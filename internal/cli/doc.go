// Package cli wires cobra commands to the core engine; it is an ambient entry point, not part of the tested core.
package cli
