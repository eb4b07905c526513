// Package config loads and validates TOML project configuration.
package config
