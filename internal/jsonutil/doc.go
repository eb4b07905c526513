// Package jsonutil extracts JSON payloads from noisy external-process output.
package jsonutil
