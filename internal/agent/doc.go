// Package agent wraps external code-generation CLI tools (claude, codex, gemini) behind a single invocation interface.
package agent
