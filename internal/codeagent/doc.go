// Package codeagent defines the narrow analyze/apply capability the pipeline consumes from the code-generation agent.
package codeagent
