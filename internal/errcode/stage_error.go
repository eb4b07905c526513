package errcode

import "fmt"

// StageError is the structured failure value every pipeline stage
// produces. The pipeline aggregates {stage, kind, message, cause} into
// the result's errorDetails exactly as §4.2 requires.
type StageError struct {
	Stage   string
	Code    Code
	Message string
	Cause   error
}

// NewStageError builds a StageError, defaulting Message to cause's text
// when msg is empty.
func NewStageError(stage string, code Code, msg string, cause error) *StageError {
	if msg == "" && cause != nil {
		msg = cause.Error()
	}
	return &StageError{Stage: stage, Code: code, Message: msg, Cause: cause}
}

func (e *StageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Stage, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Code, e.Message)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the queue should retry a pipeline whose
// terminal failure carries this error.
func (e *StageError) Retryable() bool {
	return e.Code.Retryable()
}
