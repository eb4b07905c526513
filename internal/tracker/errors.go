package tracker

import (
	"fmt"

	"github.com/oakbranch-dev/raven-remediator/internal/errcode"
)

// TrackerError wraps a failed upstream call with the error code the pipeline
// needs to classify it, per the HTTP-status mapping table: 401 -> auth
// failure; 403 with a rate-limit signal -> rate limited (retryable); 404 ->
// not found; 409 -> conflict; 422 with "already exists" -> PR exists; 422
// otherwise -> validation error; 5xx -> transient server error (retryable);
// network errors -> retryable.
type TrackerError struct {
	Code       errcode.Code
	StatusCode int
	Err        error
}

func (e *TrackerError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("tracker: %s (http %d): %v", e.Code, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("tracker: %s: %v", e.Code, e.Err)
}

func (e *TrackerError) Unwrap() error { return e.Err }

func (e *TrackerError) Retryable() bool { return e.Code.Retryable() }
