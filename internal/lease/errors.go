package lease

import (
	"errors"

	"github.com/oakbranch-dev/raven-remediator/internal/errcode"
)

// Sentinel errors returned by Manager methods, following the teacher's
// agent.ErrNotFound / workflow.ErrStepNotFound convention: a small set of
// package-level sentinels that callers compare with errors.Is.
var (
	ErrMaxConcurrentExceeded = errors.New("lease: max concurrent leases exceeded")
	ErrUnknownLease          = errors.New("lease: unknown lease id")
)

// AcquireError wraps a failed acquire() call with the error code the
// caller (the pipeline's worktree_create stage) needs to classify it.
type AcquireError struct {
	Code errcode.Code
	Err  error
}

func (e *AcquireError) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Err.Error()
	}
	return string(e.Code)
}

func (e *AcquireError) Unwrap() error { return e.Err }
