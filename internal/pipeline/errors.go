package pipeline

import (
	"errors"
	"fmt"
)

// ErrFallbackExhausted means the primary statement and its simplified retry
// both failed.
var ErrFallbackExhausted = errors.New("fallback exhausted")

// FailureError carries the user-facing message for a pipeline failure along
// with the underlying cause.
type FailureError struct {
	Stage   Stage
	Message string
	Err     error
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *FailureError) Unwrap() error { return e.Err }
