package core

import (
	"errors"
	"fmt"
)

// ErrNotFound reports a missing session or message range. Store
// implementations wrap it so callers can match with errors.Is.
var ErrNotFound = errors.New("not found")

// ValidationError reports invalid input to a create operation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// SummarizationError reports a failed or timed-out summarization,
// including an empty message range.
type SummarizationError struct {
	SessionID string
	Err       error
}

func (e *SummarizationError) Error() string {
	return fmt.Sprintf("summarization failed for session %s: %v", e.SessionID, e.Err)
}

func (e *SummarizationError) Unwrap() error { return e.Err }

// StoreError propagates an underlying persistence failure opaquely.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsSummarization(err error) bool {
	var se *SummarizationError
	return errors.As(err, &se)
}
