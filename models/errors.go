package models

import "errors"

// Failure kinds surfaced by the service layer. Callers match with
// errors.Is; handlers map them to HTTP status codes.
var (
	// ErrNotFound - the referenced deal, stage or work item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrPreconditionFailed - the record was not in the expected state for
	// the requested transition (typically a concurrent modification).
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrValidation - the request was rejected before any write was attempted.
	ErrValidation = errors.New("validation failed")

	// ErrPersistence - the underlying store was unavailable or rejected a
	// write. Retryable from the caller's point of view.
	ErrPersistence = errors.New("persistence failure")
)
