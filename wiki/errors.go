package wiki

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for wiki operations. Typed errors below wrap these so
// callers can match the class with errors.Is and still recover details
// with errors.As.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("you do not have permission to perform this action")
	ErrUnauthorized = errors.New("authentication required")
	ErrRateLimited  = errors.New("rate limit exceeded")
	ErrUpstream     = errors.New("storage failure")

	ErrStaffRequired     = errors.New("moderator access required")
	ErrRevisionExists    = errors.New("revision number already exists")
	ErrSlugTaken         = errors.New("slug already in use")
	ErrUsernameTaken     = errors.New("username already in use")
	ErrEmailTaken        = errors.New("email already in use")
	ErrIncorrectPassword = errors.New("incorrect password")
)

// ValidationError reports a malformed or out-of-range submission field.
// Always raised before any write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ConflictError reports an optimistic-lock mismatch on edit, or a slug
// collision on approve. CurrentRevisionNumber lets the caller reload and
// resubmit against the latest revision.
type ConflictError struct {
	CurrentRevisionNumber int
	Slug                  string
}

func (e *ConflictError) Error() string {
	if e.Slug != "" {
		return fmt.Sprintf("slug %q is already taken by another article", e.Slug)
	}
	return fmt.Sprintf("stale base revision, current revision is %d", e.CurrentRevisionNumber)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// RateLimitError tells the caller to back off.
type RateLimitError struct {
	Table      string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many %s writes, retry after %s", e.Table, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// UpstreamError wraps a failure of the object store itself. Not retried
// here; the transport layer decides on retry policy.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstream }

// Cause returns the underlying store error.
func (e *UpstreamError) Cause() error { return e.Err }
