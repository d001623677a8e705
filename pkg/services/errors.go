package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an entity is not found
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyExists is returned when attempting to create a duplicate entity
	ErrAlreadyExists = errors.New("entity already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidCredentials is returned when login fails; deliberately opaque
	// about whether the email or the password was wrong
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError wraps field-specific validation errors
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ThreadCreationError means the remote conversation could not be created.
// Fatal, no retry: nothing was persisted on either side.
type ThreadCreationError struct {
	Err error
}

func (e *ThreadCreationError) Error() string {
	return fmt.Sprintf("failed to create thread: %v", e.Err)
}

func (e *ThreadCreationError) Unwrap() error {
	return e.Err
}

// RemoteAppliedError means the remote side accepted a write but the matching
// local persist failed. There is no compensating transaction; the remote id
// is carried so callers can reconcile manually.
type RemoteAppliedError struct {
	Op       string // Operation that was underway (e.g. "create thread")
	RemoteID string // Id the remote service issued
	Err      error  // The local failure
}

func (e *RemoteAppliedError) Error() string {
	return fmt.Sprintf("%s: remote write %s applied but local persist failed: %v", e.Op, e.RemoteID, e.Err)
}

func (e *RemoteAppliedError) Unwrap() error {
	return e.Err
}

// PersistenceVerificationError means a write was accepted but a bounded
// series of re-reads could not confirm it. Never swallowed: a failed upsert
// must never be reported as success.
type PersistenceVerificationError struct {
	Entity   string // "report"
	ID       string
	Field    string // First field that failed to verify, or "existence"
	Attempts int
}

func (e *PersistenceVerificationError) Error() string {
	return fmt.Sprintf("%s %s: field '%s' not visible after %d verification attempts",
		e.Entity, e.ID, e.Field, e.Attempts)
}
