// Package apperr defines the typed domain errors shared by every service.
// Handlers map them onto HTTP status codes; services never touch HTTP.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or out-of-policy input. It is always
// surfaced to the caller with a human-readable message and never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validation creates a ValidationError with a formatted message
func Validation(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports that a referenced entity does not exist.
// Entity names the kind, ID identifies the missing row.
type NotFoundError struct {
	Entity string
	ID     interface{}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

// NotFound creates a NotFoundError for the given entity and identifier
func NotFound(entity string, id interface{}) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError reports a state-incompatible operation, e.g. a role request
// already pending or a duplicate restaurant name.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// Conflict creates a ConflictError with a formatted message
func Conflict(format string, args ...interface{}) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ExternalError reports that an outbound dependency (OCR engine, payment
// gateway) failed or returned unusable data.
type ExternalError struct {
	Dependency string
	Err        error
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Dependency, e.Err)
}

func (e *ExternalError) Unwrap() error {
	return e.Err
}

// External wraps an upstream failure with the dependency's name
func External(dependency string, err error) error {
	return &ExternalError{Dependency: dependency, Err: err}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err is a ConflictError
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsExternal reports whether err is an ExternalError
func IsExternal(err error) bool {
	var ee *ExternalError
	return errors.As(err, &ee)
}
