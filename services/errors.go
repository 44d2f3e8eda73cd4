package services

import (
	"errors"
	"fmt"
)

// ValidationError is a malformed or disallowed request (HTTP 400).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func newValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError means the request collides with stored state (HTTP 409).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s no encontrado", e.Resource, e.ID)
}

// UpstreamError wraps a failure of an external provider.
type UpstreamError struct {
	Provider string
	Timeout  bool
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: tiempo de espera agotado", e.Provider)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// PersistenceError is an unexpected storage failure (HTTP 500).
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

func IsValidationError(err error) *ValidationError {
	var target *ValidationError
	if errors.As(err, &target) {
		return target
	}
	return nil
}

func IsConflictError(err error) *ConflictError {
	var target *ConflictError
	if errors.As(err, &target) {
		return target
	}
	return nil
}

func IsNotFoundError(err error) *NotFoundError {
	var target *NotFoundError
	if errors.As(err, &target) {
		return target
	}
	return nil
}

func IsUpstreamError(err error) *UpstreamError {
	var target *UpstreamError
	if errors.As(err, &target) {
		return target
	}
	return nil
}
