// Package apperrors defines the typed failures surfaced to API callers.
// Every user-visible error carries a machine-checkable Type and a
// human-readable Message.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeUnauthorized indicates a missing, invalid or expired credential
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"

	// ErrorTypePermissionDenied indicates an authenticated caller without the required tier
	ErrorTypePermissionDenied ErrorType = "PERMISSION_DENIED"

	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeConflict indicates a conflict with existing data
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeValidation indicates malformed input rejected at the boundary
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeConstraint indicates a storage integrity violation other than uniqueness
	ErrorTypeConstraint ErrorType = "CONSTRAINT"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error type to a response status code.
func (e *AppError) HTTPStatus() int {
	switch e.Type {
	case ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case ErrorTypePermissionDenied:
		return http.StatusForbidden
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeConflict:
		return http.StatusConflict
	case ErrorTypeValidation:
		return http.StatusUnprocessableEntity
	case ErrorTypeConstraint:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{Type: ErrorTypeUnauthorized, Message: message}
}

// NewPermissionDeniedError creates a new permission denied error
func NewPermissionDeniedError(message string) *AppError {
	return &AppError{Type: ErrorTypePermissionDenied, Message: message}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{Type: ErrorTypeNotFound, Message: message}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{Type: ErrorTypeConflict, Message: message}
}

// NewConflictErrorf creates a conflict error wrapping the storage cause.
func NewConflictErrorf(err error, format string, args ...any) *AppError {
	return &AppError{Type: ErrorTypeConflict, Message: fmt.Sprintf(format, args...), Err: err}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{Type: ErrorTypeValidation, Message: message}
}

// NewValidationErrorf creates a validation error with a formatted message.
func NewValidationErrorf(format string, args ...any) *AppError {
	return &AppError{Type: ErrorTypeValidation, Message: fmt.Sprintf(format, args...)}
}

// NewConstraintError creates a generic integrity error. The cause is kept
// for logging but never rendered.
func NewConstraintError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeConstraint, Message: message, Err: err}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// As extracts the first *AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// TypeOf returns the error type of err, or ErrorTypeInternal for errors
// that are not application errors.
func TypeOf(err error) ErrorType {
	if appErr, ok := As(err); ok {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// Is reports whether err is an application error of type t.
func Is(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}
