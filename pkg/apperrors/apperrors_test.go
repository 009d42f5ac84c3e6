package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NewUnauthorizedError("x"), http.StatusUnauthorized},
		{NewPermissionDeniedError("x"), http.StatusForbidden},
		{NewNotFoundError("x"), http.StatusNotFound},
		{NewConflictError("x"), http.StatusConflict},
		{NewValidationError("x"), http.StatusUnprocessableEntity},
		{NewConstraintError("x", nil), http.StatusBadRequest},
		{NewInternalError("x", nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.err.HTTPStatus(); got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.err.Type, tt.want, got)
		}
	}
}

func TestTypeOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("update patient: %w", NewNotFoundError("Patient not found"))
	if got := TypeOf(err); got != ErrorTypeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", got)
	}
	if !Is(err, ErrorTypeNotFound) {
		t.Error("expected Is to match wrapped error")
	}
}

func TestTypeOf_PlainError(t *testing.T) {
	if got := TypeOf(errors.New("boom")); got != ErrorTypeInternal {
		t.Errorf("expected INTERNAL, got %s", got)
	}
	if Is(nil, ErrorTypeInternal) {
		t.Error("nil error should not match any type")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("duplicate key")
	err := NewConflictErrorf(cause, "Patient with email '%s' already exists", "a@x.com")
	if !errors.Is(err, cause) {
		t.Error("expected conflict to unwrap to its cause")
	}
	if err.Message != "Patient with email 'a@x.com' already exists" {
		t.Errorf("unexpected message %q", err.Message)
	}
}
