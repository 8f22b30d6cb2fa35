package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestWrap(t *testing.T) {
	originalErr := errors.New("database connection failed")
	wrapped := Wrap(originalErr, CodeInternal, "internal error", http.StatusInternalServerError)

	if wrapped.Err != originalErr {
		t.Errorf("expected wrapped error to contain original error")
	}
	if wrapped.Code != CodeInternal {
		t.Errorf("expected code %s, got %s", CodeInternal, wrapped.Code)
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name: "without underlying error",
			appErr: &AppError{
				Code:    CodeNotFound,
				Message: "session not found",
			},
			expected: "NOT_FOUND: session not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "internal error",
				Err:     errors.New("database connection failed"),
			},
			expected: "INTERNAL_ERROR: internal error (caused by: database connection failed)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.appErr.Error()
			if got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	appErr := Wrap(originalErr, CodeInternal, "wrapped", http.StatusInternalServerError)

	unwrapped := errors.Unwrap(appErr)
	if unwrapped != originalErr {
		t.Errorf("Unwrap() should return original error")
	}
}

func TestConcurrencyDistinctFromConflict(t *testing.T) {
	race := Concurrency("pack was modified concurrently, retry the booking")
	conflict := Conflict("timeslot already booked")

	if race.HTTPStatus != http.StatusConflict {
		t.Errorf("Concurrency() status = %d, want %d", race.HTTPStatus, http.StatusConflict)
	}
	if conflict.HTTPStatus != http.StatusConflict {
		t.Errorf("Conflict() status = %d, want %d", conflict.HTTPStatus, http.StatusConflict)
	}
	if race.Code == conflict.Code {
		t.Errorf("concurrency and conflict must carry distinct codes, both got %s", race.Code)
	}
}

func TestEntitlement(t *testing.T) {
	err := Entitlement("no sessions remaining in pack")

	if err.Code != CodeEntitlement {
		t.Errorf("expected code %s, got %s", CodeEntitlement, err.Code)
	}
	if err.HTTPStatus != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, err.HTTPStatus)
	}
}

func TestAsAppError(t *testing.T) {
	appErr := NotFoundWithID("Session", "abc123")
	if got := AsAppError(appErr); got != appErr {
		t.Errorf("AsAppError should return the same *AppError unchanged")
	}

	plain := errors.New("boom")
	got := AsAppError(plain)
	if got.Code != CodeInternal {
		t.Errorf("plain errors should map to %s, got %s", CodeInternal, got.Code)
	}
	if got.Err != plain {
		t.Errorf("plain error should be preserved as the cause")
	}
}
