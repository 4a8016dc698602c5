package domain

import (
	"errors"
	"testing"
	"time"
)

func TestLockoutErrorMatchesSentinel(t *testing.T) {
	err := error(&LockoutError{Remaining: 90 * time.Second})

	if !errors.Is(err, ErrAccountLocked) {
		t.Fatal("LockoutError does not match ErrAccountLocked")
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("LockoutError matches ErrInvalidCredentials")
	}

	var lockErr *LockoutError
	if !errors.As(err, &lockErr) {
		t.Fatal("errors.As failed for LockoutError")
	}
	if lockErr.Remaining != 90*time.Second {
		t.Fatalf("Remaining = %v, want 90s", lockErr.Remaining)
	}
}

func TestValidationErrorWrapsSentinel(t *testing.T) {
	err := ValidationError("pin must be exactly 6 digits")
	if !errors.Is(err, ErrValidation) {
		t.Fatal("ValidationError does not match ErrValidation")
	}
	if err.Error() != "validation failed: pin must be exactly 6 digits" {
		t.Fatalf("Error() = %q", err.Error())
	}
}
