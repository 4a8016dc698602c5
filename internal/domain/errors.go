package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for expected business outcomes. Services return these (or
// values wrapping them) rather than raising; only unreachable dependencies
// propagate as plain errors.
var (
	// ErrInvalidCredentials covers both an unknown phone number and a wrong
	// PIN, deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountLocked indicates an active lockout window.
	ErrAccountLocked = errors.New("account locked")

	// ErrAccountInactive indicates an administratively deactivated identity.
	ErrAccountInactive = errors.New("account inactive")

	// ErrPendingApproval indicates a customer credential that verified but has
	// not been approved yet.
	ErrPendingApproval = errors.New("registration pending approval")

	// ErrUnauthorized indicates the acting identity lacks the required role.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAuthenticationUnavailable indicates the internal check passed but the
	// hosted session provider could not be reconciled.
	ErrAuthenticationUnavailable = errors.New("authentication unavailable")

	// ErrValidation indicates malformed input rejected before any store access.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates a referenced identity does not exist.
	ErrNotFound = errors.New("identity not found")

	// ErrPhoneTaken indicates the phone number already has an account.
	ErrPhoneTaken = errors.New("phone number already registered")
)

// LockoutError carries the remaining lockout duration so callers can surface a
// countdown instead of a generic refusal. errors.Is matches ErrAccountLocked.
type LockoutError struct {
	Remaining time.Duration
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("account locked, retry in %ds", int(e.Remaining.Seconds()))
}

func (e *LockoutError) Is(target error) bool {
	return target == ErrAccountLocked
}

// ValidationError wraps ErrValidation with a caller-facing reason.
func ValidationError(reason string) error {
	return fmt.Errorf("%w: %s", ErrValidation, reason)
}
