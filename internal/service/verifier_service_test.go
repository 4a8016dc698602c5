package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmops/identity-service/internal/domain"
)

func TestVerifyStaffPINSuccess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	seeded := h.seedStaff(t, "Asha Patel", "9876543210", "123456", domain.RoleManager, true)

	staff, role, err := h.verifier.VerifyStaffPIN(ctx, "9876543210", "123456")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, staff.ID)
	assert.Equal(t, domain.RoleManager, role)
}

func TestVerifyStaffPINResolvesRoleFromRegistry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	// The staff row mirrors a stale role; the registry is authoritative.
	seeded := h.seedStaff(t, "Asha Patel", "9876543210", "123456", domain.RoleFarmWorker, true)
	require.NoError(t, h.roles.Set(ctx, seeded.ID, domain.RoleManager))

	_, role, err := h.verifier.VerifyStaffPIN(ctx, "9876543210", "123456")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, role)
}

func TestVerifyStaffPINWrongPIN(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedStaff(t, "Asha Patel", "9876543210", "123456", domain.RoleManager, true)

	_, _, err := h.verifier.VerifyStaffPIN(ctx, "9876543210", "654321")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	count, err := h.ledger.FailureCount(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestVerifyStaffPINUnknownPhoneIndistinguishable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedStaff(t, "Asha Patel", "9876543210", "123456", domain.RoleManager, true)

	_, _, knownErr := h.verifier.VerifyStaffPIN(ctx, "9876543210", "654321")
	_, _, unknownErr := h.verifier.VerifyStaffPIN(ctx, "5550001111", "654321")

	// Unknown phone and wrong PIN must be the same outcome, and both count
	// toward lockout.
	assert.ErrorIs(t, knownErr, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownErr, domain.ErrInvalidCredentials)

	count, err := h.ledger.FailureCount(ctx, "5550001111")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestVerifyStaffPINMalformedInput(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, _, err := h.verifier.VerifyStaffPIN(ctx, "9876543210", "12345")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, _, err = h.verifier.VerifyStaffPIN(ctx, "98x6543210", "123456")
	assert.ErrorIs(t, err, domain.ErrValidation)

	// Malformed input is refused before the ledger is touched.
	count, countErr := h.ledger.FailureCount(ctx, "9876543210")
	require.NoError(t, countErr)
	assert.Zero(t, count)
}

func TestVerifyStaffPINLockout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedStaff(t, "Asha Patel", "9876543210", "123456", domain.RoleManager, true)

	for i := 0; i < 4; i++ {
		_, _, err := h.verifier.VerifyStaffPIN(ctx, "9876543210", "000000")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	}

	// Even the correct PIN is refused while the lockout window runs, and the
	// caller learns how long is left.
	_, _, err := h.verifier.VerifyStaffPIN(ctx, "9876543210", "123456")
	require.ErrorIs(t, err, domain.ErrAccountLocked)

	var lockErr *domain.LockoutError
	require.ErrorAs(t, err, &lockErr)
	assert.Greater(t, lockErr.Remaining, time.Duration(0))
	assert.LessOrEqual(t, lockErr.Remaining, 15*time.Minute)
}

func TestVerifyStaffPINLockoutExpires(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedStaff(t, "Asha Patel", "9876543210", "123456", domain.RoleManager, true)

	for i := 0; i < 4; i++ {
		_, _, _ = h.verifier.VerifyStaffPIN(ctx, "9876543210", "000000")
	}
	h.redis.FastForward(15*time.Minute + time.Second)

	_, role, err := h.verifier.VerifyStaffPIN(ctx, "9876543210", "123456")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, role)
}

func TestVerifyStaffPINSuccessResetsStreak(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedStaff(t, "Asha Patel", "9876543210", "123456", domain.RoleManager, true)

	for i := 0; i < 3; i++ {
		_, _, _ = h.verifier.VerifyStaffPIN(ctx, "9876543210", "000000")
	}
	_, _, err := h.verifier.VerifyStaffPIN(ctx, "9876543210", "123456")
	require.NoError(t, err)

	// Three more failures after the reset must not trip the lockout.
	for i := 0; i < 3; i++ {
		_, _, failErr := h.verifier.VerifyStaffPIN(ctx, "9876543210", "000000")
		assert.ErrorIs(t, failErr, domain.ErrInvalidCredentials)
		assert.NotErrorIs(t, failErr, domain.ErrAccountLocked)
	}
	_, _, err = h.verifier.VerifyStaffPIN(ctx, "9876543210", "123456")
	assert.NoError(t, err)
}

func TestVerifyStaffPINInactiveAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedStaff(t, "Asha Patel", "9876543210", "123456", domain.RoleManager, false)

	_, _, err := h.verifier.VerifyStaffPIN(ctx, "9876543210", "123456")
	assert.ErrorIs(t, err, domain.ErrAccountInactive)

	// Inactive is a status outcome, not a guessing failure.
	count, countErr := h.ledger.FailureCount(ctx, "9876543210")
	require.NoError(t, countErr)
	assert.Zero(t, count)
}

func TestVerifyStaffPINNoPINOnRecord(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedStaff(t, "Asha Patel", "9876543210", "", domain.RoleManager, true)

	_, _, err := h.verifier.VerifyStaffPIN(ctx, "9876543210", "123456")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestVerifyCustomerPINSuccess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ref := "bc-1"
	seeded := h.seedCustomer(t, "5551234567", "246810", domain.ApprovalApproved, &ref)

	customer, err := h.verifier.VerifyCustomerPIN(ctx, "5551234567", "246810")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, customer.ID)

	stored, err := h.customers.GetByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestVerifyCustomerPINPendingApproval(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedCustomer(t, "5551234567", "246810", domain.ApprovalPending, nil)

	// Wrong PIN stays invalid-credentials; the pending state must not leak to
	// a guesser.
	_, err := h.verifier.VerifyCustomerPIN(ctx, "5551234567", "000000")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = h.verifier.VerifyCustomerPIN(ctx, "5551234567", "246810")
	assert.ErrorIs(t, err, domain.ErrPendingApproval)
}

func TestVerifyCustomerPINRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedCustomer(t, "5551234567", "246810", domain.ApprovalRejected, nil)

	_, err := h.verifier.VerifyCustomerPIN(ctx, "5551234567", "246810")
	assert.ErrorIs(t, err, domain.ErrAccountInactive)
}

func TestVerifyCustomerPINLockout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ref := "bc-1"
	h.seedCustomer(t, "5551234567", "246810", domain.ApprovalApproved, &ref)

	for i := 0; i < 4; i++ {
		_, err := h.verifier.VerifyCustomerPIN(ctx, "5551234567", "999999")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	}

	_, err := h.verifier.VerifyCustomerPIN(ctx, "5551234567", "246810")
	assert.ErrorIs(t, err, domain.ErrAccountLocked)
}

func TestVerificationFailuresShareLedgerAcrossSubjects(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedStaff(t, "Asha Patel", "9876543210", "123456", domain.RoleManager, true)

	// The ledger is keyed by phone, so staff and customer attempts against the
	// same number accumulate into one streak.
	for i := 0; i < 2; i++ {
		_, _, _ = h.verifier.VerifyStaffPIN(ctx, "9876543210", "000000")
	}
	for i := 0; i < 2; i++ {
		_, _ = h.verifier.VerifyCustomerPIN(ctx, "9876543210", "000000")
	}

	locked, err := h.ledger.IsLocked(ctx, "9876543210")
	require.NoError(t, err)
	assert.True(t, locked)

	_, _, err = h.verifier.VerifyStaffPIN(ctx, "9876543210", "123456")
	assert.ErrorIs(t, err, domain.ErrAccountLocked)
}

func TestVerifyRefusesWhenLedgerUnavailable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedStaff(t, "Asha Patel", "9876543210", "123456", domain.RoleManager, true)
	h.redis.Close()

	_, _, err := h.verifier.VerifyStaffPIN(ctx, "9876543210", "123456")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)
	var lockErr *domain.LockoutError
	assert.False(t, errors.As(err, &lockErr))
}
