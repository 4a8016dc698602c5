package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/farmops/identity-service/internal/auth"
	"github.com/farmops/identity-service/internal/domain"
	"github.com/farmops/identity-service/internal/events"
	"github.com/farmops/identity-service/internal/lockout"
	"github.com/farmops/identity-service/internal/observability"
	"github.com/farmops/identity-service/internal/repository"
)

// VerifierService answers "is this phone+PIN valid, and what identity does it
// resolve to" for both staff and customer credentials. The check order is
// fixed: lockout first, then existence, then status, then the PIN itself.
type VerifierService struct {
	staff      repository.StaffRepository
	customers  repository.CustomerRepository
	roles      repository.RoleRepository
	ledger     *lockout.Ledger
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// VerifierDependencies encapsulates requirements for the verifier.
type VerifierDependencies struct {
	StaffRepo    repository.StaffRepository
	CustomerRepo repository.CustomerRepository
	RoleRepo     repository.RoleRepository
	Ledger       *lockout.Ledger
	Dispatcher   events.Dispatcher
	Metrics      *observability.Metrics
	Logger       *zap.Logger
}

// NewVerifierService builds the service.
func NewVerifierService(deps VerifierDependencies) *VerifierService {
	return &VerifierService{
		staff:      deps.StaffRepo,
		customers:  deps.CustomerRepo,
		roles:      deps.RoleRepo,
		ledger:     deps.Ledger,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

// VerifyStaffPIN verifies a staff credential and resolves the authoritative
// role from the role registry.
func (s *VerifierService) VerifyStaffPIN(ctx context.Context, phone, pin string) (*domain.StaffIdentity, domain.Role, error) {
	if err := auth.ValidatePhone(phone); err != nil {
		return nil, "", err
	}
	if err := auth.ValidatePIN(pin); err != nil {
		return nil, "", err
	}

	if err := s.refuseIfLocked(ctx, phone); err != nil {
		return nil, "", err
	}

	staff, err := s.staff.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Unknown phone is reported identically to a wrong PIN.
			return nil, "", s.failVerification(ctx, phone, domain.SubjectTypeStaff, "unknown_phone")
		}
		return nil, "", err
	}

	// Inactive is a distinct state from "locked due to guessing"; it does not
	// touch the ledger.
	if !staff.Active {
		s.metrics.RecordLogin("staff", "inactive")
		return nil, "", domain.ErrAccountInactive
	}

	if staff.PINHash == nil {
		return nil, "", s.failVerification(ctx, phone, domain.SubjectTypeStaff, "no_pin")
	}
	if err := auth.ComparePIN(*staff.PINHash, pin); err != nil {
		return nil, "", s.failVerification(ctx, phone, domain.SubjectTypeStaff, "wrong_pin")
	}

	if err := s.ledger.RecordSuccess(ctx, phone); err != nil {
		return nil, "", err
	}

	role, err := s.roles.Get(ctx, staff.ID)
	if err != nil {
		return nil, "", err
	}

	s.metrics.RecordLogin("staff", "success")
	s.publishLoginSucceeded(ctx, phone, events.Actor{Type: domain.SubjectTypeStaff, StaffID: &staff.ID}, &role)
	return staff, role, nil
}

// VerifyCustomerPIN verifies a customer credential. The approval check runs
// only after the PIN verified, so a guesser cannot probe approval state.
func (s *VerifierService) VerifyCustomerPIN(ctx context.Context, phone, pin string) (*domain.CustomerIdentity, error) {
	if err := auth.ValidatePhone(phone); err != nil {
		return nil, err
	}
	if err := auth.ValidatePIN(pin); err != nil {
		return nil, err
	}

	if err := s.refuseIfLocked(ctx, phone); err != nil {
		return nil, err
	}

	customer, err := s.customers.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.failVerification(ctx, phone, domain.SubjectTypeCustomer, "unknown_phone")
		}
		return nil, err
	}

	if customer.PINHash == nil {
		return nil, s.failVerification(ctx, phone, domain.SubjectTypeCustomer, "no_pin")
	}
	if err := auth.ComparePIN(*customer.PINHash, pin); err != nil {
		return nil, s.failVerification(ctx, phone, domain.SubjectTypeCustomer, "wrong_pin")
	}

	if err := s.ledger.RecordSuccess(ctx, phone); err != nil {
		return nil, err
	}

	switch customer.Approval {
	case domain.ApprovalApproved:
	case domain.ApprovalRejected:
		s.metrics.RecordLogin("customer", "rejected")
		return nil, domain.ErrAccountInactive
	default:
		s.metrics.RecordLogin("customer", "pending")
		return nil, domain.ErrPendingApproval
	}

	if err := s.customers.TouchLastLogin(ctx, customer.ID); err != nil {
		s.logger.Warn("failed to record last login", zap.String("customer_id", customer.ID), zap.Error(err))
	}

	s.metrics.RecordLogin("customer", "success")
	s.publishLoginSucceeded(ctx, phone, events.Actor{Type: domain.SubjectTypeCustomer, CustomerID: &customer.ID}, nil)
	return customer, nil
}

// refuseIfLocked refuses verification before the credential store is even
// consulted when a lockout window is active.
func (s *VerifierService) refuseIfLocked(ctx context.Context, phone string) error {
	remaining, err := s.ledger.Remaining(ctx, phone)
	if err != nil {
		return err
	}
	if remaining > 0 {
		return &domain.LockoutError{Remaining: remaining}
	}
	return nil
}

// failVerification records the failure atomically, emits events and returns
// the uniform invalid-credentials outcome.
func (s *VerifierService) failVerification(ctx context.Context, phone string, subject domain.SubjectType, reason string) error {
	lockedNow, err := s.ledger.RecordFailure(ctx, phone)
	if err != nil {
		return err
	}

	count, countErr := s.ledger.FailureCount(ctx, phone)
	if countErr != nil {
		count = 0
	}

	subjectLabel := "staff"
	if subject == domain.SubjectTypeCustomer {
		subjectLabel = "customer"
	}
	s.metrics.RecordLogin(subjectLabel, "failure")

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventLoginFailed,
		Phone:     phone,
		Actor:     events.Actor{Type: subject},
		Timestamp: time.Now(),
		Payload:   events.LoginFailedPayload{Subject: subject, Reason: reason, Failures: count},
	})

	if lockedNow {
		s.metrics.RecordLockout()
		remaining, _ := s.ledger.Remaining(ctx, phone)
		s.publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventAccountLocked,
			Phone:     phone,
			Actor:     events.Actor{Type: subject},
			Timestamp: time.Now(),
			Payload:   events.AccountLockedPayload{UnlockAt: time.Now().Add(remaining)},
		})
	}

	return domain.ErrInvalidCredentials
}

func (s *VerifierService) publishLoginSucceeded(ctx context.Context, phone string, actor events.Actor, role *domain.Role) {
	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventLoginSucceeded,
		Phone:     phone,
		Actor:     actor,
		Timestamp: time.Now(),
		Payload:   events.LoginSucceededPayload{Subject: actor.Type, Role: role},
	})
}

func (s *VerifierService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
