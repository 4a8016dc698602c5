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
	"github.com/farmops/identity-service/internal/repository"
)

// RegistrationService handles customer self-registration. A phone number that
// matches an active business customer record is approved immediately and
// linked; anything else lands in pending state and gets no session until an
// administrator approves it.
type RegistrationService struct {
	staff      repository.StaffRepository
	customers  repository.CustomerRepository
	business   repository.BusinessCustomerRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// RegistrationDependencies encapsulates requirements for registration.
type RegistrationDependencies struct {
	StaffRepo    repository.StaffRepository
	CustomerRepo repository.CustomerRepository
	BusinessRepo repository.BusinessCustomerRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	BcryptCost   int
}

// NewRegistrationService builds the service.
func NewRegistrationService(deps RegistrationDependencies) *RegistrationService {
	return &RegistrationService{
		staff:      deps.StaffRepo,
		customers:  deps.CustomerRepo,
		business:   deps.BusinessRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		bcryptCost: deps.BcryptCost,
	}
}

// RegisterCustomer creates a customer login identity.
func (s *RegistrationService) RegisterCustomer(ctx context.Context, phone, pin string) (*domain.CustomerIdentity, error) {
	if err := auth.ValidatePhone(phone); err != nil {
		return nil, err
	}
	if err := auth.ValidatePIN(pin); err != nil {
		return nil, err
	}

	if _, err := s.customers.GetByPhone(ctx, phone); err == nil {
		return nil, domain.ErrPhoneTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if _, err := s.staff.GetByPhone(ctx, phone); err == nil {
		return nil, domain.ErrPhoneTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	approval := domain.ApprovalPending
	var customerRef *string
	matched := false
	if bc, err := s.business.GetByPhone(ctx, phone); err == nil && bc.Active {
		approval = domain.ApprovalApproved
		customerRef = &bc.ID
		matched = true
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPIN(pin, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	customer := &domain.CustomerIdentity{
		CustomerRef: customerRef,
		Phone:       phone,
		PINHash:     &hash,
		Approval:    approval,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventCustomerRegistered,
			Phone:     phone,
			Actor:     events.Actor{Type: domain.SubjectTypeCustomer, CustomerID: &customer.ID},
			Timestamp: time.Now(),
			Payload:   events.CustomerRegisteredPayload{Approval: approval, Matched: matched},
		})
	}

	s.logger.Info("customer registered",
		zap.String("customer_id", customer.ID),
		zap.String("approval", string(approval)))
	return customer, nil
}
