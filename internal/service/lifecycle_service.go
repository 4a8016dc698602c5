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
	"github.com/farmops/identity-service/internal/repository"
	"github.com/farmops/identity-service/internal/session"
)

// LifecycleService drives the account state machine:
//
//	nonexistent --provision--> active
//	active --deactivate--> inactive       (PIN cleared, role kept, row retained)
//	inactive --reactivate--> active       (new role and new PIN required)
//	active|inactive --permanentDelete--> nonexistent
//
// All transitions are guarded: the actor must hold super_admin, a super_admin
// target cannot be deactivated or deleted, and no identity can deactivate or
// delete itself.
type LifecycleService struct {
	staff         repository.StaffRepository
	customers     repository.CustomerRepository
	roles         repository.RoleRepository
	business      repository.BusinessCustomerRepository
	provider      session.Provider
	ledger        *lockout.Ledger
	verifier      *VerifierService
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	bcryptCost    int
	addressDomain string
}

// LifecycleDependencies encapsulates requirements for the lifecycle manager.
type LifecycleDependencies struct {
	StaffRepo    repository.StaffRepository
	CustomerRepo repository.CustomerRepository
	RoleRepo     repository.RoleRepository
	BusinessRepo repository.BusinessCustomerRepository
	Provider     session.Provider
	Ledger       *lockout.Ledger
	Verifier     *VerifierService
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	BcryptCost   int
	AddrDomain   string
}

// NewLifecycleService builds the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	return &LifecycleService{
		staff:         deps.StaffRepo,
		customers:     deps.CustomerRepo,
		roles:         deps.RoleRepo,
		business:      deps.BusinessRepo,
		provider:      deps.Provider,
		ledger:        deps.Ledger,
		verifier:      deps.Verifier,
		dispatcher:    deps.Dispatcher,
		logger:        deps.Logger,
		bcryptCost:    deps.BcryptCost,
		addressDomain: deps.AddrDomain,
	}
}

// ProvisionStaffInput carries the fields for a new staff account.
type ProvisionStaffInput struct {
	FullName string
	Phone    string
	PIN      string
	Role     domain.Role
}

// ProvisionStaff creates an active staff account and its role assignment.
func (s *LifecycleService) ProvisionStaff(ctx context.Context, actorID string, in ProvisionStaffInput) (*domain.StaffIdentity, error) {
	if _, err := s.requireSuperAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if in.FullName == "" {
		return nil, domain.ValidationError("full name required")
	}
	if err := auth.ValidatePhone(in.Phone); err != nil {
		return nil, err
	}
	if err := auth.ValidatePIN(in.PIN); err != nil {
		return nil, err
	}
	if !domain.ValidRole(in.Role) {
		return nil, domain.ValidationError("unknown role")
	}

	availability, err := s.CheckPhoneAvailability(ctx, in.Phone)
	if err != nil {
		return nil, err
	}
	switch availability {
	case domain.PhoneAvailable:
	case domain.PhoneOrphanedExternal:
		return nil, domain.ValidationError("phone has an orphaned external identity; clean it up before provisioning")
	default:
		return nil, domain.ErrPhoneTaken
	}

	hash, err := auth.HashPIN(in.PIN, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	staff := &domain.StaffIdentity{
		FullName: in.FullName,
		Phone:    in.Phone,
		PINHash:  &hash,
		Role:     in.Role,
		Active:   true,
	}
	if err := s.staff.Create(ctx, staff); err != nil {
		return nil, err
	}
	if err := s.roles.Set(ctx, staff.ID, in.Role); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventAccountProvisioned, staff.Phone,
		events.Actor{Type: domain.SubjectTypeStaff, StaffID: &actorID},
		events.AccountProvisionedPayload{Role: in.Role})
	return staff, nil
}

// AdminResetPIN replaces a target identity's PIN without knowing the current
// one. Works for staff and customer targets. The provider secret is updated
// best-effort; the reconciler repairs any remaining drift at next login.
func (s *LifecycleService) AdminResetPIN(ctx context.Context, actorID, targetID, newPIN string) error {
	if _, err := s.requireSuperAdmin(ctx, actorID); err != nil {
		return err
	}
	if err := auth.ValidatePIN(newPIN); err != nil {
		return err
	}

	hash, err := auth.HashPIN(newPIN, s.bcryptCost)
	if err != nil {
		return err
	}

	phone, subject, err := s.resetTargetPIN(ctx, targetID, hash)
	if err != nil {
		return err
	}

	if err := s.ledger.RecordSuccess(ctx, phone); err != nil {
		s.logger.Warn("failed to clear lockout after pin reset", zap.String("phone", phone), zap.Error(err))
	}
	s.updateProviderSecret(ctx, phone, newPIN)

	s.publish(ctx, events.EventPINChanged, phone,
		events.Actor{Type: subject, StaffID: &actorID},
		events.PINChangedPayload{ByAdmin: true})
	return nil
}

func (s *LifecycleService) resetTargetPIN(ctx context.Context, targetID, hash string) (string, domain.SubjectType, error) {
	if staff, err := s.staff.GetByID(ctx, targetID); err == nil {
		if err := s.staff.UpdatePIN(ctx, targetID, &hash); err != nil {
			return "", "", err
		}
		return staff.Phone, domain.SubjectTypeStaff, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return "", "", err
	}

	customer, err := s.customers.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", domain.ErrNotFound
		}
		return "", "", err
	}
	if err := s.customers.UpdatePIN(ctx, targetID, &hash); err != nil {
		return "", "", err
	}
	return customer.Phone, domain.SubjectTypeCustomer, nil
}

// ChangeOwnPIN verifies the current PIN through the full lockout-aware path
// before storing the new one. The new PIN is validated before any store is
// touched, so a malformed new PIN never alters the stored hash.
func (s *LifecycleService) ChangeOwnPIN(ctx context.Context, subject domain.SubjectType, identityID, currentPIN, newPIN string) error {
	if err := auth.ValidatePIN(newPIN); err != nil {
		return err
	}

	var phone string
	switch subject {
	case domain.SubjectTypeStaff:
		staff, err := s.staff.GetByID(ctx, identityID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}
		phone = staff.Phone
		if _, _, err := s.verifier.VerifyStaffPIN(ctx, phone, currentPIN); err != nil {
			return err
		}
		hash, err := auth.HashPIN(newPIN, s.bcryptCost)
		if err != nil {
			return err
		}
		if err := s.staff.UpdatePIN(ctx, identityID, &hash); err != nil {
			return err
		}
	case domain.SubjectTypeCustomer:
		customer, err := s.customers.GetByID(ctx, identityID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}
		phone = customer.Phone
		if _, err := s.verifier.VerifyCustomerPIN(ctx, phone, currentPIN); err != nil {
			return err
		}
		hash, err := auth.HashPIN(newPIN, s.bcryptCost)
		if err != nil {
			return err
		}
		if err := s.customers.UpdatePIN(ctx, identityID, &hash); err != nil {
			return err
		}
	default:
		return domain.ValidationError("unknown subject type")
	}

	s.updateProviderSecret(ctx, phone, newPIN)

	actor := events.Actor{Type: subject}
	if subject == domain.SubjectTypeStaff {
		actor.StaffID = &identityID
	} else {
		actor.CustomerID = &identityID
	}
	s.publish(ctx, events.EventPINChanged, phone, actor, events.PINChangedPayload{ByAdmin: false})
	return nil
}

// AdminUpdateStatus deactivates or reactivates a staff account. Deactivation
// clears the PIN and keeps the role assignment. Reactivation requires a fresh
// role and PIN.
func (s *LifecycleService) AdminUpdateStatus(ctx context.Context, actorID, targetID string, isActive bool, newRole *domain.Role, newPIN *string) error {
	actor, err := s.requireSuperAdmin(ctx, actorID)
	if err != nil {
		return err
	}

	target, err := s.staff.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}

	if !isActive {
		if err := s.guardProtectedTarget(ctx, actor.ID, target); err != nil {
			return err
		}
		if err := s.staff.UpdatePIN(ctx, target.ID, nil); err != nil {
			return err
		}
		if err := s.staff.UpdateStatus(ctx, target.ID, false); err != nil {
			return err
		}
	} else {
		if newRole == nil || newPIN == nil {
			return domain.ValidationError("reactivation requires a new role and a new pin")
		}
		if !domain.ValidRole(*newRole) {
			return domain.ValidationError("unknown role")
		}
		if err := auth.ValidatePIN(*newPIN); err != nil {
			return err
		}
		hash, err := auth.HashPIN(*newPIN, s.bcryptCost)
		if err != nil {
			return err
		}
		if err := s.staff.UpdatePIN(ctx, target.ID, &hash); err != nil {
			return err
		}
		if err := s.staff.UpdateStatus(ctx, target.ID, true); err != nil {
			return err
		}
		if err := s.roles.Set(ctx, target.ID, *newRole); err != nil {
			return err
		}
		s.updateProviderSecret(ctx, target.Phone, *newPIN)
	}

	s.publish(ctx, events.EventAccountStatusChanged, target.Phone,
		events.Actor{Type: domain.SubjectTypeStaff, StaffID: &actorID},
		events.AccountStatusChangedPayload{Active: isActive})
	return nil
}

// SetRole rewrites the authoritative role assignment for a staff identity.
func (s *LifecycleService) SetRole(ctx context.Context, actorID, targetID string, role domain.Role) error {
	if _, err := s.requireSuperAdmin(ctx, actorID); err != nil {
		return err
	}
	if !domain.ValidRole(role) {
		return domain.ValidationError("unknown role")
	}
	if _, err := s.staff.GetByID(ctx, targetID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	return s.roles.Set(ctx, targetID, role)
}

// PermanentDelete removes the identity from the credential store, the role
// registry and the hosted provider as one logical operation. The provider
// identity goes first: if that step fails the internal rows stay intact and
// the whole operation can be retried, so a partial delete never leaves an
// orphaned external identity blocking the phone number.
func (s *LifecycleService) PermanentDelete(ctx context.Context, actorID, targetID string) error {
	actor, err := s.requireSuperAdmin(ctx, actorID)
	if err != nil {
		return err
	}

	if staff, err := s.staff.GetByID(ctx, targetID); err == nil {
		if err := s.guardProtectedTarget(ctx, actor.ID, staff); err != nil {
			return err
		}
		if err := s.deleteProviderIdentity(ctx, staff.Phone, nil); err != nil {
			return err
		}
		// Role assignment cascades with the staff row.
		if err := s.staff.Delete(ctx, targetID); err != nil {
			return err
		}
		s.clearLedger(ctx, staff.Phone)
		s.publish(ctx, events.EventAccountDeleted, staff.Phone,
			events.Actor{Type: domain.SubjectTypeStaff, StaffID: &actorID},
			events.AccountDeletedPayload{Subject: domain.SubjectTypeStaff})
		return nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	customer, err := s.customers.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	if err := s.deleteProviderIdentity(ctx, customer.Phone, customer.ProviderIdentityID); err != nil {
		return err
	}
	if err := s.customers.Delete(ctx, targetID); err != nil {
		return err
	}
	s.clearLedger(ctx, customer.Phone)
	s.publish(ctx, events.EventAccountDeleted, customer.Phone,
		events.Actor{Type: domain.SubjectTypeStaff, StaffID: &actorID},
		events.AccountDeletedPayload{Subject: domain.SubjectTypeCustomer})
	return nil
}

// CheckPhoneAvailability classifies a phone number across the internal store
// and the hosted provider.
func (s *LifecycleService) CheckPhoneAvailability(ctx context.Context, phone string) (domain.PhoneAvailability, error) {
	if err := auth.ValidatePhone(phone); err != nil {
		return "", err
	}

	if staff, err := s.staff.GetByPhone(ctx, phone); err == nil {
		if staff.Active {
			return domain.PhoneInUseActive, nil
		}
		return domain.PhoneInUseInactive, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	if customer, err := s.customers.GetByPhone(ctx, phone); err == nil {
		if customer.Approval == domain.ApprovalRejected {
			return domain.PhoneInUseInactive, nil
		}
		return domain.PhoneInUseActive, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	address := session.SynthesizeAddress(phone, s.addressDomain)
	if _, err := s.provider.FindIdentity(ctx, address); err != nil {
		if errors.Is(err, session.ErrIdentityNotFound) {
			return domain.PhoneAvailable, nil
		}
		return "", err
	}
	return domain.PhoneOrphanedExternal, nil
}

// ApproveCustomer approves a pending registration and links it to a business
// customer record. When no explicit reference is given the customer's phone
// is matched against the business customer table.
func (s *LifecycleService) ApproveCustomer(ctx context.Context, actorID, customerID string, businessRef *string) error {
	if err := s.requireCustomerAdmin(ctx, actorID); err != nil {
		return err
	}

	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}

	ref := businessRef
	if ref == nil && customer.CustomerRef == nil {
		if bc, err := s.business.GetByPhone(ctx, customer.Phone); err == nil {
			ref = &bc.ID
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
	}
	if ref == nil && customer.CustomerRef == nil {
		return domain.ValidationError("no business customer record to link; supply one explicitly")
	}

	return s.customers.UpdateApproval(ctx, customerID, domain.ApprovalApproved, ref)
}

// RejectCustomer marks a registration rejected; the row is kept so the phone
// number stays visible as taken.
func (s *LifecycleService) RejectCustomer(ctx context.Context, actorID, customerID string) error {
	if err := s.requireCustomerAdmin(ctx, actorID); err != nil {
		return err
	}
	if err := s.customers.UpdateApproval(ctx, customerID, domain.ApprovalRejected, nil); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	return nil
}

// requireSuperAdmin loads the acting staff identity and checks its
// authoritative role assignment.
func (s *LifecycleService) requireSuperAdmin(ctx context.Context, actorID string) (*domain.StaffIdentity, error) {
	actor, err := s.staff.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if !actor.Active {
		return nil, domain.ErrUnauthorized
	}
	role, err := s.roles.Get(ctx, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if role != domain.RoleSuperAdmin {
		return nil, domain.ErrUnauthorized
	}
	return actor, nil
}

// requireCustomerAdmin allows the tiers with customer write access:
// super_admin and manager.
func (s *LifecycleService) requireCustomerAdmin(ctx context.Context, actorID string) error {
	actor, err := s.staff.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrUnauthorized
		}
		return err
	}
	if !actor.Active {
		return domain.ErrUnauthorized
	}
	role, err := s.roles.Get(ctx, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrUnauthorized
		}
		return err
	}
	if role != domain.RoleSuperAdmin && role != domain.RoleManager {
		return domain.ErrUnauthorized
	}
	return nil
}

// guardProtectedTarget enforces that a super_admin target is never
// deactivated or deleted and that no identity acts on itself.
func (s *LifecycleService) guardProtectedTarget(ctx context.Context, actorID string, target *domain.StaffIdentity) error {
	if actorID == target.ID {
		return domain.ErrUnauthorized
	}
	role, err := s.roles.Get(ctx, target.ID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if role == domain.RoleSuperAdmin {
		return domain.ErrUnauthorized
	}
	return nil
}

// deleteProviderIdentity removes the hosted identity for a phone number. A
// missing identity is success, which keeps the delete path retryable after a
// partial failure.
func (s *LifecycleService) deleteProviderIdentity(ctx context.Context, phone string, knownID *string) error {
	id := ""
	if knownID != nil {
		id = *knownID
	} else {
		address := session.SynthesizeAddress(phone, s.addressDomain)
		identity, err := s.provider.FindIdentity(ctx, address)
		if err != nil {
			if errors.Is(err, session.ErrIdentityNotFound) {
				return nil
			}
			return err
		}
		id = identity.ID
	}
	return s.provider.DeleteIdentity(ctx, id)
}

func (s *LifecycleService) updateProviderSecret(ctx context.Context, phone, pin string) {
	address := session.SynthesizeAddress(phone, s.addressDomain)
	identity, err := s.provider.FindIdentity(ctx, address)
	if err != nil {
		if !errors.Is(err, session.ErrIdentityNotFound) {
			s.logger.Warn("provider lookup failed during secret update", zap.String("address", address), zap.Error(err))
		}
		return
	}
	if err := s.provider.UpdateSecret(ctx, identity.ID, pin); err != nil {
		// Drift stays behind; the reconciler repairs it at next login.
		s.logger.Warn("provider secret update failed", zap.String("address", address), zap.Error(err))
	}
}

func (s *LifecycleService) clearLedger(ctx context.Context, phone string) {
	if err := s.ledger.RecordSuccess(ctx, phone); err != nil {
		s.logger.Warn("failed to clear lockout record", zap.String("phone", phone), zap.Error(err))
	}
}

func (s *LifecycleService) publish(ctx context.Context, eventType events.EventType, phone string, actor events.Actor, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Phone:     phone,
		Actor:     actor,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
