package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/farmops/identity-service/internal/auth"
	"github.com/farmops/identity-service/internal/domain"
	"github.com/farmops/identity-service/internal/events"
	"github.com/farmops/identity-service/internal/lockout"
	"github.com/farmops/identity-service/internal/observability"
)

const testAddressDomain = "auth.farm.test"

// harness wires the services against in-memory fakes and a miniredis-backed
// lockout ledger, the same topology main assembles against real backends.
type harness struct {
	staff        *fakeStaffRepo
	customers    *fakeCustomerRepo
	roles        *fakeRoleRepo
	business     *fakeBusinessRepo
	provider     *fakeProvider
	ledger       *lockout.Ledger
	redis        *miniredis.Miniredis
	metrics      *observability.Metrics
	verifier     *VerifierService
	reconciler   *ReconcilerService
	lifecycle    *LifecycleService
	registration *RegistrationService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	h := &harness{
		staff:     newFakeStaffRepo(),
		customers: newFakeCustomerRepo(),
		roles:     newFakeRoleRepo(),
		business:  newFakeBusinessRepo(),
		provider:  newFakeProvider(),
		ledger:    lockout.NewLedger(client, lockout.Config{}),
		redis:     mr,
		metrics:   observability.NewMetrics(),
	}

	logger := zap.NewNop()
	dispatcher := events.NewInMemoryDispatcher()

	h.verifier = NewVerifierService(VerifierDependencies{
		StaffRepo:    h.staff,
		CustomerRepo: h.customers,
		RoleRepo:     h.roles,
		Ledger:       h.ledger,
		Dispatcher:   dispatcher,
		Metrics:      h.metrics,
		Logger:       logger,
	})
	h.reconciler = NewReconcilerService(h.provider, testAddressDomain, logger)
	h.lifecycle = NewLifecycleService(LifecycleDependencies{
		StaffRepo:    h.staff,
		CustomerRepo: h.customers,
		RoleRepo:     h.roles,
		BusinessRepo: h.business,
		Provider:     h.provider,
		Ledger:       h.ledger,
		Verifier:     h.verifier,
		Dispatcher:   dispatcher,
		Logger:       logger,
		BcryptCost:   bcrypt.MinCost,
		AddrDomain:   testAddressDomain,
	})
	h.registration = NewRegistrationService(RegistrationDependencies{
		StaffRepo:    h.staff,
		CustomerRepo: h.customers,
		BusinessRepo: h.business,
		Dispatcher:   dispatcher,
		Logger:       logger,
		BcryptCost:   bcrypt.MinCost,
	})
	return h
}

func (h *harness) seedStaff(t *testing.T, name, phone, pin string, role domain.Role, active bool) *domain.StaffIdentity {
	t.Helper()
	staff := &domain.StaffIdentity{FullName: name, Phone: phone, Role: role, Active: active}
	if pin != "" {
		hash, err := auth.HashPIN(pin, bcrypt.MinCost)
		if err != nil {
			t.Fatalf("hash pin: %v", err)
		}
		staff.PINHash = &hash
	}
	if err := h.staff.Create(context.Background(), staff); err != nil {
		t.Fatalf("seed staff: %v", err)
	}
	if err := h.roles.Set(context.Background(), staff.ID, role); err != nil {
		t.Fatalf("seed role: %v", err)
	}
	return staff
}

func (h *harness) seedCustomer(t *testing.T, phone, pin string, approval domain.ApprovalState, customerRef *string) *domain.CustomerIdentity {
	t.Helper()
	customer := &domain.CustomerIdentity{Phone: phone, Approval: approval, CustomerRef: customerRef}
	if pin != "" {
		hash, err := auth.HashPIN(pin, bcrypt.MinCost)
		if err != nil {
			t.Fatalf("hash pin: %v", err)
		}
		customer.PINHash = &hash
	}
	if err := h.customers.Create(context.Background(), customer); err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return customer
}
