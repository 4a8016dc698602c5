package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/farmops/identity-service/internal/domain"
	"github.com/farmops/identity-service/internal/repository"
	"github.com/farmops/identity-service/internal/session"
)

// In-memory repository fakes. They mimic the pgx contract the services rely
// on: pgx.ErrNoRows for a miss.

type fakeStaffRepo struct {
	mu     sync.Mutex
	nextID int
	byID   map[string]*domain.StaffIdentity
}

func newFakeStaffRepo() *fakeStaffRepo {
	return &fakeStaffRepo{byID: make(map[string]*domain.StaffIdentity)}
}

func (r *fakeStaffRepo) Create(_ context.Context, staff *domain.StaffIdentity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	staff.ID = "staff-" + strconv.Itoa(r.nextID)
	staff.CreatedAt = time.Now()
	staff.UpdatedAt = staff.CreatedAt
	copied := *staff
	r.byID[staff.ID] = &copied
	return nil
}

func (r *fakeStaffRepo) Update(_ context.Context, staff *domain.StaffIdentity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[staff.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *staff
	r.byID[staff.ID] = &copied
	return nil
}

func (r *fakeStaffRepo) UpdatePIN(_ context.Context, id string, pinHash *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	staff, ok := r.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	staff.PINHash = pinHash
	return nil
}

func (r *fakeStaffRepo) UpdateStatus(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	staff, ok := r.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	staff.Active = active
	return nil
}

func (r *fakeStaffRepo) GetByID(_ context.Context, id string) (*domain.StaffIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	staff, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *staff
	return &copied, nil
}

func (r *fakeStaffRepo) GetByPhone(_ context.Context, phone string) (*domain.StaffIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, staff := range r.byID {
		if staff.Phone == phone {
			copied := *staff
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeStaffRepo) List(_ context.Context, _ repository.StaffFilter) ([]domain.StaffIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.StaffIdentity
	for _, staff := range r.byID {
		out = append(out, *staff)
	}
	return out, nil
}

func (r *fakeStaffRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.byID, id)
	return nil
}

type fakeCustomerRepo struct {
	mu     sync.Mutex
	nextID int
	byID   map[string]*domain.CustomerIdentity
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{byID: make(map[string]*domain.CustomerIdentity)}
}

func (r *fakeCustomerRepo) Create(_ context.Context, customer *domain.CustomerIdentity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	customer.ID = "customer-" + strconv.Itoa(r.nextID)
	customer.CreatedAt = time.Now()
	customer.UpdatedAt = customer.CreatedAt
	copied := *customer
	r.byID[customer.ID] = &copied
	return nil
}

func (r *fakeCustomerRepo) GetByID(_ context.Context, id string) (*domain.CustomerIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	customer, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *customer
	return &copied, nil
}

func (r *fakeCustomerRepo) GetByPhone(_ context.Context, phone string) (*domain.CustomerIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, customer := range r.byID {
		if customer.Phone == phone {
			copied := *customer
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeCustomerRepo) UpdatePIN(_ context.Context, id string, pinHash *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	customer, ok := r.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	customer.PINHash = pinHash
	return nil
}

func (r *fakeCustomerRepo) UpdateApproval(_ context.Context, id string, state domain.ApprovalState, customerRef *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	customer, ok := r.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	customer.Approval = state
	if customerRef != nil {
		customer.CustomerRef = customerRef
	}
	return nil
}

func (r *fakeCustomerRepo) SetProviderIdentity(_ context.Context, id string, providerIdentityID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	customer, ok := r.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	customer.ProviderIdentityID = providerIdentityID
	return nil
}

func (r *fakeCustomerRepo) TouchLastLogin(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	customer, ok := r.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	now := time.Now()
	customer.LastLoginAt = &now
	return nil
}

func (r *fakeCustomerRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.byID, id)
	return nil
}

type fakeRoleRepo struct {
	mu    sync.Mutex
	roles map[string]domain.Role
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{roles: make(map[string]domain.Role)}
}

func (r *fakeRoleRepo) Get(_ context.Context, staffID string) (domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.roles[staffID]
	if !ok {
		return "", pgx.ErrNoRows
	}
	return role, nil
}

func (r *fakeRoleRepo) Set(_ context.Context, staffID string, role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles[staffID] = role
	return nil
}

type fakeBusinessRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.BusinessCustomer
}

func newFakeBusinessRepo() *fakeBusinessRepo {
	return &fakeBusinessRepo{byID: make(map[string]*domain.BusinessCustomer)}
}

func (r *fakeBusinessRepo) add(id, name, phone string, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[id] = &domain.BusinessCustomer{ID: id, Name: name, Phone: phone, Active: active, CreatedAt: time.Now()}
}

func (r *fakeBusinessRepo) GetByID(_ context.Context, id string) (*domain.BusinessCustomer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bc, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *bc
	return &copied, nil
}

func (r *fakeBusinessRepo) GetByPhone(_ context.Context, phone string) (*domain.BusinessCustomer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, bc := range r.byID {
		if bc.Phone == phone {
			copied := *bc
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// fakeProvider simulates the hosted session provider, including drifted
// secrets and outages.
type fakeProvider struct {
	mu          sync.Mutex
	nextID      int
	identities  map[string]*fakeProviderIdentity // by address
	down        bool
	signIns     int
	creates     int
	updates     int
	deletes     int
	failCreates bool
}

type fakeProviderIdentity struct {
	id     string
	secret string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{identities: make(map[string]*fakeProviderIdentity)}
}

func (p *fakeProvider) seed(address, secret string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	id := "ext-" + strconv.Itoa(p.nextID)
	p.identities[address] = &fakeProviderIdentity{id: id, secret: secret}
	return id
}

func (p *fakeProvider) SignIn(_ context.Context, address, secret string) (*session.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signIns++
	if p.down {
		return nil, session.ErrUnavailable
	}
	identity, ok := p.identities[address]
	if !ok {
		return nil, session.ErrIdentityNotFound
	}
	if identity.secret != secret {
		return nil, session.ErrInvalidSecret
	}
	return &session.Session{
		AccessToken:  "access-" + identity.id,
		RefreshToken: "refresh-" + identity.id,
		ExpiresAt:    time.Now().Add(time.Hour),
		Identity:     session.Identity{ID: identity.id, Address: address},
	}, nil
}

func (p *fakeProvider) CreateIdentity(_ context.Context, address, secret string) (*session.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.creates++
	if p.down || p.failCreates {
		return nil, session.ErrUnavailable
	}
	if _, ok := p.identities[address]; ok {
		return nil, fmt.Errorf("%w: identity exists", session.ErrUnavailable)
	}
	p.nextID++
	id := "ext-" + strconv.Itoa(p.nextID)
	p.identities[address] = &fakeProviderIdentity{id: id, secret: secret}
	return &session.Identity{ID: id, Address: address}, nil
}

func (p *fakeProvider) FindIdentity(_ context.Context, address string) (*session.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.down {
		return nil, session.ErrUnavailable
	}
	identity, ok := p.identities[address]
	if !ok {
		return nil, session.ErrIdentityNotFound
	}
	return &session.Identity{ID: identity.id, Address: address}, nil
}

func (p *fakeProvider) UpdateSecret(_ context.Context, identityID, secret string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates++
	if p.down {
		return session.ErrUnavailable
	}
	for _, identity := range p.identities {
		if identity.id == identityID {
			identity.secret = secret
			return nil
		}
	}
	return session.ErrIdentityNotFound
}

func (p *fakeProvider) DeleteIdentity(_ context.Context, identityID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deletes++
	if p.down {
		return session.ErrUnavailable
	}
	for address, identity := range p.identities {
		if identity.id == identityID {
			delete(p.identities, address)
			return nil
		}
	}
	// Absent identity deletes are success so the flow stays retryable.
	return nil
}

func (p *fakeProvider) has(address string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.identities[address]
	return ok
}
