package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farmops/identity-service/internal/domain"
)

// CustomerRepository handles persistence for customer login identities.
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.CustomerIdentity) error
	GetByID(ctx context.Context, id string) (*domain.CustomerIdentity, error)
	GetByPhone(ctx context.Context, phone string) (*domain.CustomerIdentity, error)
	UpdatePIN(ctx context.Context, id string, pinHash *string) error
	UpdateApproval(ctx context.Context, id string, state domain.ApprovalState, customerRef *string) error
	SetProviderIdentity(ctx context.Context, id string, providerIdentityID *string) error
	TouchLastLogin(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type customerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository instantiates the repository.
func NewCustomerRepository(pool *pgxpool.Pool) CustomerRepository {
	return &customerRepository{pool: pool}
}

func (r *customerRepository) Create(ctx context.Context, customer *domain.CustomerIdentity) error {
	const query = `
        INSERT INTO customer_identities (customer_ref, phone, pin_hash, approval_state, provider_identity_id)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		customer.CustomerRef,
		customer.Phone,
		customer.PINHash,
		customer.Approval,
		customer.ProviderIdentityID,
	).Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt)
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*domain.CustomerIdentity, error) {
	const query = `
        SELECT id, customer_ref, phone, pin_hash, approval_state, provider_identity_id, last_login_at, created_at, updated_at
        FROM customer_identities WHERE id=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *customerRepository) GetByPhone(ctx context.Context, phone string) (*domain.CustomerIdentity, error) {
	const query = `
        SELECT id, customer_ref, phone, pin_hash, approval_state, provider_identity_id, last_login_at, created_at, updated_at
        FROM customer_identities WHERE phone=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, phone))
}

func (r *customerRepository) scanOne(row pgx.Row) (*domain.CustomerIdentity, error) {
	var customer domain.CustomerIdentity
	if err := row.Scan(
		&customer.ID,
		&customer.CustomerRef,
		&customer.Phone,
		&customer.PINHash,
		&customer.Approval,
		&customer.ProviderIdentityID,
		&customer.LastLoginAt,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) UpdatePIN(ctx context.Context, id string, pinHash *string) error {
	const query = `
        UPDATE customer_identities SET pin_hash=$1, updated_at=NOW()
        WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, pinHash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *customerRepository) UpdateApproval(ctx context.Context, id string, state domain.ApprovalState, customerRef *string) error {
	const query = `
        UPDATE customer_identities SET approval_state=$1, customer_ref=COALESCE($2, customer_ref), updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, state, customerRef, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *customerRepository) SetProviderIdentity(ctx context.Context, id string, providerIdentityID *string) error {
	const query = `
        UPDATE customer_identities SET provider_identity_id=$1, updated_at=NOW()
        WHERE id=$2`
	_, err := r.pool.Exec(ctx, query, providerIdentityID, id)
	return err
}

func (r *customerRepository) TouchLastLogin(ctx context.Context, id string) error {
	const query = `
        UPDATE customer_identities SET last_login_at=NOW(), updated_at=NOW()
        WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *customerRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM customer_identities WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
