package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farmops/identity-service/internal/domain"
)

// BusinessCustomerRepository reads the operational customer records owned by
// the billing/delivery subsystems. Registration matching only needs lookups.
type BusinessCustomerRepository interface {
	GetByID(ctx context.Context, id string) (*domain.BusinessCustomer, error)
	GetByPhone(ctx context.Context, phone string) (*domain.BusinessCustomer, error)
}

type businessCustomerRepository struct {
	pool *pgxpool.Pool
}

// NewBusinessCustomerRepository instantiates the repository.
func NewBusinessCustomerRepository(pool *pgxpool.Pool) BusinessCustomerRepository {
	return &businessCustomerRepository{pool: pool}
}

func (r *businessCustomerRepository) GetByID(ctx context.Context, id string) (*domain.BusinessCustomer, error) {
	const query = `
        SELECT id, name, phone, active_flag, created_at
        FROM business_customers WHERE id=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *businessCustomerRepository) GetByPhone(ctx context.Context, phone string) (*domain.BusinessCustomer, error) {
	const query = `
        SELECT id, name, phone, active_flag, created_at
        FROM business_customers WHERE phone=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, phone))
}

func (r *businessCustomerRepository) scanOne(row pgx.Row) (*domain.BusinessCustomer, error) {
	var bc domain.BusinessCustomer
	if err := row.Scan(&bc.ID, &bc.Name, &bc.Phone, &bc.Active, &bc.CreatedAt); err != nil {
		return nil, err
	}
	return &bc, nil
}
