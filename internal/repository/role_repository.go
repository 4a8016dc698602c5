package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farmops/identity-service/internal/domain"
)

// RoleRepository is the authoritative role registry. One row per staff
// identity; this table, not the mutable profile row, is the only input to
// authorization decisions.
type RoleRepository interface {
	Get(ctx context.Context, staffID string) (domain.Role, error)
	Set(ctx context.Context, staffID string, role domain.Role) error
}

type roleRepository struct {
	pool *pgxpool.Pool
}

// NewRoleRepository instantiates the repository.
func NewRoleRepository(pool *pgxpool.Pool) RoleRepository {
	return &roleRepository{pool: pool}
}

func (r *roleRepository) Get(ctx context.Context, staffID string) (domain.Role, error) {
	const query = `SELECT role FROM role_assignments WHERE staff_id=$1`
	var role domain.Role
	if err := r.pool.QueryRow(ctx, query, staffID).Scan(&role); err != nil {
		return "", err
	}
	return role, nil
}

// Set upserts the assignment. Only the administrative lifecycle path calls
// this; the generic profile-update path has no write access to the table.
func (r *roleRepository) Set(ctx context.Context, staffID string, role domain.Role) error {
	const query = `
        INSERT INTO role_assignments (staff_id, role)
        VALUES ($1,$2)
        ON CONFLICT (staff_id) DO UPDATE SET role=EXCLUDED.role, updated_at=NOW()`
	_, err := r.pool.Exec(ctx, query, staffID, role)
	return err
}
