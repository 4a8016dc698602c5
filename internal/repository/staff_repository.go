package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farmops/identity-service/internal/domain"
)

// StaffRepository handles persistence for staff identities.
type StaffRepository interface {
	Create(ctx context.Context, staff *domain.StaffIdentity) error
	Update(ctx context.Context, staff *domain.StaffIdentity) error
	UpdatePIN(ctx context.Context, id string, pinHash *string) error
	UpdateStatus(ctx context.Context, id string, active bool) error
	GetByID(ctx context.Context, id string) (*domain.StaffIdentity, error)
	GetByPhone(ctx context.Context, phone string) (*domain.StaffIdentity, error)
	List(ctx context.Context, filter StaffFilter) ([]domain.StaffIdentity, error)
	Delete(ctx context.Context, id string) error
}

// StaffFilter defines query params for staff listing.
type StaffFilter struct {
	Role   *domain.Role
	Active *bool
	Limit  int
	Offset int
}

type staffRepository struct {
	pool *pgxpool.Pool
}

// NewStaffRepository instantiates the repository.
func NewStaffRepository(pool *pgxpool.Pool) StaffRepository {
	return &staffRepository{pool: pool}
}

func (r *staffRepository) Create(ctx context.Context, staff *domain.StaffIdentity) error {
	const query = `
        INSERT INTO staff_identities (full_name, phone, pin_hash, role, active_flag)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		staff.FullName,
		staff.Phone,
		staff.PINHash,
		staff.Role,
		staff.Active,
	).Scan(&staff.ID, &staff.CreatedAt, &staff.UpdatedAt)
}

func (r *staffRepository) Update(ctx context.Context, staff *domain.StaffIdentity) error {
	const query = `
        UPDATE staff_identities
        SET full_name=$1, phone=$2, pin_hash=$3, role=$4, active_flag=$5, updated_at=NOW()
        WHERE id=$6`

	cmd, err := r.pool.Exec(ctx, query,
		staff.FullName,
		staff.Phone,
		staff.PINHash,
		staff.Role,
		staff.Active,
		staff.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *staffRepository) UpdatePIN(ctx context.Context, id string, pinHash *string) error {
	const query = `
        UPDATE staff_identities SET pin_hash=$1, updated_at=NOW()
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

func (r *staffRepository) UpdateStatus(ctx context.Context, id string, active bool) error {
	const query = `
        UPDATE staff_identities SET active_flag=$1, updated_at=NOW()
        WHERE id=$2`

	cmd, err := r.pool.Exec(ctx, query, active, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *staffRepository) GetByID(ctx context.Context, id string) (*domain.StaffIdentity, error) {
	const query = `
        SELECT id, full_name, phone, pin_hash, role, active_flag, created_at, updated_at
        FROM staff_identities WHERE id=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *staffRepository) GetByPhone(ctx context.Context, phone string) (*domain.StaffIdentity, error) {
	const query = `
        SELECT id, full_name, phone, pin_hash, role, active_flag, created_at, updated_at
        FROM staff_identities WHERE phone=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, phone))
}

func (r *staffRepository) scanOne(row pgx.Row) (*domain.StaffIdentity, error) {
	var staff domain.StaffIdentity
	if err := row.Scan(
		&staff.ID,
		&staff.FullName,
		&staff.Phone,
		&staff.PINHash,
		&staff.Role,
		&staff.Active,
		&staff.CreatedAt,
		&staff.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *staffRepository) List(ctx context.Context, filter StaffFilter) ([]domain.StaffIdentity, error) {
	query := `
        SELECT id, full_name, phone, pin_hash, role, active_flag, created_at, updated_at
        FROM staff_identities`
	args := []any{}
	clauses := []string{}

	if filter.Role != nil {
		args = append(args, *filter.Role)
		clauses = append(clauses, fmt.Sprintf("role=$%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("active_flag=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY created_at DESC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StaffIdentity
	for rows.Next() {
		var staff domain.StaffIdentity
		if err := rows.Scan(
			&staff.ID,
			&staff.FullName,
			&staff.Phone,
			&staff.PINHash,
			&staff.Role,
			&staff.Active,
			&staff.CreatedAt,
			&staff.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, staff)
	}
	return result, rows.Err()
}

// Delete removes the staff row. The role assignment row goes with it via the
// ON DELETE CASCADE constraint, so credential and role authority disappear as
// one statement.
func (r *staffRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM staff_identities WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
