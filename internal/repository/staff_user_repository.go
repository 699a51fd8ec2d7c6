package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/staffrep-bot/internal/domain"
)

// StaffUserRepository handles persistence for per-user reputation records.
type StaffUserRepository interface {
	GetOrCreate(ctx context.Context, id, username string) (*domain.StaffUser, error)
	GetByID(ctx context.Context, id string) (*domain.StaffUser, error)
	AddPoints(ctx context.Context, id string, delta int) (*domain.StaffUser, error)
	SetLOAStatus(ctx context.Context, id string, status domain.LOAStatus) error
	TopByPoints(ctx context.Context, limit int) ([]domain.StaffUser, error)
}

type staffUserRepository struct {
	pool *pgxpool.Pool
}

// NewStaffUserRepository instantiates the repository.
func NewStaffUserRepository(pool *pgxpool.Pool) StaffUserRepository {
	return &staffUserRepository{pool: pool}
}

func (r *staffUserRepository) GetOrCreate(ctx context.Context, id, username string) (*domain.StaffUser, error) {
	const query = `
        INSERT INTO staff_users (id, username, points, loa_status)
        VALUES ($1, $2, 0, 'NONE')
        ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username, updated_at = NOW()
        RETURNING id, username, points, loa_status, created_at, updated_at`

	var user domain.StaffUser
	if err := r.pool.QueryRow(ctx, query, id, username).Scan(
		&user.ID,
		&user.Username,
		&user.Points,
		&user.LOAStatus,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *staffUserRepository) GetByID(ctx context.Context, id string) (*domain.StaffUser, error) {
	const query = `
        SELECT id, username, points, loa_status, created_at, updated_at
        FROM staff_users WHERE id=$1`

	var user domain.StaffUser
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.Points,
		&user.LOAStatus,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *staffUserRepository) AddPoints(ctx context.Context, id string, delta int) (*domain.StaffUser, error) {
	const query = `
        UPDATE staff_users
        SET points = points + $2, updated_at = NOW()
        WHERE id=$1
        RETURNING id, username, points, loa_status, created_at, updated_at`

	var user domain.StaffUser
	if err := r.pool.QueryRow(ctx, query, id, delta).Scan(
		&user.ID,
		&user.Username,
		&user.Points,
		&user.LOAStatus,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *staffUserRepository) SetLOAStatus(ctx context.Context, id string, status domain.LOAStatus) error {
	const query = `
        UPDATE staff_users SET loa_status=$2, updated_at=NOW()
        WHERE id=$1`

	cmd, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *staffUserRepository) TopByPoints(ctx context.Context, limit int) ([]domain.StaffUser, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
        SELECT id, username, points, loa_status, created_at, updated_at
        FROM staff_users
        ORDER BY points DESC, username ASC
        LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StaffUser
	for rows.Next() {
		var user domain.StaffUser
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Points,
			&user.LOAStatus,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}
