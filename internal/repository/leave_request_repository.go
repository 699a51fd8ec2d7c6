package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/staffrep-bot/internal/domain"
)

// LeaveRequestRepository handles persistence for leave-of-absence requests.
type LeaveRequestRepository interface {
	Create(ctx context.Context, req *domain.LeaveRequest) error
	GetByID(ctx context.Context, id string) (*domain.LeaveRequest, error)
	UpdateStatus(ctx context.Context, id string, status domain.LeaveStatus, reviewerID string) (*domain.LeaveRequest, error)
	ListPending(ctx context.Context) ([]domain.LeaveRequest, error)
}

type leaveRequestRepository struct {
	pool *pgxpool.Pool
}

// NewLeaveRequestRepository instantiates the repository.
func NewLeaveRequestRepository(pool *pgxpool.Pool) LeaveRequestRepository {
	return &leaveRequestRepository{pool: pool}
}

func (r *leaveRequestRepository) Create(ctx context.Context, req *domain.LeaveRequest) error {
	const query = `
        INSERT INTO leave_requests (id, user_id, username, reason, starts_at, ends_at, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		req.ID,
		req.UserID,
		req.Username,
		req.Reason,
		req.StartsAt,
		req.EndsAt,
		req.Status,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
}

func (r *leaveRequestRepository) GetByID(ctx context.Context, id string) (*domain.LeaveRequest, error) {
	const query = `
        SELECT id, user_id, username, reason, starts_at, ends_at, status, reviewer_id, created_at, updated_at
        FROM leave_requests WHERE id=$1`

	var req domain.LeaveRequest
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&req.ID,
		&req.UserID,
		&req.Username,
		&req.Reason,
		&req.StartsAt,
		&req.EndsAt,
		&req.Status,
		&req.ReviewerID,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *leaveRequestRepository) UpdateStatus(ctx context.Context, id string, status domain.LeaveStatus, reviewerID string) (*domain.LeaveRequest, error) {
	const query = `
        UPDATE leave_requests
        SET status=$2, reviewer_id=$3, updated_at=NOW()
        WHERE id=$1
        RETURNING id, user_id, username, reason, starts_at, ends_at, status, reviewer_id, created_at, updated_at`

	var req domain.LeaveRequest
	if err := r.pool.QueryRow(ctx, query, id, status, reviewerID).Scan(
		&req.ID,
		&req.UserID,
		&req.Username,
		&req.Reason,
		&req.StartsAt,
		&req.EndsAt,
		&req.Status,
		&req.ReviewerID,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *leaveRequestRepository) ListPending(ctx context.Context) ([]domain.LeaveRequest, error) {
	const query = `
        SELECT id, user_id, username, reason, starts_at, ends_at, status, reviewer_id, created_at, updated_at
        FROM leave_requests
        WHERE status='PENDING'
        ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.LeaveRequest
	for rows.Next() {
		var req domain.LeaveRequest
		if err := rows.Scan(
			&req.ID,
			&req.UserID,
			&req.Username,
			&req.Reason,
			&req.StartsAt,
			&req.EndsAt,
			&req.Status,
			&req.ReviewerID,
			&req.CreatedAt,
			&req.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	return result, rows.Err()
}
