package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/staffrep-bot/internal/domain"
)

// PointHistoryRepository records every reputation adjustment for auditability.
type PointHistoryRepository interface {
	Record(ctx context.Context, entry *domain.PointEntry) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.PointEntry, error)
}

type pointHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewPointHistoryRepository instantiates the repository.
func NewPointHistoryRepository(pool *pgxpool.Pool) PointHistoryRepository {
	return &pointHistoryRepository{pool: pool}
}

func (r *pointHistoryRepository) Record(ctx context.Context, entry *domain.PointEntry) error {
	const query = `
        INSERT INTO point_history (user_id, actor_id, delta, total, reason)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		entry.UserID,
		entry.ActorID,
		entry.Delta,
		entry.Total,
		entry.Reason,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *pointHistoryRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.PointEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
        SELECT id, user_id, actor_id, delta, total, reason, created_at
        FROM point_history
        WHERE user_id=$1
        ORDER BY created_at DESC
        LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PointEntry
	for rows.Next() {
		var entry domain.PointEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.ActorID,
			&entry.Delta,
			&entry.Total,
			&entry.Reason,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
