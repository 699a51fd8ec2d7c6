package domain

import "time"

// PointEntry records a single reputation adjustment applied to a staff user.
type PointEntry struct {
	ID        int64
	UserID    string
	ActorID   string
	Delta     int
	Total     int
	Reason    string
	CreatedAt time.Time
}
