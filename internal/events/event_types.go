package events

import (
	"time"

	"github.com/spec-kit/staffrep-bot/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventPointsChanged     EventType = "points_changed"
	EventPromotionEligible EventType = "promotion_eligible"
	EventDemotionWarning   EventType = "demotion_warning"
	EventLOARequested      EventType = "loa_requested"
	EventLOADecided        EventType = "loa_decided"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// PointsChangedPayload payload.
type PointsChangedPayload struct {
	Delta    int    `json:"delta"`
	Total    int    `json:"total"`
	Reason   string `json:"reason,omitempty"`
	Username string `json:"username"`
}

// PromotionEligiblePayload payload.
type PromotionEligiblePayload struct {
	Total       int    `json:"total"`
	Threshold   int    `json:"threshold"`
	Username    string `json:"username"`
	CurrentRole string `json:"current_role,omitempty"`
	NextRole    string `json:"next_role,omitempty"`
}

// DemotionWarningPayload payload.
type DemotionWarningPayload struct {
	Total       int    `json:"total"`
	Threshold   int    `json:"threshold"`
	Username    string `json:"username"`
	CurrentRole string `json:"current_role,omitempty"`
}

// LOARequestedPayload payload.
type LOARequestedPayload struct {
	RequestID string    `json:"request_id"`
	Username  string    `json:"username"`
	Reason    string    `json:"reason"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
}

// LOADecidedPayload payload.
type LOADecidedPayload struct {
	RequestID string             `json:"request_id"`
	Username  string             `json:"username"`
	Verdict   domain.LeaveStatus `json:"verdict"`
}
