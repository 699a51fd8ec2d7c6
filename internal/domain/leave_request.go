package domain

import "time"

// LeaveStatus enumerates leave request review states.
type LeaveStatus string

const (
	LeaveStatusPending  LeaveStatus = "PENDING"
	LeaveStatusApproved LeaveStatus = "APPROVED"
	LeaveStatusDenied   LeaveStatus = "DENIED"
)

// LeaveRequest models a leave-of-absence request awaiting manager review.
type LeaveRequest struct {
	ID         string
	UserID     string
	Username   string
	Reason     string
	StartsAt   time.Time
	EndsAt     time.Time
	Status     LeaveStatus
	ReviewerID *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
