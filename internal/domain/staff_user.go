package domain

import "time"

// LOAStatus enumerates leave-of-absence states for a staff user.
type LOAStatus string

const (
	LOAStatusNone     LOAStatus = "NONE"
	LOAStatusPending  LOAStatus = "PENDING"
	LOAStatusApproved LOAStatus = "APPROVED"
)

// StaffUser is the persistent record tracked per staff member.
// The discord user id is the primary key; records are created lazily the
// first time a command touches a user.
type StaffUser struct {
	ID        string
	Username  string
	Points    int
	LOAStatus LOAStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
