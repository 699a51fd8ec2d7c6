package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/staffrep-bot/internal/domain"
	"github.com/spec-kit/staffrep-bot/internal/events"
	"github.com/spec-kit/staffrep-bot/internal/repository"
	"github.com/spec-kit/staffrep-bot/internal/rolecache"
	apperrors "github.com/spec-kit/staffrep-bot/pkg/util"
)

// Leave request button custom ids look like "loa:approve:<request-id>".
const (
	loaButtonPrefix   = "loa"
	LOAVerdictApprove = "approve"
	LOAVerdictDeny    = "deny"
)

// LeaveService manages leave-of-absence requests and their button-driven
// review flow.
type LeaveService struct {
	users      repository.StaffUserRepository
	leaves     repository.LeaveRequestRepository
	cache      *rolecache.Cache
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// LeaveDependencies encapsulates collaborators for the service.
type LeaveDependencies struct {
	UserRepo   repository.StaffUserRepository
	LeaveRepo  repository.LeaveRequestRepository
	RoleCache  *rolecache.Cache
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewLeaveService constructs the service.
func NewLeaveService(deps LeaveDependencies) *LeaveService {
	return &LeaveService{
		users:      deps.UserRepo,
		leaves:     deps.LeaveRepo,
		cache:      deps.RoleCache,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// Request files a new leave request for a staff member.
func (s *LeaveService) Request(ctx context.Context, userID, username, reason string, startsAt, endsAt time.Time) (*domain.LeaveRequest, error) {
	if !s.cache.IsStaff(userID) {
		return nil, apperrors.NewForbidden("staff role required")
	}
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.NewValidationError("a reason is required", nil)
	}
	if !endsAt.After(startsAt) {
		return nil, apperrors.NewValidationError("end must be after start", nil)
	}
	if endsAt.Before(time.Now()) {
		return nil, apperrors.NewValidationError("leave period is already over", nil)
	}

	user, err := s.users.GetOrCreate(ctx, userID, username)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if user.LOAStatus != domain.LOAStatusNone {
		return nil, apperrors.NewConflict("a leave request is already pending or active",
			map[string]any{"status": user.LOAStatus})
	}

	req := &domain.LeaveRequest{
		ID:       uuid.NewString(),
		UserID:   userID,
		Username: username,
		Reason:   reason,
		StartsAt: startsAt,
		EndsAt:   endsAt,
		Status:   domain.LeaveStatusPending,
	}
	if err := s.leaves.Create(ctx, req); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.users.SetLOAStatus(ctx, userID, domain.LOAStatusPending); err != nil {
		s.logger.Error("failed to flag user LOA status", zap.Error(err), zap.String("user_id", userID))
	}

	s.publish(ctx, events.EventLOARequested, userID, "", events.LOARequestedPayload{
		RequestID: req.ID,
		Username:  username,
		Reason:    reason,
		StartsAt:  startsAt,
		EndsAt:    endsAt,
	})
	return req, nil
}

// Decide resolves a pending request. The reviewer must hold a staff role
// strictly outranking the requester's.
func (s *LeaveService) Decide(ctx context.Context, reviewerID, requestID string, approve bool) (*domain.LeaveRequest, error) {
	req, err := s.leaves.GetByID(ctx, requestID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if req.Status != domain.LeaveStatusPending {
		return nil, apperrors.NewConflict("request already decided", map[string]any{"status": req.Status})
	}
	if reviewerID == req.UserID {
		return nil, apperrors.NewForbidden("cannot review your own leave request")
	}

	reviewerRole, ok := s.cache.HighestStaffRole(reviewerID)
	if !ok {
		return nil, apperrors.NewForbidden("staff role required")
	}
	if requesterRole, ok := s.cache.HighestStaffRole(req.UserID); ok && requesterRole.Rank >= reviewerRole.Rank {
		return nil, apperrors.NewForbidden("requester holds an equal or higher staff role")
	}

	status := domain.LeaveStatusDenied
	loaStatus := domain.LOAStatusNone
	if approve {
		status = domain.LeaveStatusApproved
		loaStatus = domain.LOAStatusApproved
	}

	updated, err := s.leaves.UpdateStatus(ctx, requestID, status, reviewerID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.users.SetLOAStatus(ctx, req.UserID, loaStatus); err != nil {
		s.logger.Error("failed to update user LOA status", zap.Error(err), zap.String("user_id", req.UserID))
	}

	s.publish(ctx, events.EventLOADecided, req.UserID, reviewerID, events.LOADecidedPayload{
		RequestID: requestID,
		Username:  req.Username,
		Verdict:   status,
	})
	return updated, nil
}

// Pending lists requests awaiting review.
func (s *LeaveService) Pending(ctx context.Context) ([]domain.LeaveRequest, error) {
	reqs, err := s.leaves.ListPending(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return reqs, nil
}

// ButtonID renders the custom id carried by an approve/deny button.
func ButtonID(verdict, requestID string) string {
	return fmt.Sprintf("%s:%s:%s", loaButtonPrefix, verdict, requestID)
}

// ParseButtonID extracts the verdict and request id from a button custom id.
func ParseButtonID(customID string) (approve bool, requestID string, err error) {
	parts := strings.SplitN(customID, ":", 3)
	if len(parts) != 3 || parts[0] != loaButtonPrefix {
		return false, "", fmt.Errorf("not a leave request button: %q", customID)
	}
	switch parts[1] {
	case LOAVerdictApprove:
		return true, parts[2], nil
	case LOAVerdictDeny:
		return false, parts[2], nil
	default:
		return false, "", fmt.Errorf("unknown verdict %q", parts[1])
	}
}

func (s *LeaveService) publish(ctx context.Context, eventType events.EventType, userID, actorID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		ActorID:   actorID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
