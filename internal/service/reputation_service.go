package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/staffrep-bot/internal/config"
	"github.com/spec-kit/staffrep-bot/internal/domain"
	"github.com/spec-kit/staffrep-bot/internal/events"
	"github.com/spec-kit/staffrep-bot/internal/repository"
	"github.com/spec-kit/staffrep-bot/internal/rolecache"
	apperrors "github.com/spec-kit/staffrep-bot/pkg/util"
)

// ReputationService applies point adjustments to staff users, enforcing
// manager authorization through the role cache and an award cooldown in Redis.
type ReputationService struct {
	users      repository.StaffUserRepository
	history    repository.PointHistoryRepository
	cache      *rolecache.Cache
	redis      *redis.Client
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.ReputationConfig
}

// ReputationDependencies encapsulates collaborators for the service.
type ReputationDependencies struct {
	UserRepo    repository.StaffUserRepository
	HistoryRepo repository.PointHistoryRepository
	RoleCache   *rolecache.Cache
	Redis       *redis.Client
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewReputationService constructs the service.
func NewReputationService(cfg config.ReputationConfig, deps ReputationDependencies) *ReputationService {
	return &ReputationService{
		users:      deps.UserRepo,
		history:    deps.HistoryRepo,
		cache:      deps.RoleCache,
		redis:      deps.Redis,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		cfg:        cfg,
	}
}

// AdjustPoints adds or removes reputation points for a staff member. The actor
// must hold a staff role strictly outranking the target's highest role.
func (s *ReputationService) AdjustPoints(ctx context.Context, actorID, targetID, targetUsername string, delta int, reason string) (*domain.StaffUser, error) {
	if delta == 0 {
		return nil, apperrors.NewValidationError("delta must be non-zero", nil)
	}
	if abs(delta) > s.cfg.MaxPointsPerAward {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("at most %d points per adjustment", s.cfg.MaxPointsPerAward),
			map[string]any{"delta": delta})
	}
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.NewValidationError("a reason is required", nil)
	}

	if err := s.authorizeManager(actorID, targetID); err != nil {
		return nil, err
	}
	if err := s.checkCooldown(ctx, actorID, targetID); err != nil {
		return nil, err
	}

	before, err := s.users.GetOrCreate(ctx, targetID, targetUsername)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	after, err := s.users.AddPoints(ctx, targetID, delta)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	entry := &domain.PointEntry{
		UserID:  targetID,
		ActorID: actorID,
		Delta:   delta,
		Total:   after.Points,
		Reason:  reason,
	}
	if err := s.history.Record(ctx, entry); err != nil {
		s.logger.Error("failed to record point history", zap.Error(err), zap.String("user_id", targetID))
	}

	s.publish(ctx, events.EventPointsChanged, targetID, actorID, events.PointsChangedPayload{
		Delta:    delta,
		Total:    after.Points,
		Reason:   reason,
		Username: after.Username,
	})
	s.evaluateThresholds(ctx, actorID, before.Points, after)

	return after, nil
}

// UserSummary returns the persistent record and recent history for a user,
// creating the record on first touch.
func (s *ReputationService) UserSummary(ctx context.Context, userID, username string) (*domain.StaffUser, []domain.PointEntry, error) {
	user, err := s.users.GetOrCreate(ctx, userID, username)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	entries, err := s.history.ListByUser(ctx, userID, s.cfg.HistoryPageSize)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return user, entries, nil
}

func (s *ReputationService) authorizeManager(actorID, targetID string) error {
	actorRole, ok := s.cache.HighestStaffRole(actorID)
	if !ok {
		return apperrors.NewForbidden("staff role required")
	}
	if actorID == targetID {
		return apperrors.NewForbidden("cannot adjust your own reputation")
	}
	if !s.cache.IsStaff(targetID) {
		return apperrors.NewValidationError("target is not a staff member", map[string]any{"user_id": targetID})
	}
	if targetRole, ok := s.cache.HighestStaffRole(targetID); ok && targetRole.Rank >= actorRole.Rank {
		return apperrors.NewForbidden("target holds an equal or higher staff role")
	}
	return nil
}

// checkCooldown acquires the per-actor/target cooldown key. A Redis outage is
// logged and treated as no cooldown: cache or store trouble never blocks the
// bot.
func (s *ReputationService) checkCooldown(ctx context.Context, actorID, targetID string) error {
	if s.redis == nil || s.cfg.AwardCooldown() <= 0 {
		return nil
	}
	key := fmt.Sprintf("rep:cooldown:%s:%s", actorID, targetID)
	acquired, err := s.redis.SetNX(ctx, key, time.Now().Unix(), s.cfg.AwardCooldown()).Result()
	if err != nil {
		s.logger.Warn("cooldown check failed, allowing adjustment", zap.Error(err))
		return nil
	}
	if !acquired {
		return apperrors.NewCooldown("you adjusted this member's points too recently",
			map[string]any{"cooldown_seconds": s.cfg.AwardCooldownSec})
	}
	return nil
}

func (s *ReputationService) evaluateThresholds(ctx context.Context, actorID string, before int, after *domain.StaffUser) {
	currentRole := ""
	if entry, ok := s.cache.HighestStaffRole(after.ID); ok {
		currentRole = entry.RoleName
	}

	if before < s.cfg.PromotionThreshold && after.Points >= s.cfg.PromotionThreshold {
		s.publish(ctx, events.EventPromotionEligible, after.ID, actorID, events.PromotionEligiblePayload{
			Total:       after.Points,
			Threshold:   s.cfg.PromotionThreshold,
			Username:    after.Username,
			CurrentRole: currentRole,
			NextRole:    s.nextRoleAbove(after.ID),
		})
	}
	if before > s.cfg.DemotionThreshold && after.Points <= s.cfg.DemotionThreshold {
		s.publish(ctx, events.EventDemotionWarning, after.ID, actorID, events.DemotionWarningPayload{
			Total:       after.Points,
			Threshold:   s.cfg.DemotionThreshold,
			Username:    after.Username,
			CurrentRole: currentRole,
		})
	}
}

// nextRoleAbove names the configured role one rank above the user's current
// highest, if any.
func (s *ReputationService) nextRoleAbove(userID string) string {
	current, ok := s.cache.HighestStaffRole(userID)
	if !ok {
		return ""
	}
	var next *rolecache.Entry
	for _, entry := range s.cache.RolesByRank(false) {
		if entry.Rank > current.Rank {
			next = entry
			break
		}
	}
	if next == nil {
		return ""
	}
	return next.RoleName
}

func (s *ReputationService) publish(ctx context.Context, eventType events.EventType, userID, actorID string, payload interface{}) {
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

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
