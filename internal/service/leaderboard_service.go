package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/staffrep-bot/internal/config"
	"github.com/spec-kit/staffrep-bot/internal/repository"
	"github.com/spec-kit/staffrep-bot/internal/rolecache"
	apperrors "github.com/spec-kit/staffrep-bot/pkg/util"
)

const (
	leaderboardHashKey    = "leaderboard:hash"
	leaderboardMessageKey = "leaderboard:message_id"
)

// LeaderboardRow is one rendered leaderboard position.
type LeaderboardRow struct {
	Position int
	UserID   string
	Username string
	Points   int
	RoleName string
}

// LeaderboardService renders the staff points leaderboard and mirrors it into
// a configured channel, editing the previously posted message in place.
type LeaderboardService struct {
	users     repository.StaffUserRepository
	cache     *rolecache.Cache
	redis     *redis.Client
	messenger Messenger
	logger    *zap.Logger
	cfg       config.LeaderboardConfig
}

// LeaderboardDependencies encapsulates collaborators for the service.
type LeaderboardDependencies struct {
	UserRepo  repository.StaffUserRepository
	RoleCache *rolecache.Cache
	Redis     *redis.Client
	Messenger Messenger
	Logger    *zap.Logger
}

// NewLeaderboardService constructs the service.
func NewLeaderboardService(cfg config.LeaderboardConfig, deps LeaderboardDependencies) *LeaderboardService {
	return &LeaderboardService{
		users:     deps.UserRepo,
		cache:     deps.RoleCache,
		redis:     deps.Redis,
		messenger: deps.Messenger,
		logger:    deps.Logger,
		cfg:       cfg,
	}
}

// Build assembles the top rows, annotating each user with their highest
// cached staff role.
func (s *LeaderboardService) Build(ctx context.Context) ([]LeaderboardRow, error) {
	users, err := s.users.TopByPoints(ctx, s.cfg.Size)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	rows := make([]LeaderboardRow, 0, len(users))
	for i, user := range users {
		row := LeaderboardRow{
			Position: i + 1,
			UserID:   user.ID,
			Username: user.Username,
			Points:   user.Points,
		}
		if entry, ok := s.cache.HighestStaffRole(user.ID); ok {
			row.RoleName = entry.RoleName
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Render formats rows into the mirrored message content.
func (s *LeaderboardService) Render(rows []LeaderboardRow) string {
	if len(rows) == 0 {
		return "**Staff Leaderboard**\n\nNo points recorded yet."
	}
	var b strings.Builder
	b.WriteString("**Staff Leaderboard**\n\n")
	for _, row := range rows {
		medal := fmt.Sprintf("`#%d`", row.Position)
		switch row.Position {
		case 1:
			medal = "🥇"
		case 2:
			medal = "🥈"
		case 3:
			medal = "🥉"
		}
		b.WriteString(fmt.Sprintf("%s **%s**", medal, row.Username))
		if row.RoleName != "" {
			b.WriteString(fmt.Sprintf(" · %s", row.RoleName))
		}
		b.WriteString(fmt.Sprintf(" — %d points\n", row.Points))
	}
	return b.String()
}

// Mirror posts or edits the leaderboard message. A content hash stored in
// Redis skips the edit when nothing changed since the last mirror.
func (s *LeaderboardService) Mirror(ctx context.Context) error {
	if s.cfg.ChannelID == "" {
		return nil
	}

	rows, err := s.Build(ctx)
	if err != nil {
		return err
	}
	content := s.Render(rows)

	sum := sha256.Sum256([]byte(content))
	hash := hex.EncodeToString(sum[:])

	if prev, err := s.redisGet(ctx, leaderboardHashKey); err == nil && prev == hash {
		return nil
	}

	messageID, _ := s.redisGet(ctx, leaderboardMessageKey)
	if messageID != "" {
		if err := s.messenger.EditChannelMessage(s.cfg.ChannelID, messageID, content); err != nil {
			s.logger.Warn("leaderboard edit failed, reposting", zap.Error(err))
			messageID = ""
		}
	}
	if messageID == "" {
		messageID, err = s.messenger.SendChannelMessage(s.cfg.ChannelID, content)
		if err != nil {
			return apperrors.MapError(err)
		}
		s.redisSet(ctx, leaderboardMessageKey, messageID)
	}

	s.redisSet(ctx, leaderboardHashKey, hash)
	s.logger.Info("leaderboard mirrored",
		zap.String("channel_id", s.cfg.ChannelID),
		zap.Int("rows", len(rows)))
	return nil
}

func (s *LeaderboardService) redisGet(ctx context.Context, key string) (string, error) {
	if s.redis == nil {
		return "", errors.New("redis not configured")
	}
	val, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("redis get failed", zap.String("key", key), zap.Error(err))
		}
		return "", err
	}
	return val, nil
}

func (s *LeaderboardService) redisSet(ctx context.Context, key, value string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Set(ctx, key, value, 0).Err(); err != nil {
		s.logger.Warn("redis set failed", zap.String("key", key), zap.Error(err))
	}
}
