package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/staffrep-bot/internal/config"
)

func newLeaderboardFixture(t *testing.T, channelID string) (*LeaderboardService, *fakeUserRepo, *fakeMessenger) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cache := newStaffCache(t, map[string][]string{
		"alice": {"300"},
		"bob":   {"100"},
	})

	users := newFakeUserRepo()
	messenger := &fakeMessenger{}

	svc := NewLeaderboardService(config.LeaderboardConfig{
		ChannelID: channelID,
		Size:      10,
	}, LeaderboardDependencies{
		UserRepo:  users,
		RoleCache: cache,
		Redis:     rdb,
		Messenger: messenger,
		Logger:    zap.NewNop(),
	})
	return svc, users, messenger
}

func seedPoints(t *testing.T, users *fakeUserRepo, points map[string]int) {
	t.Helper()
	ctx := context.Background()
	for id, pts := range points {
		_, err := users.GetOrCreate(ctx, id, "user-"+id)
		require.NoError(t, err)
		_, err = users.AddPoints(ctx, id, pts)
		require.NoError(t, err)
	}
}

func TestLeaderboardBuild_AnnotatesRoles(t *testing.T) {
	svc, users, _ := newLeaderboardFixture(t, "chan-1")
	seedPoints(t, users, map[string]int{"alice": 30, "bob": 50})

	rows, err := svc.Build(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "bob", rows[0].UserID)
	assert.Equal(t, 50, rows[0].Points)
	assert.Equal(t, "Moderator", rows[0].RoleName)

	assert.Equal(t, "alice", rows[1].UserID)
	assert.Equal(t, "Admin", rows[1].RoleName)
}

func TestLeaderboardRender(t *testing.T) {
	svc, _, _ := newLeaderboardFixture(t, "chan-1")

	empty := svc.Render(nil)
	assert.Contains(t, empty, "No points recorded yet")

	content := svc.Render([]LeaderboardRow{
		{Position: 1, Username: "bob", Points: 50, RoleName: "Moderator"},
		{Position: 2, Username: "alice", Points: 30},
	})
	assert.Contains(t, content, "🥇")
	assert.Contains(t, content, "bob")
	assert.Contains(t, content, "50 points")
}

func TestLeaderboardMirror_PostsThenEdits(t *testing.T) {
	svc, users, messenger := newLeaderboardFixture(t, "chan-1")
	seedPoints(t, users, map[string]int{"alice": 30, "bob": 50})
	ctx := context.Background()

	require.NoError(t, svc.Mirror(ctx))
	require.Len(t, messenger.sent, 1)
	assert.Equal(t, "chan-1", messenger.sent[0].channelID)

	// Unchanged content: no repost, no edit.
	require.NoError(t, svc.Mirror(ctx))
	assert.Len(t, messenger.sent, 1)
	assert.Empty(t, messenger.edited)

	// Changed standings: existing message edited in place.
	_, err := users.AddPoints(ctx, "alice", 100)
	require.NoError(t, err)
	require.NoError(t, svc.Mirror(ctx))
	assert.Len(t, messenger.sent, 1)
	require.Len(t, messenger.edited, 1)
	assert.Equal(t, messenger.sent[0].messageID, messenger.edited[0].messageID)
}

func TestLeaderboardMirror_NoChannelConfigured(t *testing.T) {
	svc, users, messenger := newLeaderboardFixture(t, "")
	seedPoints(t, users, map[string]int{"alice": 10})

	require.NoError(t, svc.Mirror(context.Background()))
	assert.Empty(t, messenger.sent)
}
