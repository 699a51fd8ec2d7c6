package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/staffrep-bot/internal/config"
	"github.com/spec-kit/staffrep-bot/internal/events"
	apperrors "github.com/spec-kit/staffrep-bot/pkg/util"
)

func defaultRepConfig() config.ReputationConfig {
	return config.ReputationConfig{
		PromotionThreshold: 50,
		DemotionThreshold:  -10,
		MaxPointsPerAward:  10,
		HistoryPageSize:    10,
	}
}

type repFixture struct {
	svc        *ReputationService
	users      *fakeUserRepo
	history    *fakeHistoryRepo
	dispatcher events.Dispatcher
	received   *[]events.Event
}

// newRepFixture builds the service over a guild where "admin" outranks
// "senior" outranks "mod"; "civilian" holds no staff role.
func newRepFixture(t *testing.T, cfg config.ReputationConfig, rdb *redis.Client) repFixture {
	t.Helper()

	cache := newStaffCache(t, map[string][]string{
		"admin":    {"300"},
		"senior":   {"200"},
		"mod":      {"100"},
		"civilian": {},
	})

	users := newFakeUserRepo()
	history := &fakeHistoryRepo{}
	dispatcher := events.NewInMemoryDispatcher()

	var received []events.Event
	record := func(_ context.Context, e events.Event) error {
		received = append(received, e)
		return nil
	}
	dispatcher.Subscribe(events.EventPointsChanged, record)
	dispatcher.Subscribe(events.EventPromotionEligible, record)
	dispatcher.Subscribe(events.EventDemotionWarning, record)

	svc := NewReputationService(cfg, ReputationDependencies{
		UserRepo:    users,
		HistoryRepo: history,
		RoleCache:   cache,
		Redis:       rdb,
		Dispatcher:  dispatcher,
		Logger:      zap.NewNop(),
	})
	return repFixture{svc: svc, users: users, history: history, dispatcher: dispatcher, received: &received}
}

func eventTypes(received []events.Event) []events.EventType {
	out := make([]events.EventType, 0, len(received))
	for _, e := range received {
		out = append(out, e.Type)
	}
	return out
}

func TestAdjustPoints_HappyPath(t *testing.T) {
	f := newRepFixture(t, defaultRepConfig(), nil)

	user, err := f.svc.AdjustPoints(context.Background(), "admin", "mod", "mod-name", 5, "great event coverage")
	require.NoError(t, err)
	assert.Equal(t, 5, user.Points)

	entries, err := f.history.ListByUser(context.Background(), "mod", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 5, entries[0].Delta)
	assert.Equal(t, "admin", entries[0].ActorID)

	assert.Equal(t, []events.EventType{events.EventPointsChanged}, eventTypes(*f.received))
}

func TestAdjustPoints_Validation(t *testing.T) {
	f := newRepFixture(t, defaultRepConfig(), nil)
	ctx := context.Background()

	_, err := f.svc.AdjustPoints(ctx, "admin", "mod", "m", 0, "reason")
	assert.Error(t, err)

	_, err = f.svc.AdjustPoints(ctx, "admin", "mod", "m", 11, "reason")
	assert.Error(t, err)

	_, err = f.svc.AdjustPoints(ctx, "admin", "mod", "m", -11, "reason")
	assert.Error(t, err)

	_, err = f.svc.AdjustPoints(ctx, "admin", "mod", "m", 5, "   ")
	assert.Error(t, err)
}

func TestAdjustPoints_Authorization(t *testing.T) {
	f := newRepFixture(t, defaultRepConfig(), nil)
	ctx := context.Background()

	for _, tc := range []struct {
		name   string
		actor  string
		target string
		code   string
	}{
		{"non-staff actor", "civilian", "mod", "FORBIDDEN"},
		{"self adjustment", "admin", "admin", "FORBIDDEN"},
		{"target outranks actor", "mod", "admin", "FORBIDDEN"},
		{"target not staff", "admin", "civilian", "VALIDATION_FAILED"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.AdjustPoints(ctx, tc.actor, tc.target, "name", 3, "reason")
			require.Error(t, err)
			var domainErr *apperrors.DomainError
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, tc.code, domainErr.Code)
		})
	}
}

func TestAdjustPoints_PromotionThreshold(t *testing.T) {
	cfg := defaultRepConfig()
	cfg.PromotionThreshold = 8
	f := newRepFixture(t, cfg, nil)
	ctx := context.Background()

	_, err := f.svc.AdjustPoints(ctx, "admin", "mod", "m", 5, "first")
	require.NoError(t, err)
	assert.NotContains(t, eventTypes(*f.received), events.EventPromotionEligible)

	_, err = f.svc.AdjustPoints(ctx, "admin", "mod", "m", 5, "second")
	require.NoError(t, err)
	assert.Contains(t, eventTypes(*f.received), events.EventPromotionEligible)

	promotions := func() int {
		count := 0
		for _, e := range *f.received {
			if e.Type == events.EventPromotionEligible {
				payload, ok := e.Payload.(events.PromotionEligiblePayload)
				require.True(t, ok)
				assert.Equal(t, 10, payload.Total)
				assert.Equal(t, "Moderator", payload.CurrentRole)
				assert.Equal(t, "Senior Moderator", payload.NextRole)
				count++
			}
		}
		return count
	}
	assert.Equal(t, 1, promotions())

	// Already above the threshold: no second event.
	_, err = f.svc.AdjustPoints(ctx, "admin", "mod", "m", 5, "third")
	require.NoError(t, err)
	assert.Equal(t, 1, promotions())
}

func TestAdjustPoints_DemotionThreshold(t *testing.T) {
	cfg := defaultRepConfig()
	cfg.DemotionThreshold = -5
	f := newRepFixture(t, cfg, nil)
	ctx := context.Background()

	_, err := f.svc.AdjustPoints(ctx, "admin", "mod", "m", -6, "incident")
	require.NoError(t, err)
	assert.Contains(t, eventTypes(*f.received), events.EventDemotionWarning)
}

func TestAdjustPoints_Cooldown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := defaultRepConfig()
	cfg.AwardCooldownSec = 60
	f := newRepFixture(t, cfg, rdb)
	ctx := context.Background()

	_, err := f.svc.AdjustPoints(ctx, "admin", "mod", "m", 3, "first")
	require.NoError(t, err)

	_, err = f.svc.AdjustPoints(ctx, "admin", "mod", "m", 3, "too soon")
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "COOLDOWN_ACTIVE", domainErr.Code)

	// A different target is unaffected.
	_, err = f.svc.AdjustPoints(ctx, "admin", "senior", "s", 3, "other target")
	require.NoError(t, err)

	mr.FastForward(61 * time.Second)
	_, err = f.svc.AdjustPoints(ctx, "admin", "mod", "m", 3, "after cooldown")
	require.NoError(t, err)
}

func TestUserSummary_CreatesRecord(t *testing.T) {
	f := newRepFixture(t, defaultRepConfig(), nil)

	user, entries, err := f.svc.UserSummary(context.Background(), "mod", "mod-name")
	require.NoError(t, err)
	assert.Equal(t, 0, user.Points)
	assert.Empty(t, entries)
}
