package discord

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/staffrep-bot/internal/config"
	"github.com/spec-kit/staffrep-bot/internal/domain"
	"github.com/spec-kit/staffrep-bot/internal/rolecache"
)

type staticProvider struct {
	members    []*discordgo.Member
	roles      map[string]*discordgo.Role
	fetchGate  chan struct{}
	fetchCalls atomic.Int32
}

func (p *staticProvider) FetchAllMembers(ctx context.Context, guildID string) ([]*discordgo.Member, error) {
	if p.fetchGate != nil && p.fetchCalls.Load() > 0 {
		<-p.fetchGate
	}
	p.fetchCalls.Add(1)
	return p.members, nil
}

func (p *staticProvider) ResolveRole(ctx context.Context, guildID, roleID string) (*discordgo.Role, error) {
	role, ok := p.roles[roleID]
	if !ok {
		return nil, discordgo.ErrStateNotFound
	}
	return role, nil
}

func testCache(t *testing.T) *rolecache.Cache {
	t.Helper()
	cache, _ := testCacheWithProvider(t, nil)
	return cache
}

func testCacheWithProvider(t *testing.T, fetchGate chan struct{}) (*rolecache.Cache, *staticProvider) {
	t.Helper()

	provider := &staticProvider{
		fetchGate: fetchGate,
		members: []*discordgo.Member{
			{User: &discordgo.User{ID: "u1", Username: "alice"}, Roles: []string{"r1"}},
			{User: &discordgo.User{ID: "u2", Username: "bob"}, Nick: "Bobby", Roles: []string{"r1"}},
			{User: &discordgo.User{ID: "u3", Username: "carol"}, Roles: []string{"r2"}},
		},
		roles: map[string]*discordgo.Role{
			"r1": {ID: "r1", Name: "Moderator"},
			"r2": {ID: "r2", Name: "Admin"},
		},
	}
	hierarchy := []domain.StaffRole{
		{ID: "r1", Name: "Moderator", Rank: 100},
		{ID: "r2", Name: "Admin", Rank: 200},
	}
	cache := rolecache.New(hierarchy, provider, rolecache.Options{}, zap.NewNop())
	cache.Initialize(context.Background(), "guild-1", false)
	return cache, provider
}

func TestTriggerRefresh_DoesNotBlockCaller(t *testing.T) {
	gate := make(chan struct{})
	cache, provider := testCacheWithProvider(t, gate)

	h := NewHandler(config.ReputationConfig{}, HandlerDependencies{
		RoleCache: cache,
		Logger:    zap.NewNop(),
	})

	returned := make(chan struct{})
	go func() {
		h.triggerRefresh()
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("triggerRefresh blocked on the member fetch")
	}

	// The background pass is still parked on the gate.
	assert.Equal(t, int32(1), provider.fetchCalls.Load())

	close(gate)
	require.Eventually(t, func() bool {
		return provider.fetchCalls.Load() == 2
	}, time.Second, 10*time.Millisecond)
}

func TestStaffChoices_FiltersAndSorts(t *testing.T) {
	cache := testCache(t)

	choices := staffChoices(cache, "")
	require.Len(t, choices, 3)
	assert.Equal(t, "Bobby", choices[0].Name)
	assert.Equal(t, "u2", choices[0].Value)

	choices = staffChoices(cache, "AL")
	require.Len(t, choices, 1)
	assert.Equal(t, "alice", choices[0].Name)

	assert.Empty(t, staffChoices(cache, "zzz"))
}

func TestDisplayName_PrefersNick(t *testing.T) {
	assert.Equal(t, "Bobby", displayName(&discordgo.Member{
		User: &discordgo.User{Username: "bob"},
		Nick: "Bobby",
	}))
	assert.Equal(t, "bob", displayName(&discordgo.Member{
		User: &discordgo.User{Username: "bob"},
	}))
	assert.Equal(t, "unknown", displayName(&discordgo.Member{}))
}

func TestInteractionUserID(t *testing.T) {
	guild := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Member: &discordgo.Member{User: &discordgo.User{ID: "u1"}},
	}}
	assert.Equal(t, "u1", interactionUserID(guild))

	dm := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		User: &discordgo.User{ID: "u2"},
	}}
	assert.Equal(t, "u2", interactionUserID(dm))
}

func TestOptionHelpers(t *testing.T) {
	opts := optionMap([]*discordgo.ApplicationCommandInteractionDataOption{
		{Name: "member", Type: discordgo.ApplicationCommandOptionString, Value: "u1"},
		{Name: "points", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(5)},
	})

	assert.Equal(t, "u1", stringOption(opts, "member"))
	assert.Equal(t, int64(5), intOption(opts, "points"))
	assert.Equal(t, "", stringOption(opts, "missing"))
	assert.Equal(t, int64(0), intOption(opts, "missing"))
}
