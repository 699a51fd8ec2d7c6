package rolecache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/spec-kit/staffrep-bot/internal/domain"
)

// Entry is the cached snapshot for one configured staff role. Members is
// replaced wholesale on every refresh pass, never patched in place; callers
// must treat it as read-only. Generation identifies the refresh pass that
// produced the entry, so an entry surviving from an earlier pass (because its
// role failed to resolve) is distinguishable from a fresh one.
type Entry struct {
	RoleID      string
	RoleName    string
	Rank        int
	Role        *discordgo.Role
	Members     map[string]*discordgo.Member
	LastUpdated time.Time
	Generation  uint64
}

// Options tune refresh scheduling.
type Options struct {
	// RefreshInterval is the auto-refresh period. Defaults to five minutes.
	RefreshInterval time.Duration
	// AbandonTimeout bounds how long a refresh pass may stay in flight before
	// a later trigger may reclaim the guard. Defaults to two minutes.
	AbandonTimeout time.Duration
}

// Cache maintains an eventually-consistent index of which guild members hold
// which configured staff role. It is constructed once at startup and handed to
// the handlers that need it. All failure is absorbed and logged; queries over
// a stale or empty cache return stale or empty results rather than errors.
type Cache struct {
	hierarchy    []domain.StaffRole
	provider     GuildProvider
	interval     time.Duration
	abandonAfter time.Duration
	logger       *zap.Logger

	mu         sync.RWMutex
	guildID    string
	entries    map[string]*Entry
	generation uint64

	flightMu    sync.Mutex
	inFlight    bool
	flightStart time.Time

	timerMu sync.Mutex
	stopCh  chan struct{}
}

// New constructs a cache over the given staff hierarchy. The hierarchy is
// treated as read-only for the cache lifetime.
func New(hierarchy []domain.StaffRole, provider GuildProvider, opts Options, logger *zap.Logger) *Cache {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 5 * time.Minute
	}
	if opts.AbandonTimeout <= 0 {
		opts.AbandonTimeout = 2 * time.Minute
	}
	return &Cache{
		hierarchy:    hierarchy,
		provider:     provider,
		interval:     opts.RefreshInterval,
		abandonAfter: opts.AbandonTimeout,
		logger:       logger,
		entries:      make(map[string]*Entry),
	}
}

// Initialize binds the cache to a guild, performs one synchronous refresh,
// and, when autoUpdate is set, starts the periodic refresh timer. A timer
// already running is left alone, so calling Initialize again rebinds and
// re-refreshes without doubling the tick.
func (c *Cache) Initialize(ctx context.Context, guildID string, autoUpdate bool) {
	if guildID == "" {
		c.logger.Warn("role cache initialize called without a guild id")
		return
	}

	c.mu.Lock()
	c.guildID = guildID
	c.mu.Unlock()

	c.Refresh(ctx)

	if autoUpdate {
		c.startAutoUpdate(ctx)
	}
}

// Refresh runs one full refresh pass: a single bulk member fetch, then one
// cache entry rebuilt per configured role from that snapshot. A pass already
// in flight causes the call to be dropped, not queued. Nothing is returned;
// failures leave the previous snapshot intact and are only observable through
// Stats and entry generations.
func (c *Cache) Refresh(ctx context.Context) {
	c.mu.RLock()
	guildID := c.guildID
	c.mu.RUnlock()

	if guildID == "" {
		c.logger.Warn("role cache refresh skipped: no guild bound")
		return
	}

	if !c.beginPass() {
		c.logger.Warn("role cache refresh skipped: pass already in flight")
		return
	}
	defer c.endPass()

	members, err := c.provider.FetchAllMembers(ctx, guildID)
	if err != nil {
		c.logger.Error("role cache member fetch failed, keeping previous snapshot", zap.Error(err))
		return
	}

	now := time.Now()

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	updated := 0
	for _, role := range c.hierarchy {
		handle, err := c.provider.ResolveRole(ctx, guildID, role.ID)
		if err != nil || handle == nil {
			c.logger.Warn("staff role not found in guild, skipping",
				zap.String("role_id", role.ID),
				zap.String("role_name", role.Name),
				zap.Error(err))
			continue
		}

		set := make(map[string]*discordgo.Member)
		for _, m := range members {
			if m.User == nil {
				continue
			}
			if slices.Contains(m.Roles, role.ID) {
				set[m.User.ID] = m
			}
		}

		entry := &Entry{
			RoleID:      role.ID,
			RoleName:    role.Name,
			Rank:        role.Rank,
			Role:        handle,
			Members:     set,
			LastUpdated: now,
			Generation:  gen,
		}

		c.mu.Lock()
		c.entries[role.ID] = entry
		c.mu.Unlock()
		updated++
	}

	c.logger.Info("role cache refreshed",
		zap.Uint64("generation", gen),
		zap.Int("roles_updated", updated),
		zap.Int("roles_configured", len(c.hierarchy)),
		zap.Int("guild_members", len(members)))
}

// beginPass claims the refresh guard. A pass that has been in flight longer
// than the abandon timeout is declared abandoned and its guard reclaimed, so
// a hung provider call cannot wedge refreshing until restart. The guard is
// advisory: an abandoned pass that eventually returns will clear the flag of
// its successor.
func (c *Cache) beginPass() bool {
	c.flightMu.Lock()
	defer c.flightMu.Unlock()

	if c.inFlight {
		if time.Since(c.flightStart) < c.abandonAfter {
			return false
		}
		c.logger.Warn("role cache refresh pass abandoned, reclaiming guard",
			zap.Duration("in_flight_for", time.Since(c.flightStart)))
	}
	c.inFlight = true
	c.flightStart = time.Now()
	return true
}

func (c *Cache) endPass() {
	c.flightMu.Lock()
	c.inFlight = false
	c.flightMu.Unlock()
}

func (c *Cache) startAutoUpdate(ctx context.Context) {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()

	if c.stopCh != nil {
		return
	}
	stop := make(chan struct{})
	c.stopCh = stop

	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Refresh(ctx)
			}
		}
	}()

	c.logger.Info("role cache auto-refresh started", zap.Duration("interval", c.interval))
}

// StopAutoUpdate cancels the periodic refresh timer. Idempotent.
func (c *Cache) StopAutoUpdate() {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()

	if c.stopCh == nil {
		return
	}
	close(c.stopCh)
	c.stopCh = nil
	c.logger.Info("role cache auto-refresh stopped")
}

// Clear empties all cached entries. The guild binding and any running timer
// are untouched; the next refresh repopulates from scratch.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*Entry)
	c.mu.Unlock()
}
