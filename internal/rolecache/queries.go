package rolecache

import (
	"sort"
	"time"

	"github.com/bwmarrin/discordgo"
)

// RoleStats is one row of the per-role breakdown returned by Stats.
type RoleStats struct {
	RoleID      string `json:"role_id"`
	RoleName    string `json:"role_name"`
	Rank        int    `json:"rank"`
	MemberCount int    `json:"member_count"`
}

// Stats summarizes the current snapshot. OldestCacheAge is measured from the
// oldest LastUpdated across entries; when every entry is from the latest pass
// this equals the time since that pass completed.
type Stats struct {
	TotalRoles        int           `json:"total_roles"`
	TotalStaffMembers int           `json:"total_staff_members"`
	RoleBreakdown     []RoleStats   `json:"role_breakdown"`
	OldestCacheAge    time.Duration `json:"oldest_cache_age"`
	Generation        uint64        `json:"generation"`
}

// MembersByRole returns the cached member set for a role id. The returned map
// is the live snapshot and must not be mutated.
func (c *Cache) MembersByRole(roleID string) (map[string]*discordgo.Member, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[roleID]
	if !ok {
		return nil, false
	}
	return entry.Members, true
}

// MembersByRoleName returns the member set for the role with the given name.
// Names are unique by configuration validation, so the hierarchy-order scan
// has at most one match.
func (c *Cache) MembersByRoleName(name string) (map[string]*discordgo.Member, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, role := range c.hierarchy {
		if role.Name != name {
			continue
		}
		if entry, ok := c.entries[role.ID]; ok {
			return entry.Members, true
		}
		return nil, false
	}
	return nil, false
}

// MembersByRank returns the member set for the role with the given rank.
func (c *Cache) MembersByRank(rank int) (map[string]*discordgo.Member, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, role := range c.hierarchy {
		if role.Rank != rank {
			continue
		}
		if entry, ok := c.entries[role.ID]; ok {
			return entry.Members, true
		}
		return nil, false
	}
	return nil, false
}

// Role returns the cached role handle for a role id.
func (c *Cache) Role(roleID string) (*discordgo.Role, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[roleID]
	if !ok {
		return nil, false
	}
	return entry.Role, true
}

// HighestStaffRole returns the entry with the greatest rank among those whose
// member set contains the user. Hierarchy order breaks ties: the first
// maximum encountered wins.
func (c *Cache) HighestStaffRole(userID string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var best *Entry
	for _, role := range c.hierarchy {
		entry, ok := c.entries[role.ID]
		if !ok {
			continue
		}
		if _, member := entry.Members[userID]; !member {
			continue
		}
		if best == nil || entry.Rank > best.Rank {
			best = entry
		}
	}
	return best, best != nil
}

// IsStaff reports whether the user holds any configured staff role.
func (c *Cache) IsStaff(userID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, entry := range c.entries {
		if _, ok := entry.Members[userID]; ok {
			return true
		}
	}
	return false
}

// AllStaffMembers returns the union of all cached member sets, deduplicated
// by user id. Iteration follows hierarchy order, so when a user holds several
// staff roles the member object from the earliest configured role is kept.
func (c *Cache) AllStaffMembers() map[string]*discordgo.Member {
	c.mu.RLock()
	defer c.mu.RUnlock()

	union := make(map[string]*discordgo.Member)
	for _, role := range c.hierarchy {
		entry, ok := c.entries[role.ID]
		if !ok {
			continue
		}
		for id, member := range entry.Members {
			if _, seen := union[id]; !seen {
				union[id] = member
			}
		}
	}
	return union
}

// RolesByRank returns the cached entries ordered by rank.
func (c *Cache) RolesByRank(descending bool) []*Entry {
	c.mu.RLock()
	entries := make([]*Entry, 0, len(c.entries))
	for _, role := range c.hierarchy {
		if entry, ok := c.entries[role.ID]; ok {
			entries = append(entries, entry)
		}
	}
	c.mu.RUnlock()

	sort.SliceStable(entries, func(i, j int) bool {
		if descending {
			return entries[i].Rank > entries[j].Rank
		}
		return entries[i].Rank < entries[j].Rank
	})
	return entries
}

// Stats computes aggregate statistics over the current snapshot.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{
		TotalRoles:    len(c.entries),
		RoleBreakdown: make([]RoleStats, 0, len(c.entries)),
		Generation:    c.generation,
	}

	union := make(map[string]struct{})
	var oldest time.Time
	for _, role := range c.hierarchy {
		entry, ok := c.entries[role.ID]
		if !ok {
			continue
		}
		stats.RoleBreakdown = append(stats.RoleBreakdown, RoleStats{
			RoleID:      entry.RoleID,
			RoleName:    entry.RoleName,
			Rank:        entry.Rank,
			MemberCount: len(entry.Members),
		})
		for id := range entry.Members {
			union[id] = struct{}{}
		}
		if oldest.IsZero() || entry.LastUpdated.Before(oldest) {
			oldest = entry.LastUpdated
		}
	}
	stats.TotalStaffMembers = len(union)
	if !oldest.IsZero() {
		stats.OldestCacheAge = time.Since(oldest)
	}
	return stats
}
