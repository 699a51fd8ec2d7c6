package rolecache

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// GuildProvider supplies guild membership data to the cache. The production
// implementation wraps the discord session; tests substitute a fake.
type GuildProvider interface {
	// FetchAllMembers returns the complete member list of the guild. This is
	// the expensive, rate-limited call the cache exists to amortize. Each
	// member's Roles slice must reflect the state at fetch time.
	FetchAllMembers(ctx context.Context, guildID string) ([]*discordgo.Member, error)

	// ResolveRole resolves a role id to its role object, or an error if the
	// role does not exist in the guild.
	ResolveRole(ctx context.Context, guildID, roleID string) (*discordgo.Role, error)
}
