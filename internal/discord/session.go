package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/spec-kit/staffrep-bot/internal/config"
)

// memberPageSize is the discord API maximum for one GuildMembers page.
const memberPageSize = 1000

// Session wraps the discord gateway connection. It implements
// rolecache.GuildProvider and service.Messenger so the rest of the bot never
// touches discordgo directly.
type Session struct {
	dg      *discordgo.Session
	logger  *zap.Logger
	guildID string
}

// NewSession builds a configured but unopened gateway session.
func NewSession(cfg config.DiscordConfig, logger *zap.Logger) (*Session, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("discord token not configured")
	}
	dg, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, err
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers
	dg.StateEnabled = true

	return &Session{dg: dg, logger: logger, guildID: cfg.GuildID}, nil
}

// Open connects to the gateway.
func (s *Session) Open() error {
	if err := s.dg.Open(); err != nil {
		return err
	}
	s.logger.Info("connected to discord gateway", zap.String("guild_id", s.guildID))
	return nil
}

// Close disconnects from the gateway.
func (s *Session) Close() {
	if err := s.dg.Close(); err != nil {
		s.logger.Warn("error closing discord session", zap.Error(err))
	}
}

// Raw exposes the underlying discordgo session for handler registration.
func (s *Session) Raw() *discordgo.Session {
	return s.dg
}

// GuildID returns the guild this bot is bound to.
func (s *Session) GuildID() string {
	return s.guildID
}

// FetchAllMembers pages through the full guild member list. This is the
// rate-limited bulk call the role cache amortizes.
func (s *Session) FetchAllMembers(ctx context.Context, guildID string) ([]*discordgo.Member, error) {
	var all []*discordgo.Member
	after := ""
	for {
		page, err := s.dg.GuildMembers(guildID, after, memberPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("fetch guild members: %w", err)
		}
		all = append(all, page...)
		if len(page) < memberPageSize {
			return all, nil
		}
		after = page[len(page)-1].User.ID
	}
}

// ResolveRole resolves a role id against session state, falling back to the
// API when the state has not seen the guild yet.
func (s *Session) ResolveRole(ctx context.Context, guildID, roleID string) (*discordgo.Role, error) {
	if role, err := s.dg.State.Role(guildID, roleID); err == nil {
		return role, nil
	}
	roles, err := s.dg.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch guild roles: %w", err)
	}
	for _, role := range roles {
		if role.ID == roleID {
			return role, nil
		}
	}
	return nil, fmt.Errorf("role %s not found in guild %s", roleID, guildID)
}

// SendChannelMessage posts a message and returns its id.
func (s *Session) SendChannelMessage(channelID, content string) (string, error) {
	msg, err := s.dg.ChannelMessageSend(channelID, content)
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

// EditChannelMessage edits an existing message in place.
func (s *Session) EditChannelMessage(channelID, messageID, content string) error {
	_, err := s.dg.ChannelMessageEdit(channelID, messageID, content)
	return err
}
