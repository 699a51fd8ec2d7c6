package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// commandDefinitions returns the guild slash commands this bot registers.
func commandDefinitions(maxPoints int) []*discordgo.ApplicationCommand {
	minPoints := 1.0
	return []*discordgo.ApplicationCommand{
		{
			Name:        "rep",
			Description: "Staff reputation points",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add",
					Description: "Add reputation points to a staff member",
					Options: []*discordgo.ApplicationCommandOption{
						staffMemberOption(true),
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "points",
							Description: fmt.Sprintf("Points to add (1-%d)", maxPoints),
							Required:    true,
							MinValue:    &minPoints,
							MaxValue:    float64(maxPoints),
						},
						reasonOption(),
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remove",
					Description: "Remove reputation points from a staff member",
					Options: []*discordgo.ApplicationCommandOption{
						staffMemberOption(true),
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "points",
							Description: fmt.Sprintf("Points to remove (1-%d)", maxPoints),
							Required:    true,
							MinValue:    &minPoints,
							MaxValue:    float64(maxPoints),
						},
						reasonOption(),
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "view",
					Description: "View a staff member's reputation",
					Options: []*discordgo.ApplicationCommandOption{
						staffMemberOption(false),
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "leaderboard",
					Description: "Show the staff points leaderboard",
				},
			},
		},
		{
			Name:        "loa",
			Description: "Leave of absence",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "request",
					Description: "Request a leave of absence",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "reason",
							Description: "Why you need leave",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "days",
							Description: "Length of leave in days (1-90)",
							Required:    true,
							MinValue:    &minPoints,
							MaxValue:    90,
						},
					},
				},
			},
		},
		{
			Name:        "staff",
			Description: "Staff directory",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "stats",
					Description: "Show staff role statistics",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "refresh",
					Description: "Force a role cache refresh",
				},
			},
		},
	}
}

func staffMemberOption(required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionString,
		Name:         "member",
		Description:  "Staff member",
		Required:     required,
		Autocomplete: true,
	}
}

func reasonOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "reason",
		Description: "Reason for the adjustment",
		Required:    true,
	}
}

// RegisterCommands bulk-overwrites the guild's slash commands.
func (s *Session) RegisterCommands(maxPoints int) error {
	appID := s.dg.State.User.ID
	_, err := s.dg.ApplicationCommandBulkOverwrite(appID, s.guildID, commandDefinitions(maxPoints))
	if err != nil {
		return fmt.Errorf("register commands: %w", err)
	}
	s.logger.Info("slash commands registered", zap.String("guild_id", s.guildID))
	return nil
}
