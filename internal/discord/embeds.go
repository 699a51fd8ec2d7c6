package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/spec-kit/staffrep-bot/internal/domain"
	"github.com/spec-kit/staffrep-bot/internal/rolecache"
	"github.com/spec-kit/staffrep-bot/internal/service"
)

const (
	colorGreen  = 0x2ecc71
	colorBlue   = 0x3498db
	colorOrange = 0xe67e22
)

func reputationEmbed(user *domain.StaffUser, roleName string) *discordgo.MessageEmbed {
	if roleName == "" {
		roleName = "none"
	}
	return &discordgo.MessageEmbed{
		Title: "Reputation Updated",
		Color: colorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Member", Value: fmt.Sprintf("<@%s>", user.ID), Inline: true},
			{Name: "Points", Value: fmt.Sprintf("%d", user.Points), Inline: true},
			{Name: "Role", Value: roleName, Inline: true},
		},
	}
}

func summaryEmbed(user *domain.StaffUser, roleName string, history []domain.PointEntry) *discordgo.MessageEmbed {
	if roleName == "" {
		roleName = "none"
	}
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Reputation: %s", user.Username),
		Color: colorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Points", Value: fmt.Sprintf("%d", user.Points), Inline: true},
			{Name: "Role", Value: roleName, Inline: true},
			{Name: "LOA Status", Value: string(user.LOAStatus), Inline: true},
		},
	}
	if len(history) > 0 {
		var b strings.Builder
		for _, entry := range history {
			fmt.Fprintf(&b, "`%+d` by <@%s>: %s\n", entry.Delta, entry.ActorID, entry.Reason)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Recent Adjustments",
			Value: b.String(),
		})
	}
	return embed
}

func statsEmbed(stats rolecache.Stats) *discordgo.MessageEmbed {
	var b strings.Builder
	for _, row := range stats.RoleBreakdown {
		fmt.Fprintf(&b, "**%s** (rank %d): %d member(s)\n", row.RoleName, row.Rank, row.MemberCount)
	}
	if b.Len() == 0 {
		b.WriteString("no cached roles")
	}
	return &discordgo.MessageEmbed{
		Title:       "Staff Cache",
		Color:       colorOrange,
		Description: b.String(),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Staff Members", Value: fmt.Sprintf("%d", stats.TotalStaffMembers), Inline: true},
			{Name: "Cache Age", Value: stats.OldestCacheAge.Round(time.Second).String(), Inline: true},
			{Name: "Generation", Value: fmt.Sprintf("%d", stats.Generation), Inline: true},
		},
	}
}

// SendLeaveReview posts the pending leave request to the review channel with
// approve and deny buttons wired to the decision handler.
func (s *Session) SendLeaveReview(channelID string, req *domain.LeaveRequest) error {
	embed := &discordgo.MessageEmbed{
		Title: "Leave of Absence Request",
		Color: colorOrange,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Member", Value: fmt.Sprintf("<@%s>", req.UserID), Inline: true},
			{Name: "From", Value: req.StartsAt.Format("2006-01-02"), Inline: true},
			{Name: "Until", Value: req.EndsAt.Format("2006-01-02"), Inline: true},
			{Name: "Reason", Value: req.Reason},
		},
	}
	_, err := s.dg.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Approve",
						Style:    discordgo.SuccessButton,
						CustomID: service.ButtonID(service.LOAVerdictApprove, req.ID),
					},
					discordgo.Button{
						Label:    "Deny",
						Style:    discordgo.DangerButton,
						CustomID: service.ButtonID(service.LOAVerdictDeny, req.ID),
					},
				},
			},
		},
	})
	return err
}
