package discord

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/spec-kit/staffrep-bot/internal/config"
	"github.com/spec-kit/staffrep-bot/internal/observability"
	"github.com/spec-kit/staffrep-bot/internal/rolecache"
	"github.com/spec-kit/staffrep-bot/internal/service"
	apperrors "github.com/spec-kit/staffrep-bot/pkg/util"
)

// maxAutocompleteChoices is the discord API limit per autocomplete response.
const maxAutocompleteChoices = 25

// Handler routes interactions (slash commands, autocomplete, buttons) to the
// services.
type Handler struct {
	session     *Session
	cache       *rolecache.Cache
	reputation  *service.ReputationService
	leaves      *service.LeaveService
	leaderboard *service.LeaderboardService
	metrics     *observability.Metrics
	logger      *zap.Logger
	cfg         config.ReputationConfig
}

// HandlerDependencies encapsulates collaborators for the handler.
type HandlerDependencies struct {
	Session     *Session
	RoleCache   *rolecache.Cache
	Reputation  *service.ReputationService
	Leaves      *service.LeaveService
	Leaderboard *service.LeaderboardService
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewHandler constructs the interaction handler.
func NewHandler(cfg config.ReputationConfig, deps HandlerDependencies) *Handler {
	return &Handler{
		session:     deps.Session,
		cache:       deps.RoleCache,
		reputation:  deps.Reputation,
		leaves:      deps.Leaves,
		leaderboard: deps.Leaderboard,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		cfg:         cfg,
	}
}

// Register attaches the interaction handler to the gateway session.
func (h *Handler) Register() {
	h.session.Raw().AddHandler(h.onInteraction)
}

func (h *Handler) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		h.handleCommand(ctx, s, i)
	case discordgo.InteractionApplicationCommandAutocomplete:
		h.handleAutocomplete(s, i)
	case discordgo.InteractionMessageComponent:
		h.handleComponent(ctx, s, i)
	}
}

func (h *Handler) handleCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return
	}
	sub := data.Options[0]
	name := data.Name + " " + sub.Name
	h.metrics.RecordCommand(name)

	actorID := interactionUserID(i)
	opts := optionMap(sub.Options)

	switch name {
	case "rep add", "rep remove":
		targetID := stringOption(opts, "member")
		points := int(intOption(opts, "points"))
		reason := stringOption(opts, "reason")
		if name == "rep remove" {
			points = -points
		}
		user, err := h.reputation.AdjustPoints(ctx, actorID, targetID, h.usernameFor(targetID), points, reason)
		if err != nil {
			h.respondError(s, i, err)
			return
		}
		h.respondEmbed(s, i, reputationEmbed(user, h.roleNameFor(user.ID)), false)

	case "rep view":
		targetID := stringOption(opts, "member")
		if targetID == "" {
			targetID = actorID
		}
		user, history, err := h.reputation.UserSummary(ctx, targetID, h.usernameFor(targetID))
		if err != nil {
			h.respondError(s, i, err)
			return
		}
		h.respondEmbed(s, i, summaryEmbed(user, h.roleNameFor(user.ID), history), true)

	case "rep leaderboard":
		rows, err := h.leaderboard.Build(ctx)
		if err != nil {
			h.respondError(s, i, err)
			return
		}
		h.respondText(s, i, h.leaderboard.Render(rows), false)

	case "loa request":
		reason := stringOption(opts, "reason")
		days := int(intOption(opts, "days"))
		start := time.Now()
		req, err := h.leaves.Request(ctx, actorID, h.usernameFor(actorID), reason, start, start.AddDate(0, 0, days))
		if err != nil {
			h.respondError(s, i, err)
			return
		}
		if h.cfg.NotificationChannel != "" {
			if err := h.session.SendLeaveReview(h.cfg.NotificationChannel, req); err != nil {
				h.logger.Error("failed to post leave review message", zap.Error(err))
			}
		}
		h.respondText(s, i, fmt.Sprintf("Leave request filed for %d day(s). A manager will review it.", days), true)

	case "staff stats":
		h.respondEmbed(s, i, statsEmbed(h.cache.Stats()), true)

	case "staff refresh":
		if _, ok := h.cache.HighestStaffRole(actorID); !ok {
			h.respondError(s, i, apperrors.NewForbidden("staff role required"))
			return
		}
		// Acknowledge before the paginated member fetch; a large guild can
		// take longer than the interaction deadline allows.
		h.respondText(s, i, "Role cache refresh started.", true)
		h.triggerRefresh()

	default:
		h.logger.Warn("unknown command", zap.String("name", name))
	}
}

func (h *Handler) handleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return
	}
	var prefix string
	for _, opt := range data.Options[0].Options {
		if opt.Focused {
			prefix, _ = opt.Value.(string)
			break
		}
	}

	choices := staffChoices(h.cache, prefix)
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
	if err != nil {
		h.logger.Warn("autocomplete respond failed", zap.Error(err))
	}
}

func (h *Handler) handleComponent(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID
	approve, requestID, err := service.ParseButtonID(customID)
	if err != nil {
		return
	}
	h.metrics.RecordCommand("loa button")

	req, err := h.leaves.Decide(ctx, interactionUserID(i), requestID, approve)
	if err != nil {
		h.respondError(s, i, err)
		return
	}

	verdict := "denied"
	if approve {
		verdict = "approved"
	}
	content := fmt.Sprintf("Leave request from **%s** %s by <@%s>.", req.Username, verdict, interactionUserID(i))

	// Replace the review message so the buttons disappear.
	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Components: []discordgo.MessageComponent{},
		},
	})
	if err != nil {
		h.logger.Warn("component respond failed", zap.Error(err))
	}
}

// triggerRefresh runs a cache refresh off the interaction goroutine. The
// cache's in-flight guard drops the pass if one is already running.
func (h *Handler) triggerRefresh() {
	go h.cache.Refresh(context.Background())
}

// staffChoices builds autocomplete choices from the cached staff index, no
// provider round-trip involved.
func staffChoices(cache *rolecache.Cache, prefix string) []*discordgo.ApplicationCommandOptionChoice {
	prefix = strings.ToLower(prefix)

	type candidate struct {
		id   string
		name string
	}
	var candidates []candidate
	for id, member := range cache.AllStaffMembers() {
		name := displayName(member)
		if prefix != "" && !strings.Contains(strings.ToLower(name), prefix) {
			continue
		}
		candidates = append(candidates, candidate{id: id, name: name})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].name < candidates[j].name })

	if len(candidates) > maxAutocompleteChoices {
		candidates = candidates[:maxAutocompleteChoices]
	}
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(candidates))
	for _, c := range candidates {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: c.name, Value: c.id})
	}
	return choices
}

func displayName(member *discordgo.Member) string {
	if member.Nick != "" {
		return member.Nick
	}
	if member.User != nil {
		return member.User.Username
	}
	return "unknown"
}

func (h *Handler) usernameFor(userID string) string {
	if member, ok := h.cache.AllStaffMembers()[userID]; ok {
		return displayName(member)
	}
	return userID
}

func (h *Handler) roleNameFor(userID string) string {
	if entry, ok := h.cache.HighestStaffRole(userID); ok {
		return entry.RoleName
	}
	return ""
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

func stringOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := opts[name]; ok {
		return opt.StringValue()
	}
	return ""
}

func intOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) int64 {
	if opt, ok := opts[name]; ok {
		return opt.IntValue()
	}
	return 0
}

func (h *Handler) respondError(s *discordgo.Session, i *discordgo.InteractionCreate, err error) {
	domainErr := apperrors.ToDomainError(err)
	if domainErr.Code == "INTERNAL_ERROR" {
		h.logger.Error("command failed", zap.Error(err))
	}
	h.respondText(s, i, "⚠️ "+domainErr.Message, true)
}

func (h *Handler) respondText(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		h.logger.Warn("interaction respond failed", zap.Error(err))
	}
}

func (h *Handler) respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		h.logger.Warn("interaction respond failed", zap.Error(err))
	}
}
