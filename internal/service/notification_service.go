package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/staffrep-bot/internal/config"
	"github.com/spec-kit/staffrep-bot/internal/domain"
	"github.com/spec-kit/staffrep-bot/internal/events"
)

// NotificationService posts channel messages for domain events: promotion
// eligibility, demotion warnings, and leave request decisions.
type NotificationService struct {
	dispatcher events.Dispatcher
	messenger  Messenger
	logger     *zap.Logger
	cfg        config.ReputationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, messenger Messenger, logger *zap.Logger, cfg config.ReputationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		messenger:  messenger,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventPromotionEligible, n.handlePromotionEligible)
	n.dispatcher.Subscribe(events.EventDemotionWarning, n.handleDemotionWarning)
	n.dispatcher.Subscribe(events.EventLOARequested, n.handleLOARequested)
	n.dispatcher.Subscribe(events.EventLOADecided, n.handleLOADecided)
}

func (n *NotificationService) handlePromotionEligible(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PromotionEligiblePayload)
	if !ok {
		return nil
	}
	n.logger.Info("PromotionEligible", zap.String("user_id", event.UserID), zap.Int("total", payload.Total))

	msg := fmt.Sprintf("📈 **%s** reached **%d** points and is eligible for promotion", payload.Username, payload.Total)
	if payload.NextRole != "" {
		msg += fmt.Sprintf(" to **%s**", payload.NextRole)
	}
	n.send(msg + ".")
	return nil
}

func (n *NotificationService) handleDemotionWarning(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.DemotionWarningPayload)
	if !ok {
		return nil
	}
	n.logger.Info("DemotionWarning", zap.String("user_id", event.UserID), zap.Int("total", payload.Total))

	n.send(fmt.Sprintf("📉 **%s** dropped to **%d** points; demotion review recommended.",
		payload.Username, payload.Total))
	return nil
}

func (n *NotificationService) handleLOARequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.LOARequestedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("LOARequested", zap.String("user_id", event.UserID), zap.String("request_id", payload.RequestID))

	n.send(fmt.Sprintf("📋 **%s** requested leave (%s → %s): %s",
		payload.Username,
		payload.StartsAt.Format("2006-01-02"),
		payload.EndsAt.Format("2006-01-02"),
		payload.Reason))
	return nil
}

func (n *NotificationService) handleLOADecided(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.LOADecidedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("LOADecided", zap.String("user_id", event.UserID), zap.String("verdict", string(payload.Verdict)))

	verdict := "denied ❌"
	if payload.Verdict == domain.LeaveStatusApproved {
		verdict = "approved ✅"
	}
	n.send(fmt.Sprintf("📋 Leave request from **%s** was %s.", payload.Username, verdict))
	return nil
}

func (n *NotificationService) send(content string) {
	if n.cfg.NotificationChannel == "" || n.messenger == nil {
		return
	}
	if _, err := n.messenger.SendChannelMessage(n.cfg.NotificationChannel, content); err != nil {
		n.logger.Error("failed to send notification", zap.Error(err))
	}
}
