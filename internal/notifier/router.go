package notifier

import (
	"go.uber.org/zap"

	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/admin_chats"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/metrics"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/moderation"
)

// CardSender delivers a rendered card with its review buttons to one
// admin chat. Implemented by the Telegram bot.
type CardSender interface {
	SendCard(chatID int64, text string, recordID int64) error
}

// Router fans scam notifications out to the resolved admin chats.
// Destinations fail independently: one unreachable admin chat never
// blocks the others.
type Router struct {
	resolver *admin_chats.Resolver
	sender   CardSender
	metrics  metrics.Recorder
	logger   *zap.Logger
}

func NewRouter(resolver *admin_chats.Resolver, sender CardSender, rec metrics.Recorder, logger *zap.Logger) *Router {
	return &Router{resolver: resolver, sender: sender, metrics: rec, logger: logger}
}

// NotifyScam renders the card once and sends it to every resolved
// admin chat. No configured destinations is a normal outcome.
func (r *Router) NotifyScam(ev *moderation.ScamEvent) {
	targets := r.resolver.ResolveTargets(ev.Chat)
	if len(targets) == 0 {
		r.logger.Info("No admin chats configured for scam notification",
			zap.Int64("source_chat_id", ev.Chat.TelegramChatID))
		return
	}

	text := CardFromEvent(ev).Render()

	r.logger.Info("Sending scam notification",
		zap.Int64("source_chat_id", ev.Chat.TelegramChatID),
		zap.Int64s("targets", targets))

	for _, target := range targets {
		if err := r.sender.SendCard(target, text, ev.Record.ID); err != nil {
			r.logger.Error("Failed to send scam notification to admin chat",
				zap.Int64("admin_chat_id", target),
				zap.Error(err))
			r.metrics.IncNotificationFailed()
			continue
		}
		r.metrics.IncNotificationSent()
	}
}
