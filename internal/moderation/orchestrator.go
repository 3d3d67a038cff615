package moderation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/admin_chats"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/llm_client"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/metrics"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/models"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/policy"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/repository"
)

// Gate skip reasons, also used as metric labels.
const (
	SkipNonGroup     = "non_group"
	SkipAdminChat    = "admin_chat"
	SkipServiceOrBot = "service_or_bot"
	SkipChatAdmin    = "chat_admin"
	SkipWhitelisted  = "whitelisted"
)

// Transport is the chat-platform surface the pipeline needs: admin
// lookup for gating, deletion and sanctions for enforcement.
type Transport interface {
	IsChatAdmin(chatID, userID int64) (bool, error)
	SendMessageHTML(chatID int64, text string) error
	DeleteMessage(chatID int64, messageID int64) error
	RestrictMember(chatID, userID int64, until time.Time) error
	BanMember(chatID, userID int64) error
}

// Classifier produces a verdict for a message text, or an error when
// no verdict could be obtained.
type Classifier interface {
	Classify(ctx context.Context, text string) (*llm_client.Result, error)
}

// ScamEvent carries everything the notification router needs about a
// confirmed scam.
type ScamEvent struct {
	Chat        *models.Chat
	User        *models.User
	Record      *models.ModerationRecord
	StrikeCount int
}

// Notifier fans a scam event out to admin chats. Delivery is
// best-effort; the router handles per-destination failures itself.
type Notifier interface {
	NotifyScam(ev *ScamEvent)
}

// Orchestrator runs the per-message moderation pipeline: gates, then
// classification, then persistence, then enforcement and notification.
// One call per message, no shared mutable state, so the bot can run
// one goroutine per update without coordination.
type Orchestrator struct {
	threshold  float64
	transport  Transport
	classifier Classifier
	resolver   *admin_chats.Resolver
	chats      repository.ChatRepository
	users      repository.UserRepository
	members    repository.MemberRepository
	records    repository.RecordRepository
	notifier   Notifier
	metrics    metrics.Recorder
	logger     *zap.Logger
}

// NewOrchestrator creates the pipeline. confidenceThreshold is the
// effective-scam bound: SCAM verdicts below it are stored but never
// enforced.
func NewOrchestrator(
	confidenceThreshold float64,
	transport Transport,
	classifier Classifier,
	resolver *admin_chats.Resolver,
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	memberRepo repository.MemberRepository,
	recordRepo repository.RecordRepository,
	notifier Notifier,
	rec metrics.Recorder,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		threshold:  confidenceThreshold,
		transport:  transport,
		classifier: classifier,
		resolver:   resolver,
		chats:      chatRepo,
		users:      userRepo,
		members:    memberRepo,
		records:    recordRepo,
		notifier:   notifier,
		metrics:    rec,
		logger:     logger,
	}
}

// HandleMessage runs the pipeline for one message. It never returns an
// error: every failure mode is contained to this message and logged.
func (o *Orchestrator) HandleMessage(ctx context.Context, msg *IncomingMessage) {
	o.metrics.IncInspected()

	if reason := o.gate(msg); reason != "" {
		o.metrics.IncGateSkip(reason)
		return
	}

	result, err := o.classifier.Classify(ctx, msg.Text)
	if err != nil {
		o.logger.Warn("LLM returned no verdict, skipping message",
			zap.Int64("chat_id", msg.ChatID),
			zap.Int64("user_id", msg.Sender.TelegramUserID),
			zap.Error(err))
		o.metrics.IncClassifierFailure()
		return
	}
	o.metrics.IncVerdict(result.Label)

	o.logger.Info("LLM verdict",
		zap.Int64("chat_id", msg.ChatID),
		zap.Int64("user_id", msg.Sender.TelegramUserID),
		zap.String("label", result.Label),
		zap.String("category", result.Category),
		zap.Float64("confidence", result.Confidence))

	effective := result.IsScam() && result.Confidence >= o.threshold
	var skippedReason *string
	if result.IsScam() && !effective {
		reason := models.SkipReasonLowConfidence
		skippedReason = &reason
	}

	chat, user, strikeCount, record, err := o.persist(msg, result, effective, skippedReason)
	if err != nil {
		o.logger.Error("Failed to persist moderation outcome",
			zap.Int64("chat_id", msg.ChatID),
			zap.Int64("user_id", msg.Sender.TelegramUserID),
			zap.Error(err))
		return
	}

	if !effective {
		return
	}
	o.metrics.IncScamDetected()

	o.enforce(msg, strikeCount)

	o.notifier.NotifyScam(&ScamEvent{
		Chat:        chat,
		User:        user,
		Record:      record,
		StrikeCount: strikeCount,
	})
}

// gate applies the skip checks in fixed order and returns the first
// matching reason, or "" when the message should be classified.
func (o *Orchestrator) gate(msg *IncomingMessage) string {
	if msg.ChatType != "group" && msg.ChatType != "supergroup" {
		return SkipNonGroup
	}

	isAdminChat, err := o.resolver.IsAdminChat(msg.ChatID)
	if err != nil {
		o.logger.Error("Failed to check admin chat status",
			zap.Int64("chat_id", msg.ChatID), zap.Error(err))
		isAdminChat = false
	}
	if isAdminChat {
		return SkipAdminChat
	}

	if msg.Sender == nil || msg.Sender.IsBot || msg.Text == "" {
		return SkipServiceOrBot
	}

	isAdmin, err := o.transport.IsChatAdmin(msg.ChatID, msg.Sender.TelegramUserID)
	if err != nil {
		o.logger.Warn("Failed to check chat admin status",
			zap.Int64("chat_id", msg.ChatID),
			zap.Int64("user_id", msg.Sender.TelegramUserID),
			zap.Error(err))
		isAdmin = false
	}
	if isAdmin {
		return SkipChatAdmin
	}

	if o.isWhitelisted(msg.ChatID, msg.Sender.TelegramUserID) {
		return SkipWhitelisted
	}

	return ""
}

// isWhitelisted checks the global flag and the per-chat membership
// flag. Unknown users, unknown chats and lookup failures all count as
// not whitelisted.
func (o *Orchestrator) isWhitelisted(chatTelegramID, userTelegramID int64) bool {
	user, err := o.users.GetUserByTelegramID(userTelegramID)
	if err != nil {
		o.logger.Error("Failed to check whitelist",
			zap.Int64("chat_id", chatTelegramID),
			zap.Int64("user_id", userTelegramID),
			zap.Error(err))
		return false
	}
	if user == nil {
		return false
	}
	if user.IsGlobalWhitelisted {
		return true
	}

	chat, err := o.chats.GetChatByTelegramID(chatTelegramID)
	if err != nil || chat == nil {
		if err != nil {
			o.logger.Error("Failed to check whitelist",
				zap.Int64("chat_id", chatTelegramID), zap.Error(err))
		}
		return false
	}

	member, err := o.members.GetMember(chat.ID, user.ID)
	if err != nil || member == nil {
		if err != nil {
			o.logger.Error("Failed to check whitelist",
				zap.Int64("chat_id", chatTelegramID), zap.Error(err))
		}
		return false
	}
	return member.IsWhitelisted
}

// persist stores the chat, the sender, the membership row, the strike
// (only for effective scams) and the moderation record. Each write is
// its own statement; the strike increment happens at most once.
func (o *Orchestrator) persist(
	msg *IncomingMessage,
	result *llm_client.Result,
	effective bool,
	skippedReason *string,
) (*models.Chat, *models.User, int, *models.ModerationRecord, error) {
	chat, err := o.chats.UpsertChat(msg.ChatID, msg.ChatTitle, msg.ChatType)
	if err != nil {
		return nil, nil, 0, nil, err
	}

	user, err := o.users.UpsertUser(msg.Sender.TelegramUserID, msg.Sender.Username, msg.Sender.FirstName, msg.Sender.LastName)
	if err != nil {
		return nil, nil, 0, nil, err
	}

	if _, err := o.members.EnsureMember(chat.ID, user.ID); err != nil {
		return nil, nil, 0, nil, err
	}

	strikeCount := 0
	var recordStrikes *int
	if effective {
		strikeCount, err = o.members.IncrementStrikes(chat.ID, user.ID)
		if err != nil {
			return nil, nil, 0, nil, err
		}
		recordStrikes = &strikeCount
	}

	record := &models.ModerationRecord{
		ChatID:            chat.ID,
		UserID:            user.ID,
		TelegramMessageID: msg.MessageID,
		Text:              msg.Text,
		ModelLabel:        result.Label,
		ModelCategory:     result.Category,
		ModelConfidence:   result.Confidence,
		ModelReason:       result.Reason,
		ModelRawJSON:      result.Raw,
		ModelVersion:      result.ModelVersion,
		IsScamEffective:   effective,
		SkippedReason:     skippedReason,
		StrikeCount:       recordStrikes,
	}
	if err := o.records.InsertRecord(record); err != nil {
		return nil, nil, 0, nil, err
	}

	return chat, user, strikeCount, record, nil
}

// enforce deletes the offending message and applies the escalation
// ladder. Every transport call is best-effort: failures are logged and
// the remaining steps still run.
func (o *Orchestrator) enforce(msg *IncomingMessage, strikeCount int) {
	if err := o.transport.DeleteMessage(msg.ChatID, msg.MessageID); err != nil {
		o.logger.Error("Failed to delete scam message",
			zap.Int64("chat_id", msg.ChatID),
			zap.Int64("message_id", msg.MessageID),
			zap.Error(err))
	} else {
		o.logger.Info("Deleted scam message",
			zap.Int64("chat_id", msg.ChatID),
			zap.Int64("user_id", msg.Sender.TelegramUserID),
			zap.Int("strike_count", strikeCount))
	}

	action := policy.Decide(strikeCount)
	if action == policy.ActionNone {
		return
	}
	o.metrics.IncEnforcement(action.String())

	mention := policy.Mention(msg.Sender.TelegramUserID, msg.Sender.MentionName())

	switch action {
	case policy.ActionMute:
		until := time.Now().UTC().Add(policy.MuteDuration)
		if err := o.transport.RestrictMember(msg.ChatID, msg.Sender.TelegramUserID, until); err != nil {
			o.logger.Error("Failed to mute offender",
				zap.Int64("chat_id", msg.ChatID),
				zap.Int64("user_id", msg.Sender.TelegramUserID),
				zap.Error(err))
		}
	case policy.ActionBan:
		if err := o.transport.BanMember(msg.ChatID, msg.Sender.TelegramUserID); err != nil {
			o.logger.Error("Failed to ban offender",
				zap.Int64("chat_id", msg.ChatID),
				zap.Int64("user_id", msg.Sender.TelegramUserID),
				zap.Error(err))
		}
	}

	if err := o.transport.SendMessageHTML(msg.ChatID, policy.Notice(action, mention)); err != nil {
		o.logger.Error("Failed to send escalation notice",
			zap.Int64("chat_id", msg.ChatID),
			zap.Int64("user_id", msg.Sender.TelegramUserID),
			zap.String("action", action.String()),
			zap.Error(err))
	}
}
