package telegram_bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/admin_chats"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/config"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/models"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/moderation"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/notifier"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/repository"
)

// Callback data prefixes for the review buttons on scam cards.
const (
	callbackNotScam  = "as_not_scam"
	callbackMarkScam = "as_mark_scam"
)

// Bot wraps the Telegram Bot API: it feeds group messages into the
// moderation pipeline, executes enforcement actions, delivers scam
// cards to admin chats and serves the operator commands.
type Bot struct {
	api        *tgbotapi.BotAPI
	logger     *zap.Logger
	resolver   *admin_chats.Resolver
	chatRepo   repository.ChatRepository
	recordRepo repository.RecordRepository

	orchestrator *moderation.Orchestrator
	override     *notifier.OverrideService
}

// NewBot creates and authorizes the bot. The moderation pipeline is
// attached separately with SetPipeline, because the pipeline itself
// needs the bot as its transport.
func NewBot(
	cfg *config.Config,
	resolver *admin_chats.Resolver,
	chatRepo repository.ChatRepository,
	recordRepo repository.RecordRepository,
	logger *zap.Logger,
) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}

	logger.Info("Telegram bot authorized", zap.String("username", botAPI.Self.UserName))

	return &Bot{
		api:        botAPI,
		logger:     logger,
		resolver:   resolver,
		chatRepo:   chatRepo,
		recordRepo: recordRepo,
	}, nil
}

// SetPipeline attaches the moderation pipeline and the review handler.
// Must be called before Start.
func (b *Bot) SetPipeline(orchestrator *moderation.Orchestrator, override *notifier.OverrideService) {
	b.orchestrator = orchestrator
	b.override = override
}

// Start begins the long-poll update loop. Each update is handled in
// its own goroutine; the loop itself only dispatches. Blocks until the
// context is canceled.
func (b *Bot) Start(ctx context.Context) error {
	if b.orchestrator == nil || b.override == nil {
		return fmt.Errorf("bot pipeline is not attached")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Telegram bot started, waiting for updates...")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Telegram bot shutting down...")
			b.api.StopReceivingUpdates()
			return nil
		case update := <-updates:
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// handleMessage routes a message: known commands go to their handlers,
// everything else enters the moderation pipeline.
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.IsCommand() {
		switch message.Command() {
		case "start":
			b.handleStart(message)
			return
		case "chatid":
			b.handleChatID(message)
			return
		case "help", "as_help":
			b.handleHelp(message)
			return
		case "as_status":
			b.handleStatus(message)
			return
		case "as_set_admin_chat":
			b.handleSetAdminChat(message)
			return
		case "as_stats":
			b.handleStats(message)
			return
		case "as_recent":
			b.handleRecent(message)
			return
		}
		// Unknown commands fall through to moderation like any other text.
	}

	b.orchestrator.HandleMessage(ctx, incomingFromMessage(message))
}

// incomingFromMessage converts a Telegram update into the pipeline's
// transport-neutral shape.
func incomingFromMessage(message *tgbotapi.Message) *moderation.IncomingMessage {
	msg := &moderation.IncomingMessage{
		ChatID:    message.Chat.ID,
		ChatTitle: message.Chat.Title,
		ChatType:  message.Chat.Type,
		MessageID: int64(message.MessageID),
		Text:      message.Text,
	}
	if message.From != nil {
		msg.Sender = &moderation.Sender{
			TelegramUserID: message.From.ID,
			Username:       message.From.UserName,
			FirstName:      message.From.FirstName,
			LastName:       message.From.LastName,
			IsBot:          message.From.IsBot,
		}
	}
	return msg
}

// handleCallbackQuery processes the review buttons on scam cards.
func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	b.logger.Info("Received callback query",
		zap.String("data", query.Data),
		zap.Int64("user_id", query.From.ID),
	)

	parts := strings.SplitN(query.Data, ":", 2)
	if len(parts) != 2 {
		b.answerCallback(query.ID, "Некорректный формат callback_data.", true)
		return
	}

	var label string
	switch parts[0] {
	case callbackNotScam:
		label = models.HumanLabelNotScam
	case callbackMarkScam:
		label = models.HumanLabelScam
	default:
		b.logger.Warn("Unknown callback action", zap.String("data", query.Data))
		b.answerCallback(query.ID, "", false)
		return
	}

	recordID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		b.answerCallback(query.ID, "Некорректный формат callback_data.", true)
		return
	}

	if query.Message == nil {
		b.logger.Warn("Callback query without message", zap.String("data", query.Data))
		b.answerCallback(query.ID, "Некорректный формат callback_data.", true)
		return
	}

	result := b.override.Apply(&notifier.Override{
		RecordID:      recordID,
		AdminChatID:   query.Message.Chat.ID,
		CardMessageID: query.Message.MessageID,
		Label:         label,
		Reviewer: notifier.Reviewer{
			TelegramUserID: query.From.ID,
			Username:       query.From.UserName,
			FirstName:      query.From.FirstName,
			LastName:       query.From.LastName,
		},
	})

	b.answerCallback(query.ID, result.Answer, result.ShowAlert)
}

func (b *Bot) answerCallback(queryID, text string, showAlert bool) {
	var callback tgbotapi.CallbackConfig
	if showAlert {
		callback = tgbotapi.NewCallbackWithAlert(queryID, text)
	} else {
		callback = tgbotapi.NewCallback(queryID, text)
	}
	if _, err := b.api.Request(callback); err != nil {
		b.logger.Error("Failed to answer callback query", zap.Error(err))
	}
}

// IsChatAdmin reports whether the user is among the chat's
// administrators.
func (b *Bot) IsChatAdmin(chatID, userID int64) (bool, error) {
	admins, err := b.api.GetChatAdministrators(tgbotapi.ChatAdministratorsConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		return false, err
	}
	for _, member := range admins {
		if member.User != nil && member.User.ID == userID {
			return true, nil
		}
	}
	return false, nil
}

// SendMessageHTML sends an HTML-formatted message to a chat.
func (b *Bot) SendMessageHTML(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

// DeleteMessage removes a message from a chat.
func (b *Bot) DeleteMessage(chatID int64, messageID int64) error {
	_, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, int(messageID)))
	return err
}

// RestrictMember revokes the member's send permissions until the given
// time.
func (b *Bot) RestrictMember(chatID, userID int64, until time.Time) error {
	restrict := tgbotapi.RestrictChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: chatID,
			UserID: userID,
		},
		UntilDate: until.Unix(),
		Permissions: &tgbotapi.ChatPermissions{
			CanSendMessages:       false,
			CanSendMediaMessages:  false,
			CanSendPolls:          false,
			CanSendOtherMessages:  false,
			CanAddWebPagePreviews: false,
			CanChangeInfo:         false,
			CanInviteUsers:        false,
			CanPinMessages:        false,
		},
	}
	_, err := b.api.Request(restrict)
	return err
}

// BanMember removes the member from the chat permanently.
func (b *Bot) BanMember(chatID, userID int64) error {
	ban := tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: chatID,
			UserID: userID,
		},
	}
	_, err := b.api.Request(ban)
	return err
}

// SendCard delivers a scam card with its review buttons to an admin
// chat.
func (b *Bot) SendCard(chatID int64, text string, recordID int64) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = cardKeyboard(recordID)
	_, err := b.api.Send(msg)
	return err
}

// EditCard rewrites a card in place. The edit carries no reply markup,
// so the review buttons disappear once a decision is made.
func (b *Bot) EditCard(chatID int64, messageID int, text string) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(edit)
	return err
}

func cardKeyboard(recordID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Не скам", fmt.Sprintf("%s:%d", callbackNotScam, recordID)),
			tgbotapi.NewInlineKeyboardButtonData("🚫 Точно скам", fmt.Sprintf("%s:%d", callbackMarkScam, recordID)),
		),
	)
}

// sendHTML is a helper that logs send failures instead of returning
// them, for command replies. All bot output is HTML-formatted.
func (b *Bot) sendHTML(chatID int64, text string) {
	if err := b.SendMessageHTML(chatID, text); err != nil {
		b.logger.Error("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// reply answers a message with a quote of the original.
func (b *Bot) reply(message *tgbotapi.Message, text string) {
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyToMessageID = message.MessageID
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send reply", zap.Int64("chat_id", message.Chat.ID), zap.Error(err))
	}
}
