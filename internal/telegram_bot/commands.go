package telegram_bot

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/models"
)

const (
	defaultRecentLimit = 10
	maxRecentLimit     = 50
	maxStatusChatList  = 10
	topScammersLimit   = 5
)

const helpText = `ℹ️ <b>Справка по анти-скам боту</b>

<b>Что делает бот:</b>
• Проверяет каждое сообщение через LLM (OpenAI).
• Автоматически удаляет скам и выдаёт страйки нарушителям.
• Отправляет карточки скам-сообщений в админ-чаты с кнопками для разметки.

<b>Команды в РАБОЧИХ чатах (где сидят участники):</b>
• <code>/as_set_admin_chat &lt;id_админ-чата&gt;</code> — привязать этот рабочий чат к админ-чату.
  После этого все уведомления о скаме и аналитика по этому чату будут доступны в указанном админ-чате.
• <code>/as_status</code> — показать статус для этого рабочего чата:
  к какому админ-чату привязан и краткую статистику.

<b>Команды в АДМИН-чатах:</b>
• <code>/as_status</code> — показать, какие рабочие чаты привязаны к этому админ-чату,
  и является ли этот чат глобальным админ-чатом.
• <code>/as_stats</code> — сводная статистика по всем рабочим чатам,
  которые привязаны к этому админ-чату:
  – сколько сообщений проверено;
  – сколько скамов по модели;
  – сколько скамов подтверждено админами;
  – сколько помечено как НЕ скам;
  – топ-нарушители.

• <code>/as_recent</code> или <code>/as_recent N</code> — последние N скам-сообщений
  по рабочим чатам, привязанным к этому админ-чату (по умолчанию 10, максимум 50).

<b>Кнопки под уведомлениями о скаме в админ-чатах:</b>
• <b>✅ Не скам</b> — помечает сообщение как НЕ скам, сохраняет решение админа в базе.
• <b>🚫 Точно скам</b> — подтверждает, что сообщение — скам, также сохраняет решение.
  Эти решения используются как разметка для будущей обучающей выборки.`

func (b *Bot) handleStart(message *tgbotapi.Message) {
	b.reply(message, "Привет! Я антискам-бот (альфа-версия).\n")
}

func (b *Bot) handleChatID(message *tgbotapi.Message) {
	b.reply(message, fmt.Sprintf("ID этого чата: <code>%d</code>", message.Chat.ID))
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	b.sendHTML(message.Chat.ID, helpText)
}

// handleStatus shows what the current chat is to the bot: a working
// chat with its binding and local stats, an admin chat with its bound
// working chats, or neither.
func (b *Bot) handleStatus(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	var workingChat *models.Chat
	if message.Chat.IsGroup() || message.Chat.IsSuperGroup() {
		var err error
		workingChat, err = b.chatRepo.GetChatByTelegramID(chatID)
		if err != nil {
			b.logger.Error("Failed to load chat", zap.Int64("chat_id", chatID), zap.Error(err))
			return
		}
	}

	if workingChat != nil {
		b.statusWorkingChat(message, workingChat)
		return
	}

	managed, err := b.resolver.ManagedChats(chatID)
	if err != nil {
		b.logger.Error("Failed to load managed chats", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	if len(managed) > 0 {
		b.statusAdminChat(message, managed)
		return
	}

	b.statusUnboundChat(message)
}

func (b *Bot) statusWorkingChat(message *tgbotapi.Message, chat *models.Chat) {
	if message.From == nil {
		b.sendHTML(message.Chat.ID, "Не удалось определить отправителя команды.")
		return
	}
	if !b.isChatAdminMember(message.Chat.ID, message.From.ID) {
		b.sendHTML(message.Chat.ID, "В рабочих чатах команды анти-скам бота доступны только администраторам.")
		return
	}

	stats, err := b.recordRepo.GetStats([]int64{chat.ID})
	if err != nil {
		b.logger.Error("Failed to load chat stats", zap.Int64("chat_id", chat.ID), zap.Error(err))
		return
	}

	adminPart := "не привязан"
	if chat.AdminChatTelegramID != nil {
		adminPart = fmt.Sprintf("<code>%d</code>", *chat.AdminChatTelegramID)
	}

	lines := []string{
		"ℹ️ <b>Статус рабочего чата</b>",
		fmt.Sprintf("Чат: <b>%s</b>", html.EscapeString(titleOrPlaceholder(message.Chat.Title))),
		fmt.Sprintf("ID: <code>%d</code>", message.Chat.ID),
		"",
		"Админ-чат для уведомлений: " + adminPart,
		"",
		"📊 <b>Локальная статистика:</b>",
		fmt.Sprintf("• Проверено сообщений: <b>%d</b>", stats.TotalChecked),
		fmt.Sprintf("• Скам по модели: <b>%d</b>", stats.ScamByModel),
		fmt.Sprintf("• Скам по решению админов: <b>%d</b>", stats.ScamByHuman),
		fmt.Sprintf("• Помечено как НЕ скам: <b>%d</b>", stats.NotScamByHuman),
		"",
		"Изменить админ-чат можно командой:\n<code>/as_set_admin_chat &lt;id_админ-чата&gt;</code>",
	}

	b.sendHTML(message.Chat.ID, strings.Join(lines, "\n"))
}

func (b *Bot) statusAdminChat(message *tgbotapi.Message, managed []*models.Chat) {
	role := "Роль: <b>локальный админ-чат</b>."
	if b.resolver.IsGlobalAdminChat(message.Chat.ID) {
		role = "Роль: <b>глобальный админ-чат</b> (видит все чаты из конфигурации)."
	}

	lines := []string{
		"ℹ️ <b>Статус админ-чата</b>",
		fmt.Sprintf("Чат: <b>%s</b>", html.EscapeString(titleOrPlaceholder(message.Chat.Title))),
		fmt.Sprintf("ID: <code>%d</code>", message.Chat.ID),
		"",
		role,
		"",
		fmt.Sprintf("К этому админ-чату привязано рабочих чатов: <b>%d</b>", len(managed)),
	}

	shown := managed
	if len(shown) > maxStatusChatList {
		shown = shown[:maxStatusChatList]
	}
	for _, c := range shown {
		lines = append(lines, fmt.Sprintf("• <b>%s</b> (<code>%d</code>)",
			html.EscapeString(titleOrPlaceholder(c.Title)), c.TelegramChatID))
	}
	if len(managed) > maxStatusChatList {
		lines = append(lines, fmt.Sprintf("… и ещё %d чатов.", len(managed)-maxStatusChatList))
	}

	lines = append(lines,
		"",
		"Команды для аналитики:\n• <code>/as_stats</code> — сводная статистика.\n• <code>/as_recent</code> — последние скам-сообщения.",
	)

	b.sendHTML(message.Chat.ID, strings.Join(lines, "\n"))
}

func (b *Bot) statusUnboundChat(message *tgbotapi.Message) {
	lines := []string{
		"ℹ️ <b>Статус чата</b>",
		fmt.Sprintf("ID: <code>%d</code>", message.Chat.ID),
		"",
	}
	if b.resolver.IsGlobalAdminChat(message.Chat.ID) {
		lines = append(lines,
			"Этот чат указан в настройке <code>admin_chat_ids</code> как глобальный админ-чат, но к нему пока не привязано ни одного рабочего чата.",
		)
	} else {
		lines = append(lines,
			"Этот чат не привязан как рабочий и не используется как админ-чат.",
			fmt.Sprintf("Чтобы привязать рабочий чат к этому, вызови в рабочем чате:\n<code>/as_set_admin_chat %d</code>", message.Chat.ID),
		)
	}

	b.sendHTML(message.Chat.ID, strings.Join(lines, "\n"))
}

// handleSetAdminChat binds the current working chat to an admin chat.
// Group chats only, chat administrators only.
func (b *Bot) handleSetAdminChat(message *tgbotapi.Message) {
	chat := message.Chat
	if !chat.IsGroup() && !chat.IsSuperGroup() {
		b.sendHTML(chat.ID, "Эту команду нужно выполнять в групповом чате, не в личке.")
		return
	}
	if message.From == nil {
		b.sendHTML(chat.ID, "Не удалось определить отправителя команды.")
		return
	}
	if !b.isChatAdminMember(chat.ID, message.From.ID) {
		b.sendHTML(chat.ID, "Только администраторы этого чата могут менять привязку к админ-чату.")
		return
	}

	args := strings.TrimSpace(message.CommandArguments())
	if args == "" {
		b.sendHTML(chat.ID, "Укажи ID админ-чата, например:\n/as_set_admin_chat -1001234567890")
		return
	}
	adminChatID, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		b.sendHTML(chat.ID, "ID админ-чата должен быть числом (обычно в формате -100...).")
		return
	}

	if _, err := b.chatRepo.UpsertChat(chat.ID, chat.Title, chat.Type); err != nil {
		b.logger.Error("Failed to upsert chat", zap.Int64("chat_id", chat.ID), zap.Error(err))
		b.sendHTML(chat.ID, "Не удалось сохранить привязку, попробуй ещё раз.")
		return
	}
	if err := b.chatRepo.SetAdminChat(chat.ID, adminChatID); err != nil {
		b.logger.Error("Failed to bind admin chat", zap.Int64("chat_id", chat.ID), zap.Error(err))
		b.sendHTML(chat.ID, "Не удалось сохранить привязку, попробуй ещё раз.")
		return
	}

	b.sendHTML(chat.ID, fmt.Sprintf(
		"Для этого чата теперь используется админ-чат:\n<code>%d</code>\n\nУведомления о скаме и аналитика по этому чату будут доступны там.",
		adminChatID))
}

// handleStats shows summary stats over the working chats bound to this
// admin chat.
func (b *Bot) handleStats(message *tgbotapi.Message) {
	adminChatID := message.Chat.ID

	managed, err := b.resolver.ManagedChats(adminChatID)
	if err != nil {
		b.logger.Error("Failed to load managed chats", zap.Int64("chat_id", adminChatID), zap.Error(err))
		return
	}
	if len(managed) == 0 {
		b.sendHTML(adminChatID, notBoundText(adminChatID))
		return
	}

	chatIDs := internalChatIDs(managed)
	stats, err := b.recordRepo.GetStats(chatIDs)
	if err != nil {
		b.logger.Error("Failed to load stats", zap.Int64("chat_id", adminChatID), zap.Error(err))
		return
	}
	top, err := b.recordRepo.GetTopScammers(chatIDs, topScammersLimit)
	if err != nil {
		b.logger.Error("Failed to load top scammers", zap.Int64("chat_id", adminChatID), zap.Error(err))
		return
	}

	lines := []string{"📊 <b>Статистика анти-скам бота</b>"}
	if len(managed) == 1 {
		lines = append(lines, fmt.Sprintf("По чату: <b>%s</b>",
			html.EscapeString(titleOrPlaceholder(managed[0].Title))))
	} else {
		lines = append(lines, fmt.Sprintf("По %d рабочим чатам, привязанным к этому админ-чату.", len(managed)))
	}
	lines = append(lines,
		"",
		fmt.Sprintf("Всего проверенных сообщений: <b>%d</b>", stats.TotalChecked),
		fmt.Sprintf("Скам по модели: <b>%d</b>", stats.ScamByModel),
		fmt.Sprintf("Скам по решению админов: <b>%d</b>", stats.ScamByHuman),
		fmt.Sprintf("Помечено как НЕ скам: <b>%d</b>", stats.NotScamByHuman),
		fmt.Sprintf("Сообщений с ручной разметкой: <b>%d</b>", stats.HumanLabeled),
	)

	if len(top) > 0 {
		lines = append(lines, "", "👥 Топ-5 подозрительных пользователей:")
		for i, scammer := range top {
			lines = append(lines, fmt.Sprintf("%d. %s — <b>%d</b> скам-сообщений",
				i+1, html.EscapeString(scammer.Display()), scammer.Count))
		}
	}

	b.sendHTML(adminChatID, strings.Join(lines, "\n"))
}

// handleRecent lists the latest scam messages from the working chats
// bound to this admin chat. Optional argument overrides the count.
func (b *Bot) handleRecent(message *tgbotapi.Message) {
	adminChatID := message.Chat.ID

	limit := defaultRecentLimit
	if args := strings.TrimSpace(message.CommandArguments()); args != "" {
		if n, err := strconv.Atoi(args); err == nil {
			limit = n
			if limit < 1 {
				limit = 1
			}
			if limit > maxRecentLimit {
				limit = maxRecentLimit
			}
		}
	}

	managed, err := b.resolver.ManagedChats(adminChatID)
	if err != nil {
		b.logger.Error("Failed to load managed chats", zap.Int64("chat_id", adminChatID), zap.Error(err))
		return
	}
	if len(managed) == 0 {
		b.sendHTML(adminChatID, notBoundText(adminChatID))
		return
	}

	records, err := b.recordRepo.GetRecentScams(internalChatIDs(managed), limit)
	if err != nil {
		b.logger.Error("Failed to load recent scams", zap.Int64("chat_id", adminChatID), zap.Error(err))
		return
	}
	if len(records) == 0 {
		b.sendHTML(adminChatID, "Пока нет ни одного скам-сообщения в этих чатах.")
		return
	}

	lines := []string{fmt.Sprintf("🕒 Последние %d скам-сообщений:", len(records))}
	for _, rec := range records {
		lines = append(lines, recentLine(rec))
	}

	b.sendHTML(adminChatID, strings.Join(lines, "\n"))
}

func recentLine(rec *models.RecordDetail) string {
	ts := rec.CreatedAt.UTC().Format("2006-01-02 15:04")

	userName := rec.SenderUsername
	if userName == "" {
		userName = rec.SenderFirstName
	}
	if userName == "" {
		userName = fmt.Sprintf("id %d", rec.SenderTelegramID)
	}

	text := rec.Text
	if runes := []rune(text); len(runes) > 120 {
		text = string(runes[:117]) + "..."
	}
	text = strings.ReplaceAll(text, "\n", " ")

	return fmt.Sprintf("• [%s] <b>%s</b> — %s: <code>%s</code>",
		ts,
		html.EscapeString(titleOrPlaceholder(rec.ChatTitle)),
		html.EscapeString(userName),
		html.EscapeString(text))
}

func notBoundText(adminChatID int64) string {
	return fmt.Sprintf(
		"Этот чат пока не привязан ни к одному рабочему чату.\n\nВыполни в рабочем чате:\n<code>/as_set_admin_chat %d</code>",
		adminChatID)
}

func titleOrPlaceholder(title string) string {
	if title == "" {
		return "(без названия)"
	}
	return title
}

func internalChatIDs(chats []*models.Chat) []int64 {
	ids := make([]int64, 0, len(chats))
	for _, c := range chats {
		ids = append(ids, c.ID)
	}
	return ids
}

// isChatAdminMember checks a single member's status, for gating the
// admin commands. Lookup failures count as not an admin.
func (b *Bot) isChatAdminMember(chatID, userID int64) bool {
	member, err := b.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: chatID,
			UserID: userID,
		},
	})
	if err != nil {
		b.logger.Warn("Failed to check chat member status",
			zap.Int64("chat_id", chatID),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return false
	}
	return member.IsCreator() || member.IsAdministrator()
}
