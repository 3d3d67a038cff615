package notifier

import (
	"fmt"
	"html"
	"strings"

	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/models"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/moderation"
)

// Decision is a human review verdict shown on a card. Rendering is
// driven by this structured value; the card text is never parsed back.
type Decision struct {
	Label string // models.HumanLabelScam or models.HumanLabelNotScam
}

// Line renders the admin-decision annotation appended to a card.
func (d *Decision) Line() string {
	switch d.Label {
	case models.HumanLabelScam:
		return "👮 Решение админа: <b>СКАМ (подтверждено)</b>"
	case models.HumanLabelNotScam:
		return "👮 Решение админа: <b>НЕ СКАМ</b>"
	default:
		return ""
	}
}

// Card is the view model of an admin-chat scam notification. Built
// from a scam event for live notifications and from the stored record
// when a card has to be redrawn after a review.
type Card struct {
	ChatTitle      string
	ChatTelegramID int64
	UserDisplay    string
	UserTelegramID int64
	StrikeCount    int
	RecordID       int64
	ModelVersion   string
	Label          string
	Category       string
	Confidence     float64
	Reason         string
	MessageText    string
	Decision       *Decision
}

// CardFromEvent builds the card for a freshly detected scam.
func CardFromEvent(ev *moderation.ScamEvent) *Card {
	return &Card{
		ChatTitle:      ev.Chat.Title,
		ChatTelegramID: ev.Chat.TelegramChatID,
		UserDisplay:    ev.User.DisplayName(),
		UserTelegramID: ev.User.TelegramUserID,
		StrikeCount:    ev.StrikeCount,
		RecordID:       ev.Record.ID,
		ModelVersion:   ev.Record.ModelVersion,
		Label:          ev.Record.ModelLabel,
		Category:       ev.Record.ModelCategory,
		Confidence:     ev.Record.ModelConfidence,
		Reason:         ev.Record.ModelReason,
		MessageText:    ev.Record.Text,
	}
}

// CardFromDetail rebuilds the card from a stored record, including the
// review decision if one was made.
func CardFromDetail(d *models.RecordDetail) *Card {
	strikes := 1
	if d.StrikeCount != nil {
		strikes = *d.StrikeCount
	}
	card := &Card{
		ChatTitle:      d.ChatTitle,
		ChatTelegramID: d.ChatTelegramID,
		UserDisplay:    d.Sender().DisplayName(),
		UserTelegramID: d.SenderTelegramID,
		StrikeCount:    strikes,
		RecordID:       d.ID,
		ModelVersion:   d.ModelVersion,
		Label:          d.ModelLabel,
		Category:       d.ModelCategory,
		Confidence:     d.ModelConfidence,
		Reason:         d.ModelReason,
		MessageText:    d.Text,
	}
	if d.HumanLabel != nil {
		card.Decision = &Decision{Label: *d.HumanLabel}
	}
	return card
}

// Render produces the HTML card text. User-controlled fields are
// escaped; label and category come from a validated verdict.
func (c *Card) Render() string {
	title := c.ChatTitle
	if title == "" {
		title = "(без названия)"
	}

	var b strings.Builder
	b.WriteString("🚨 <b>Обнаружен возможный скам</b>\n\n")
	fmt.Fprintf(&b, "👥 Чат: <b>%s</b> (<code>%d</code>)\n", html.EscapeString(title), c.ChatTelegramID)
	fmt.Fprintf(&b, "🙍‍♂️ Пользователь: <b>%s</b> (<code>%d</code>)\n", html.EscapeString(c.UserDisplay), c.UserTelegramID)
	fmt.Fprintf(&b, "⚠️ Страйков в этом чате: <b>%d</b>\n", c.StrikeCount)
	fmt.Fprintf(&b, "🆔 ID в БД: <code>%d</code>\n\n", c.RecordID)
	fmt.Fprintf(&b, "🤖 Модель: <code>%s</code>\n", c.ModelVersion)
	fmt.Fprintf(&b, "🏷 Метка: <b>%s</b> (%s)\n", c.Label, c.Category)
	fmt.Fprintf(&b, "📊 Уверенность: <b>%.2f</b>\n", c.Confidence)
	fmt.Fprintf(&b, "📝 Причина: %s\n\n", html.EscapeString(c.Reason))
	fmt.Fprintf(&b, "💬 Текст сообщения:\n<code>%s</code>", html.EscapeString(c.MessageText))

	if c.Decision != nil {
		if line := c.Decision.Line(); line != "" {
			b.WriteString("\n\n")
			b.WriteString(line)
		}
	}
	return b.String()
}
