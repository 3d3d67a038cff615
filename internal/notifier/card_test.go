package notifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/models"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/moderation"
)

func sampleCard() *Card {
	return &Card{
		ChatTitle:      "Чат",
		ChatTelegramID: -100,
		UserDisplay:    "Иван",
		UserTelegramID: 42,
		StrikeCount:    2,
		RecordID:       7,
		ModelVersion:   "gpt-test",
		Label:          "SCAM",
		Category:       "job_scam",
		Confidence:     0.93,
		Reason:         "обещания",
		MessageText:    "быстрые деньги",
	}
}

func TestCard_Render(t *testing.T) {
	expected := "🚨 <b>Обнаружен возможный скам</b>\n" +
		"\n" +
		"👥 Чат: <b>Чат</b> (<code>-100</code>)\n" +
		"🙍‍♂️ Пользователь: <b>Иван</b> (<code>42</code>)\n" +
		"⚠️ Страйков в этом чате: <b>2</b>\n" +
		"🆔 ID в БД: <code>7</code>\n" +
		"\n" +
		"🤖 Модель: <code>gpt-test</code>\n" +
		"🏷 Метка: <b>SCAM</b> (job_scam)\n" +
		"📊 Уверенность: <b>0.93</b>\n" +
		"📝 Причина: обещания\n" +
		"\n" +
		"💬 Текст сообщения:\n<code>быстрые деньги</code>"

	assert.Equal(t, expected, sampleCard().Render())
}

func TestCard_RenderEscapesUserControlledFields(t *testing.T) {
	card := sampleCard()
	card.ChatTitle = "<script>"
	card.UserDisplay = "a<b>"
	card.Reason = "x & y"
	card.MessageText = "<code>hack</code>"

	text := card.Render()
	assert.Contains(t, text, "&lt;script&gt;")
	assert.Contains(t, text, "a&lt;b&gt;")
	assert.Contains(t, text, "x &amp; y")
	assert.Contains(t, text, "&lt;code&gt;hack&lt;/code&gt;")
	assert.NotContains(t, text, "<script>")
}

func TestCard_RenderEmptyTitlePlaceholder(t *testing.T) {
	card := sampleCard()
	card.ChatTitle = ""
	assert.Contains(t, card.Render(), "(без названия)")
}

func TestCard_RenderWithDecision(t *testing.T) {
	card := sampleCard()
	card.Decision = &Decision{Label: models.HumanLabelScam}

	text := card.Render()
	assert.Contains(t, text, "\n\n👮 Решение админа: <b>СКАМ (подтверждено)</b>")
}

func TestDecision_Line(t *testing.T) {
	assert.Equal(t, "👮 Решение админа: <b>СКАМ (подтверждено)</b>",
		(&Decision{Label: models.HumanLabelScam}).Line())
	assert.Equal(t, "👮 Решение админа: <b>НЕ СКАМ</b>",
		(&Decision{Label: models.HumanLabelNotScam}).Line())
	assert.Empty(t, (&Decision{Label: "garbage"}).Line())
}

func TestCardFromEvent(t *testing.T) {
	strikes := 1
	ev := &moderation.ScamEvent{
		Chat: &models.Chat{TelegramChatID: -500, Title: "Чат"},
		User: &models.User{TelegramUserID: 900, FirstName: "Спам"},
		Record: &models.ModerationRecord{
			ID: 3, Text: "текст", ModelLabel: "SCAM", ModelCategory: "crypto",
			ModelConfidence: 0.8, ModelReason: "п", ModelVersion: "gpt-test",
			StrikeCount: &strikes,
		},
		StrikeCount: 1,
	}

	card := CardFromEvent(ev)
	assert.Equal(t, int64(-500), card.ChatTelegramID)
	assert.Equal(t, "Спам", card.UserDisplay)
	assert.Equal(t, 1, card.StrikeCount)
	assert.Equal(t, int64(3), card.RecordID)
	assert.Equal(t, "crypto", card.Category)
	assert.Nil(t, card.Decision)
}

func TestCardFromDetail_WithHumanLabel(t *testing.T) {
	strikes := 2
	label := models.HumanLabelNotScam
	d := &models.RecordDetail{
		ModerationRecord: models.ModerationRecord{
			ID: 7, Text: "т", ModelLabel: "SCAM", ModelCategory: "other",
			ModelConfidence: 0.75, ModelVersion: "gpt-test",
			StrikeCount: &strikes, HumanLabel: &label,
		},
		ChatTelegramID:   -500,
		ChatTitle:        "Чат",
		SenderTelegramID: 900,
		SenderUsername:   "spammer",
	}

	card := CardFromDetail(d)
	assert.Equal(t, 2, card.StrikeCount)
	assert.Equal(t, "spammer", card.UserDisplay)
	require.NotNil(t, card.Decision)
	assert.Equal(t, models.HumanLabelNotScam, card.Decision.Label)
}

func TestCardFromDetail_NilStrikeDefaultsToOne(t *testing.T) {
	d := &models.RecordDetail{
		ModerationRecord: models.ModerationRecord{ID: 7, ModelLabel: "SCAM"},
	}
	assert.Equal(t, 1, CardFromDetail(d).StrikeCount)
}
