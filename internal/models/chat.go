package models

import "time"

// Chat represents a Telegram chat known to the bot: a monitored group,
// a supergroup, or a private chat someone once ran a command in.
type Chat struct {
	ID                  int64     `db:"id" json:"id"`
	TelegramChatID      int64     `db:"telegram_chat_id" json:"telegram_chat_id"`
	Title               string    `db:"title" json:"title"`
	ChatType            string    `db:"chat_type" json:"chat_type"` // group, supergroup, private, channel
	AdminChatTelegramID *int64    `db:"admin_chat_telegram_id" json:"admin_chat_telegram_id,omitempty"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// IsGroup reports whether the chat is a group or supergroup, the only
// chat types the moderation pipeline inspects.
func (c *Chat) IsGroup() bool {
	return c.ChatType == "group" || c.ChatType == "supergroup"
}

// ChatSummary is a chat row with moderation counters, computed from a
// joined query for the dashboard chat list.
type ChatSummary struct {
	Chat
	MessageCount  int64      `db:"message_count" json:"message_count"`
	ScamCount     int64      `db:"scam_count" json:"scam_count"`
	LastMessageAt *time.Time `db:"last_message_at" json:"last_message_at,omitempty"`
}
