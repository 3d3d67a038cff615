package models

import "time"

// ChatMember ties a user to a chat and carries the per-chat moderation
// state: whitelist/blacklist flags and the strike counter. The strike
// counter only ever grows; there is no decrement path.
type ChatMember struct {
	ID            int64      `db:"id" json:"id"`
	ChatID        int64      `db:"chat_id" json:"chat_id"`
	UserID        int64      `db:"user_id" json:"user_id"`
	IsWhitelisted bool       `db:"is_whitelisted" json:"is_whitelisted"`
	IsBlacklisted bool       `db:"is_blacklisted" json:"is_blacklisted"`
	StrikeCount   int        `db:"strike_count" json:"strike_count"`
	LastStrikeAt  *time.Time `db:"last_strike_at" json:"last_strike_at,omitempty"`
	Notes         *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}
