package models

import (
	"strconv"
	"strings"
	"time"
)

// User is a chat participant observed by the bot. Not to be confused
// with ApiUser, which is a dashboard login.
type User struct {
	ID                  int64     `db:"id" json:"id"`
	TelegramUserID      int64     `db:"telegram_user_id" json:"telegram_user_id"`
	Username            string    `db:"username" json:"username"`
	FirstName           string    `db:"first_name" json:"first_name"`
	LastName            string    `db:"last_name" json:"last_name"`
	IsGlobalWhitelisted bool      `db:"is_global_whitelisted" json:"is_global_whitelisted"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	LastSeenAt          time.Time `db:"last_seen_at" json:"last_seen_at"`
}

// DisplayName returns the best human-readable name for the user:
// full name, then username, then the numeric Telegram id.
func (u *User) DisplayName() string {
	full := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if full != "" {
		return full
	}
	if u.Username != "" {
		return u.Username
	}
	return "id " + strconv.FormatInt(u.TelegramUserID, 10)
}
