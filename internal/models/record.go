package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Classifier labels as they appear in model output and in the
// model_label column.
const (
	LabelScam = "SCAM"
	LabelOK   = "OK"
)

// Human review labels stored in the human_label column.
const (
	HumanLabelScam    = "SCAM"
	HumanLabelNotScam = "NOT_SCAM"
)

// SkipReasonLowConfidence marks records where the model said SCAM but
// stayed below the confidence threshold: stored, never enforced.
const SkipReasonLowConfidence = "low_confidence"

// ModerationRecord is one classified message, stored in the 'messages'
// table. A record exists only when the classifier produced a complete
// verdict, so the model_* fields are always populated.
type ModerationRecord struct {
	ID                int64          `db:"id" json:"id"`
	ChatID            int64          `db:"chat_id" json:"chat_id"`
	UserID            int64          `db:"user_id" json:"user_id"`
	TelegramMessageID int64          `db:"telegram_message_id" json:"telegram_message_id"`
	Text              string         `db:"text" json:"text"`
	ModelLabel        string         `db:"model_label" json:"model_label"`
	ModelCategory     string         `db:"model_category" json:"model_category"`
	ModelConfidence   float64        `db:"model_confidence" json:"model_confidence"`
	ModelReason       string         `db:"model_reason" json:"model_reason"`
	ModelRawJSON      types.JSONText `db:"model_raw_json" json:"model_raw_json,omitempty"`
	ModelVersion      string         `db:"model_version" json:"model_version"`
	HumanLabel        *string        `db:"human_label" json:"human_label,omitempty"`
	HumanLabeledAt    *time.Time     `db:"human_labeled_at" json:"human_labeled_at,omitempty"`
	HumanLabeledBy    *int64         `db:"human_labeled_by" json:"human_labeled_by,omitempty"`
	IsScamEffective   bool           `db:"is_scam_effective" json:"is_scam_effective"`
	SkippedReason     *string        `db:"skipped_reason" json:"skipped_reason,omitempty"`
	StrikeCount       *int           `db:"strike_count" json:"strike_count,omitempty"` // count after the strike, NULL when none taken
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
}

// RecordDetail is a moderation record joined with its chat and sender,
// enough to rebuild a notification card without extra lookups.
type RecordDetail struct {
	ModerationRecord
	ChatTelegramID      int64  `db:"chat_telegram_id" json:"chat_telegram_id"`
	ChatTitle           string `db:"chat_title" json:"chat_title"`
	AdminChatTelegramID *int64 `db:"chat_admin_chat_telegram_id" json:"admin_chat_telegram_id,omitempty"`
	SenderTelegramID    int64  `db:"sender_telegram_id" json:"sender_telegram_id"`
	SenderUsername      string `db:"sender_username" json:"sender_username"`
	SenderFirstName     string `db:"sender_first_name" json:"sender_first_name"`
	SenderLastName      string `db:"sender_last_name" json:"sender_last_name"`
}

// Sender rebuilds the participant the record belongs to.
func (d *RecordDetail) Sender() *User {
	return &User{
		ID:             d.UserID,
		TelegramUserID: d.SenderTelegramID,
		Username:       d.SenderUsername,
		FirstName:      d.SenderFirstName,
		LastName:       d.SenderLastName,
	}
}

// ModerationStats aggregates pipeline outcomes over a set of chats.
type ModerationStats struct {
	TotalChecked   int64 `db:"total_checked" json:"total_checked"`
	ScamByModel    int64 `db:"scam_by_model" json:"scam_by_model"`
	ScamByHuman    int64 `db:"scam_by_human" json:"scam_by_human"`
	NotScamByHuman int64 `db:"not_scam_by_human" json:"not_scam_by_human"`
	HumanLabeled   int64 `db:"human_labeled" json:"human_labeled"`
}

// TopScammer is a row of the scam-message leaderboard shown by the
// stats command: how many SCAM-labeled messages a user produced.
type TopScammer struct {
	TelegramUserID int64  `db:"telegram_user_id" json:"telegram_user_id"`
	Username       string `db:"username" json:"username"`
	FirstName      string `db:"first_name" json:"first_name"`
	Count          int64  `db:"cnt" json:"count"`
}

// Display returns the leaderboard name: username, then first name,
// then a placeholder.
func (t *TopScammer) Display() string {
	if t.Username != "" {
		return t.Username
	}
	if t.FirstName != "" {
		return t.FirstName
	}
	return "(без имени)"
}

// TopOffender is a strike-leaderboard row for the stats command and
// the dashboard.
type TopOffender struct {
	TelegramUserID int64  `db:"telegram_user_id" json:"telegram_user_id"`
	Username       string `db:"username" json:"username"`
	FirstName      string `db:"first_name" json:"first_name"`
	LastName       string `db:"last_name" json:"last_name"`
	ChatTitle      string `db:"chat_title" json:"chat_title"`
	StrikeCount    int    `db:"strike_count" json:"strike_count"`
}

// Display returns the offender's best human-readable name.
func (t *TopOffender) Display() string {
	u := User{
		TelegramUserID: t.TelegramUserID,
		Username:       t.Username,
		FirstName:      t.FirstName,
		LastName:       t.LastName,
	}
	return u.DisplayName()
}
