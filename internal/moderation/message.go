package moderation

import (
	"strconv"
	"strings"
)

// IncomingMessage is a group message as the pipeline sees it,
// independent of the transport that delivered it.
type IncomingMessage struct {
	ChatID    int64
	ChatTitle string
	ChatType  string // group, supergroup, private, channel
	MessageID int64
	Sender    *Sender // nil for service messages
	Text      string
}

// Sender describes the message author.
type Sender struct {
	TelegramUserID int64
	Username       string
	FirstName      string
	LastName       string
	IsBot          bool
}

// DisplayName returns the sender's best human-readable name.
func (s *Sender) DisplayName() string {
	if name := s.MentionName(); name != "" {
		return name
	}
	return "id " + strconv.FormatInt(s.TelegramUserID, 10)
}

// MentionName returns the name to show in a mention link: full name,
// then username, empty when neither is known.
func (s *Sender) MentionName() string {
	full := strings.TrimSpace(strings.TrimSpace(s.FirstName) + " " + strings.TrimSpace(s.LastName))
	if full != "" {
		return full
	}
	return s.Username
}
