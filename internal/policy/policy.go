package policy

import (
	"fmt"
	"html"
	"time"
)

// Strike thresholds: first strike warns, second mutes, third and
// beyond ban.
const (
	WarnStrikes = 1
	MuteStrikes = 2
	BanStrikes  = 3
)

// MuteDuration is how long a second-strike mute lasts.
const MuteDuration = 24 * time.Hour

// Action is the sanction the escalation ladder prescribes for a
// strike count.
type Action int

const (
	ActionNone Action = iota
	ActionWarn
	ActionMute
	ActionBan
)

func (a Action) String() string {
	switch a {
	case ActionWarn:
		return "warn"
	case ActionMute:
		return "mute"
	case ActionBan:
		return "ban"
	default:
		return "none"
	}
}

// Decide maps a strike count to a sanction. Pure function of the
// count; zero or negative counts prescribe nothing.
func Decide(strikeCount int) Action {
	switch {
	case strikeCount <= 0:
		return ActionNone
	case strikeCount == WarnStrikes:
		return ActionWarn
	case strikeCount == MuteStrikes:
		return ActionMute
	default:
		return ActionBan
	}
}

// Mention builds an HTML mention link for a chat member. The display
// name is escaped; an empty name falls back to a generic word.
func Mention(telegramUserID int64, displayName string) string {
	if displayName == "" {
		displayName = "пользователь"
	}
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, telegramUserID, html.EscapeString(displayName))
}

// Notice builds the member-facing chat announcement for an action.
// Empty for ActionNone.
func Notice(action Action, mention string) string {
	switch action {
	case ActionWarn:
		return mention + ", ваше сообщение было расценено как возможный скам.\n" +
			"Пожалуйста, не публикуйте подобные предложения. " +
			"Повторные нарушения могут привести к ограничениям и блокировке."
	case ActionMute:
		return fmt.Sprintf("%s временно ограничен(а) в праве писать в чат на %d ч "+
			"за повторные подозрительные сообщения.", mention, int(MuteDuration.Hours()))
	case ActionBan:
		return mention + " был(а) удалён(а) из чата за множественные подозрительные сообщения.\n" +
			"Если это ошибка, администраторы могут пересмотреть решение вручную."
	default:
		return ""
	}
}
