package admin_chats

import (
	"go.uber.org/zap"

	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/models"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/repository"
)

// Resolver answers every "which chats are admin chats" question:
// where to send scam cards for a given working chat, whether a chat
// acts as an admin chat, and which working chats an admin chat
// manages. The global admin chat list is fixed at construction.
type Resolver struct {
	chats     repository.ChatRepository
	globalIDs []int64
	logger    *zap.Logger
}

func NewResolver(chats repository.ChatRepository, globalAdminChatIDs []int64, logger *zap.Logger) *Resolver {
	ids := make([]int64, len(globalAdminChatIDs))
	copy(ids, globalAdminChatIDs)
	return &Resolver{chats: chats, globalIDs: ids, logger: logger}
}

// ResolveTargets returns the admin chats that should receive cards for
// the given working chat: the bound local admin chat first, then the
// global ones in configured order, without duplicates. May be empty.
// sourceChat may be nil when the chat is not stored yet.
func (r *Resolver) ResolveTargets(sourceChat *models.Chat) []int64 {
	targets := make([]int64, 0, len(r.globalIDs)+1)
	seen := make(map[int64]bool)

	if sourceChat != nil && sourceChat.AdminChatTelegramID != nil {
		targets = append(targets, *sourceChat.AdminChatTelegramID)
		seen[*sourceChat.AdminChatTelegramID] = true
	}
	for _, id := range r.globalIDs {
		if seen[id] {
			continue
		}
		targets = append(targets, id)
		seen[id] = true
	}
	return targets
}

// IsGlobalAdminChat reports whether the chat is in the configured
// global admin chat list.
func (r *Resolver) IsGlobalAdminChat(telegramChatID int64) bool {
	for _, id := range r.globalIDs {
		if id == telegramChatID {
			return true
		}
	}
	return false
}

// IsAdminChat reports whether the chat serves as an admin chat: either
// configured globally or bound to some working chat.
func (r *Resolver) IsAdminChat(telegramChatID int64) (bool, error) {
	if r.IsGlobalAdminChat(telegramChatID) {
		return true, nil
	}
	bound, err := r.chats.IsBoundAdminChat(telegramChatID)
	if err != nil {
		return false, err
	}
	return bound, nil
}

// ManagedChats returns the working chats bound to the given admin chat.
func (r *Resolver) ManagedChats(adminChatTelegramID int64) ([]*models.Chat, error) {
	return r.chats.GetManagedChats(adminChatTelegramID)
}

// CanReview reports whether an admin chat may override the verdict on
// a record from the given working chat: global admin chats may review
// everything, a local admin chat only its bound working chats.
func (r *Resolver) CanReview(adminChatTelegramID int64, recordChat *models.Chat) bool {
	if r.IsGlobalAdminChat(adminChatTelegramID) {
		return true
	}
	return recordChat != nil && recordChat.AdminChatTelegramID != nil &&
		*recordChat.AdminChatTelegramID == adminChatTelegramID
}
