package repository

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/models"
)

type ChatRepository interface {
	UpsertChat(telegramChatID int64, title, chatType string) (*models.Chat, error)
	GetChatByTelegramID(telegramChatID int64) (*models.Chat, error)
	GetChatByID(id int64) (*models.Chat, error)
	GetChatSummaries() ([]*models.ChatSummary, error)
	SetAdminChat(telegramChatID, adminChatTelegramID int64) error
	IsBoundAdminChat(telegramChatID int64) (bool, error)
	GetManagedChats(adminChatTelegramID int64) ([]*models.Chat, error)
}

type chatRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewChatRepository(db *sqlx.DB, logger *zap.Logger) ChatRepository {
	return &chatRepository{db: db, logger: logger}
}

// UpsertChat creates the chat row or refreshes its title and type,
// returning the stored row either way.
func (r *chatRepository) UpsertChat(telegramChatID int64, title, chatType string) (*models.Chat, error) {
	var chat models.Chat
	query := `INSERT INTO chats (telegram_chat_id, title, chat_type)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (telegram_chat_id)
	          DO UPDATE SET title = EXCLUDED.title, chat_type = EXCLUDED.chat_type, updated_at = NOW()
	          RETURNING id, telegram_chat_id, title, chat_type, admin_chat_telegram_id, created_at, updated_at`
	err := r.db.QueryRowx(query, telegramChatID, title, chatType).StructScan(&chat)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *chatRepository) GetChatByTelegramID(telegramChatID int64) (*models.Chat, error) {
	var chat models.Chat
	query := `SELECT id, telegram_chat_id, title, chat_type, admin_chat_telegram_id, created_at, updated_at FROM chats WHERE telegram_chat_id = $1`
	err := r.db.Get(&chat, query, telegramChatID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Chat not found
		}
		return nil, err
	}
	return &chat, nil
}

func (r *chatRepository) GetChatByID(id int64) (*models.Chat, error) {
	var chat models.Chat
	query := `SELECT id, telegram_chat_id, title, chat_type, admin_chat_telegram_id, created_at, updated_at FROM chats WHERE id = $1`
	err := r.db.Get(&chat, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &chat, nil
}

// GetChatSummaries lists every known chat with its moderation
// counters, busiest chats first.
func (r *chatRepository) GetChatSummaries() ([]*models.ChatSummary, error) {
	summaries := []*models.ChatSummary{}
	query := `SELECT c.id, c.telegram_chat_id, c.title, c.chat_type, c.admin_chat_telegram_id, c.created_at, c.updated_at,
	                 COUNT(m.id) AS message_count,
	                 COUNT(m.id) FILTER (WHERE m.is_scam_effective) AS scam_count,
	                 MAX(m.created_at) AS last_message_at
	          FROM chats c
	          LEFT JOIN messages m ON m.chat_id = c.id
	          GROUP BY c.id
	          ORDER BY message_count DESC, c.title`
	err := r.db.Select(&summaries, query)
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// SetAdminChat binds an admin chat to a working chat. The chat row must
// already exist (the bind command runs inside the chat being bound).
func (r *chatRepository) SetAdminChat(telegramChatID, adminChatTelegramID int64) error {
	query := `UPDATE chats SET admin_chat_telegram_id = $1, updated_at = NOW() WHERE telegram_chat_id = $2`
	res, err := r.db.Exec(query, adminChatTelegramID, telegramChatID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// IsBoundAdminChat reports whether any working chat references the
// given chat as its admin chat.
func (r *chatRepository) IsBoundAdminChat(telegramChatID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM chats WHERE admin_chat_telegram_id = $1)`
	err := r.db.Get(&exists, query, telegramChatID)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *chatRepository) GetManagedChats(adminChatTelegramID int64) ([]*models.Chat, error) {
	var chats []*models.Chat
	query := `SELECT id, telegram_chat_id, title, chat_type, admin_chat_telegram_id, created_at, updated_at
	          FROM chats WHERE admin_chat_telegram_id = $1 ORDER BY title`
	err := r.db.Select(&chats, query, adminChatTelegramID)
	if err != nil {
		return nil, err
	}
	return chats, nil
}
