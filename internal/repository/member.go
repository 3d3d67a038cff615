package repository

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/models"
)

type MemberRepository interface {
	EnsureMember(chatID, userID int64) (*models.ChatMember, error)
	GetMember(chatID, userID int64) (*models.ChatMember, error)
	IncrementStrikes(chatID, userID int64) (int, error)
	GetTopOffenders(chatIDs []int64, limit int) ([]*models.TopOffender, error)
}

type memberRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewMemberRepository(db *sqlx.DB, logger *zap.Logger) MemberRepository {
	return &memberRepository{db: db, logger: logger}
}

const memberColumns = `id, chat_id, user_id, is_whitelisted, is_blacklisted, strike_count, last_strike_at, notes, created_at, updated_at`

// EnsureMember creates the membership row if it does not exist and
// returns the stored row either way.
func (r *memberRepository) EnsureMember(chatID, userID int64) (*models.ChatMember, error) {
	var member models.ChatMember
	query := `INSERT INTO chat_members (chat_id, user_id)
	          VALUES ($1, $2)
	          ON CONFLICT (chat_id, user_id)
	          DO UPDATE SET updated_at = NOW()
	          RETURNING ` + memberColumns
	err := r.db.QueryRowx(query, chatID, userID).StructScan(&member)
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) GetMember(chatID, userID int64) (*models.ChatMember, error) {
	var member models.ChatMember
	query := `SELECT ` + memberColumns + ` FROM chat_members WHERE chat_id = $1 AND user_id = $2`
	err := r.db.Get(&member, query, chatID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not a known member yet
		}
		return nil, err
	}
	return &member, nil
}

// IncrementStrikes adds one strike and returns the new count. A single
// upsert statement, so concurrent messages from the same offender can
// never read-modify-write each other's count, and the membership row
// is created on the first strike if needed.
func (r *memberRepository) IncrementStrikes(chatID, userID int64) (int, error) {
	var count int
	query := `INSERT INTO chat_members (chat_id, user_id, strike_count, last_strike_at)
	          VALUES ($1, $2, 1, NOW())
	          ON CONFLICT (chat_id, user_id)
	          DO UPDATE SET strike_count = chat_members.strike_count + 1, last_strike_at = NOW(), updated_at = NOW()
	          RETURNING strike_count`
	err := r.db.Get(&count, query, chatID, userID)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// GetTopOffenders lists members with strikes across the given chats,
// highest counts first. An empty chat list means all chats.
func (r *memberRepository) GetTopOffenders(chatIDs []int64, limit int) ([]*models.TopOffender, error) {
	offenders := []*models.TopOffender{}
	query := `SELECT u.telegram_user_id, u.username, u.first_name, u.last_name,
	                 COALESCE(c.title, 'Неизвестно') AS chat_title, cm.strike_count
	          FROM chat_members cm
	          JOIN users u ON cm.user_id = u.id
	          JOIN chats c ON cm.chat_id = c.id
	          WHERE cm.strike_count > 0`
	args := []interface{}{}
	if len(chatIDs) > 0 {
		in, inArgs, err := sqlx.In(` AND cm.chat_id IN (?)`, chatIDs)
		if err != nil {
			return nil, err
		}
		query += in
		args = append(args, inArgs...)
	}
	query += ` ORDER BY cm.strike_count DESC, cm.last_strike_at DESC LIMIT ?`
	args = append(args, limit)

	err := r.db.Select(&offenders, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	return offenders, nil
}
