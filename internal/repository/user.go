package repository

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/models"
)

type UserRepository interface {
	UpsertUser(telegramUserID int64, username, firstName, lastName string) (*models.User, error)
	GetUserByTelegramID(telegramUserID int64) (*models.User, error)
}

type userRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewUserRepository(db *sqlx.DB, logger *zap.Logger) UserRepository {
	return &userRepository{db: db, logger: logger}
}

// UpsertUser creates the participant row or refreshes its profile
// fields and last_seen_at, returning the stored row either way.
func (r *userRepository) UpsertUser(telegramUserID int64, username, firstName, lastName string) (*models.User, error) {
	var user models.User
	query := `INSERT INTO users (telegram_user_id, username, first_name, last_name)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (telegram_user_id)
	          DO UPDATE SET username = EXCLUDED.username, first_name = EXCLUDED.first_name,
	                        last_name = EXCLUDED.last_name, last_seen_at = NOW()
	          RETURNING id, telegram_user_id, username, first_name, last_name, is_global_whitelisted, created_at, last_seen_at`
	err := r.db.QueryRowx(query, telegramUserID, username, firstName, lastName).StructScan(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetUserByTelegramID(telegramUserID int64) (*models.User, error) {
	var user models.User
	query := `SELECT id, telegram_user_id, username, first_name, last_name, is_global_whitelisted, created_at, last_seen_at FROM users WHERE telegram_user_id = $1`
	err := r.db.Get(&user, query, telegramUserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not seen yet
		}
		return nil, err
	}
	return &user, nil
}
