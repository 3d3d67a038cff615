package repository

import (
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/models"
)

type ApiUserRepository interface {
	CreateApiUser(user *models.ApiUser) error
	GetApiUserByUsername(username string) (*models.ApiUser, error)
	CountApiUsers() (int, error)
}

type apiUserRepository struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func NewApiUserRepository(db *sqlx.DB, log *logrus.Logger) ApiUserRepository {
	return &apiUserRepository{db: db, log: log}
}

func (r *apiUserRepository) CreateApiUser(user *models.ApiUser) error {
	query := `INSERT INTO api_users (username, password_hash, role) VALUES ($1, $2, $3) RETURNING id, created_at`
	return r.db.QueryRowx(query, user.Username, user.PasswordHash, user.Role).StructScan(user)
}

func (r *apiUserRepository) GetApiUserByUsername(username string) (*models.ApiUser, error) {
	var user models.ApiUser
	query := `SELECT id, username, password_hash, role, created_at FROM api_users WHERE username = $1`
	err := r.db.Get(&user, query, username)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *apiUserRepository) CountApiUsers() (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM api_users`
	err := r.db.Get(&count, query)
	if err != nil {
		return 0, err
	}
	return count, nil
}
