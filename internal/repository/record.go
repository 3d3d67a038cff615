package repository

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/models"
)

type RecordRepository interface {
	InsertRecord(rec *models.ModerationRecord) error
	GetRecordByID(id int64) (*models.ModerationRecord, error)
	GetRecordDetail(id int64) (*models.RecordDetail, error)
	SetHumanLabel(recordID int64, label string, reviewerUserID int64) error
	GetStats(chatIDs []int64) (*models.ModerationStats, error)
	GetTopScammers(chatIDs []int64, limit int) ([]*models.TopScammer, error)
	GetRecentScams(chatIDs []int64, limit int) ([]*models.RecordDetail, error)
	GetRecentRecords(limit, offset int) ([]*models.RecordDetail, error)
}

type recordRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewRecordRepository(db *sqlx.DB, logger *zap.Logger) RecordRepository {
	return &recordRepository{db: db, logger: logger}
}

const recordColumns = `id, chat_id, user_id, telegram_message_id, text,
	model_label, model_category, model_confidence, model_reason, model_raw_json, model_version,
	human_label, human_labeled_at, human_labeled_by,
	is_scam_effective, skipped_reason, strike_count, created_at`

const recordDetailQuery = `
	SELECT m.id, m.chat_id, m.user_id, m.telegram_message_id, m.text,
	       m.model_label, m.model_category, m.model_confidence, m.model_reason,
	       m.model_raw_json, m.model_version,
	       m.human_label, m.human_labeled_at, m.human_labeled_by,
	       m.is_scam_effective, m.skipped_reason, m.strike_count, m.created_at,
	       c.telegram_chat_id AS chat_telegram_id,
	       c.title AS chat_title,
	       c.admin_chat_telegram_id AS chat_admin_chat_telegram_id,
	       u.telegram_user_id AS sender_telegram_id,
	       u.username AS sender_username,
	       u.first_name AS sender_first_name,
	       u.last_name AS sender_last_name
	FROM messages m
	JOIN chats c ON m.chat_id = c.id
	JOIN users u ON m.user_id = u.id`

func (r *recordRepository) InsertRecord(rec *models.ModerationRecord) error {
	query := `INSERT INTO messages (chat_id, user_id, telegram_message_id, text,
	              model_label, model_category, model_confidence, model_reason, model_raw_json, model_version,
	              is_scam_effective, skipped_reason, strike_count)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	          RETURNING id, created_at`
	return r.db.QueryRowx(query, rec.ChatID, rec.UserID, rec.TelegramMessageID, rec.Text,
		rec.ModelLabel, rec.ModelCategory, rec.ModelConfidence, rec.ModelReason, rec.ModelRawJSON, rec.ModelVersion,
		rec.IsScamEffective, rec.SkippedReason, rec.StrikeCount).StructScan(rec)
}

func (r *recordRepository) GetRecordByID(id int64) (*models.ModerationRecord, error) {
	var rec models.ModerationRecord
	query := `SELECT ` + recordColumns + ` FROM messages WHERE id = $1`
	err := r.db.Get(&rec, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Record not found
		}
		return nil, err
	}
	return &rec, nil
}

// GetRecordDetail loads the record together with its chat and sender,
// enough to rebuild the admin-chat card without further queries.
func (r *recordRepository) GetRecordDetail(id int64) (*models.RecordDetail, error) {
	var detail models.RecordDetail
	query := recordDetailQuery + ` WHERE m.id = $1`
	err := r.db.Get(&detail, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &detail, nil
}

// SetHumanLabel records a reviewer decision. Plain overwrite: repeated
// calls keep the last decision, which is the intended behavior for
// concurrent reviewers.
func (r *recordRepository) SetHumanLabel(recordID int64, label string, reviewerUserID int64) error {
	query := `UPDATE messages SET human_label = $1, human_labeled_at = NOW(), human_labeled_by = $2 WHERE id = $3`
	res, err := r.db.Exec(query, label, reviewerUserID, recordID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetStats aggregates pipeline outcomes. An empty chat list means all
// chats (the dashboard view); otherwise only the listed internal ids.
func (r *recordRepository) GetStats(chatIDs []int64) (*models.ModerationStats, error) {
	var stats models.ModerationStats
	query := `SELECT COUNT(*) AS total_checked,
	                 COUNT(*) FILTER (WHERE model_label = 'SCAM') AS scam_by_model,
	                 COUNT(*) FILTER (WHERE human_label = 'SCAM') AS scam_by_human,
	                 COUNT(*) FILTER (WHERE human_label = 'NOT_SCAM') AS not_scam_by_human,
	                 COUNT(*) FILTER (WHERE human_label IS NOT NULL) AS human_labeled
	          FROM messages`
	args := []interface{}{}
	if len(chatIDs) > 0 {
		in, inArgs, err := sqlx.In(` WHERE chat_id IN (?)`, chatIDs)
		if err != nil {
			return nil, err
		}
		query += in
		args = append(args, inArgs...)
	}
	err := r.db.Get(&stats, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetTopScammers ranks users by the number of their messages labeled
// SCAM by the model or by an admin. An empty chat list means all chats.
func (r *recordRepository) GetTopScammers(chatIDs []int64, limit int) ([]*models.TopScammer, error) {
	scammers := []*models.TopScammer{}
	query := `SELECT u.telegram_user_id, u.username, u.first_name, COUNT(m.id) AS cnt
	          FROM messages m
	          JOIN users u ON m.user_id = u.id
	          WHERE (m.model_label = 'SCAM' OR m.human_label = 'SCAM')`
	args := []interface{}{}
	if len(chatIDs) > 0 {
		in, inArgs, err := sqlx.In(` AND m.chat_id IN (?)`, chatIDs)
		if err != nil {
			return nil, err
		}
		query += in
		args = append(args, inArgs...)
	}
	query += ` GROUP BY u.id ORDER BY COUNT(m.id) DESC LIMIT ?`
	args = append(args, limit)

	err := r.db.Select(&scammers, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	return scammers, nil
}

// GetRecentScams lists the latest records labeled SCAM by the model or
// by an admin, newest first. An empty chat list means all chats.
func (r *recordRepository) GetRecentScams(chatIDs []int64, limit int) ([]*models.RecordDetail, error) {
	records := []*models.RecordDetail{}
	query := recordDetailQuery + ` WHERE (m.model_label = 'SCAM' OR m.human_label = 'SCAM')`
	args := []interface{}{}
	if len(chatIDs) > 0 {
		in, inArgs, err := sqlx.In(` AND m.chat_id IN (?)`, chatIDs)
		if err != nil {
			return nil, err
		}
		query += in
		args = append(args, inArgs...)
	}
	query += ` ORDER BY m.created_at DESC LIMIT ?`
	args = append(args, limit)

	err := r.db.Select(&records, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *recordRepository) GetRecentRecords(limit, offset int) ([]*models.RecordDetail, error) {
	records := []*models.RecordDetail{}
	query := recordDetailQuery + ` ORDER BY m.created_at DESC LIMIT $1 OFFSET $2`
	err := r.db.Select(&records, query, limit, offset)
	if err != nil {
		return nil, err
	}
	return records, nil
}
