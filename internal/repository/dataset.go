package repository

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/models"
)

// DatasetRepository reads the admin-labeled slice of stored messages,
// the raw material for a future fine-tuned classifier.
type DatasetRepository interface {
	GetLabeledEntries(label string) ([]*models.DatasetEntry, error)
	GetDatasetStats() (*models.DatasetStats, error)
}

type datasetRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewDatasetRepository(db *sqlx.DB, logger *zap.Logger) DatasetRepository {
	return &datasetRepository{db: db, logger: logger}
}

const datasetColumns = `m.id AS record_id, m.text, m.model_label, m.model_category,
	       m.model_confidence, m.model_version, m.human_label, m.human_labeled_at,
	       c.telegram_chat_id AS chat_telegram_id`

// GetLabeledEntries returns every message a reviewer has labeled, oldest
// first so repeated exports stay in a stable order. An empty label means
// no filtering.
func (r *datasetRepository) GetLabeledEntries(label string) ([]*models.DatasetEntry, error) {
	query := `SELECT ` + datasetColumns + `
	          FROM messages m
	          JOIN chats c ON m.chat_id = c.id
	          WHERE m.human_label IS NOT NULL`

	args := []interface{}{}
	if label != "" {
		query += ` AND m.human_label = $1`
		args = append(args, label)
	}
	query += ` ORDER BY m.human_labeled_at, m.id`

	entries := []*models.DatasetEntry{}
	if err := r.db.Select(&entries, query, args...); err != nil {
		r.logger.Error("Failed to get labeled dataset entries", zap.Error(err))
		return nil, err
	}
	return entries, nil
}

// GetDatasetStats aggregates label counts. A model prediction counts as
// agreement when SCAM was confirmed or OK matched a not-scam label.
func (r *datasetRepository) GetDatasetStats() (*models.DatasetStats, error) {
	query := `SELECT COUNT(*) AS total_labeled,
	                 COUNT(*) FILTER (WHERE human_label = $1) AS confirmed_scam,
	                 COUNT(*) FILTER (WHERE human_label = $2) AS not_scam,
	                 COUNT(*) FILTER (WHERE (human_label = $1 AND model_label = $3)
	                                     OR (human_label = $2 AND model_label = $4)) AS model_agreed
	          FROM messages
	          WHERE human_label IS NOT NULL`

	stats := &models.DatasetStats{}
	err := r.db.Get(stats, query,
		models.HumanLabelScam, models.HumanLabelNotScam, models.LabelScam, models.LabelOK)
	if err != nil {
		r.logger.Error("Failed to get dataset stats", zap.Error(err))
		return nil, err
	}
	if stats.TotalLabeled > 0 {
		stats.AgreementRate = float64(stats.ModelAgreed) / float64(stats.TotalLabeled)
	}
	return stats, nil
}
