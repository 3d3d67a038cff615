package models

import "time"

// DatasetEntry is one admin-labeled message, exported as training data
// for a future in-house classifier.
type DatasetEntry struct {
	RecordID        int64     `db:"record_id" json:"record_id"`
	Text            string    `db:"text" json:"text"`
	ModelLabel      string    `db:"model_label" json:"model_label"`
	ModelCategory   string    `db:"model_category" json:"model_category"`
	ModelConfidence float64   `db:"model_confidence" json:"model_confidence"`
	ModelVersion    string    `db:"model_version" json:"model_version"`
	HumanLabel      string    `db:"human_label" json:"human_label"`
	HumanLabeledAt  time.Time `db:"human_labeled_at" json:"human_labeled_at"`
	ChatTelegramID  int64     `db:"chat_telegram_id" json:"chat_telegram_id"`
}

// DatasetStats summarizes the labeled corpus and how often the model
// agreed with the reviewers.
type DatasetStats struct {
	TotalLabeled  int64   `db:"total_labeled" json:"total_labeled"`
	ConfirmedScam int64   `db:"confirmed_scam" json:"confirmed_scam"`
	NotScam       int64   `db:"not_scam" json:"not_scam"`
	ModelAgreed   int64   `db:"model_agreed" json:"model_agreed"`
	AgreementRate float64 `json:"agreement_rate"`
}
