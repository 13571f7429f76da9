package models

import "time"

// Headshot upload outcomes as reported by the image backend, one per
// submitted file, order-correlated with the batch.
const (
	HeadshotOutcomeUploaded = "uploaded"
	HeadshotOutcomeSkipped  = "skipped_existing"
	HeadshotOutcomeError    = "error"
)

// HeadshotUpload is the audit record for one reconciled batch item
type HeadshotUpload struct {
	ID         string    `json:"id" db:"id"`
	ProjectID  string    `json:"project_id" db:"project_id"`
	AttorneyID string    `json:"attorney_id" db:"attorney_id"`
	FileName   string    `json:"file_name" db:"file_name"`
	Outcome    string    `json:"outcome" db:"outcome"`
	Message    string    `json:"message,omitempty" db:"message"`
	MatchScore float64   `json:"match_score" db:"match_score"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
