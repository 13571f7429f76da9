package upload

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/counselboard/roster/pkg/database"
	"github.com/counselboard/roster/pkg/models"
	"github.com/counselboard/roster/pkg/tracing"
)

var uploadColumns = []string{"id", "project_id", "attorney_id", "file_name", "outcome", "message", "match_score", "created_at"}

// Repository handles headshot upload audit persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new upload audit repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// RecordBatch persists the audit rows for one reconciled batch
func (r *Repository) RecordBatch(ctx context.Context, uploads []*models.HeadshotUpload) error {
	ctx, span := tracing.StartSpan(ctx, "upload.Repository.RecordBatch")
	defer span.End()

	if len(uploads) == 0 {
		return nil
	}

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("headshot_uploads")
	sb.Cols(uploadColumns...)

	for _, u := range uploads {
		if u.ID == "" {
			u.ID = uuid.New().String()
		}
		u.CreatedAt = now
		sb.Values(u.ID, u.ProjectID, u.AttorneyID, u.FileName, u.Outcome, u.Message, u.MatchScore, u.CreatedAt)
	}

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to record upload batch")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to record uploads")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"count": len(uploads)}).Debug("Recorded upload batch")
	return nil
}

// ListByProject retrieves upload history for a project, newest first
func (r *Repository) ListByProject(ctx context.Context, projectID string, limit int) ([]models.HeadshotUpload, error) {
	ctx, span := tracing.StartSpan(ctx, "upload.Repository.ListByProject")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 100
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(uploadColumns...)
	sb.From("headshot_uploads")
	sb.Where(sb.Equal("project_id", projectID))
	sb.OrderBy("created_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	uploads := []models.HeadshotUpload{}
	if err := r.db.SelectContext(ctx, &uploads, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list uploads")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list uploads")
	}

	return uploads, nil
}
