package attorney

import (
	"context"
	"fmt"
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

var attorneyColumns = []string{"id", "project_id", "name", "title", "firm", "city", "email", "has_headshot", "created_at", "updated_at"}

// Repository handles attorney persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new attorney repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Get retrieves an attorney by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Attorney, error) {
	ctx, span := tracing.StartSpan(ctx, "attorney.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(attorneyColumns...)
	sb.From("attorneys")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var att models.Attorney
	if err := r.db.GetContext(ctx, &att, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("attorney %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get attorney")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get attorney")
	}

	return &att, nil
}

// ListByProject retrieves the full roster for a project ordered by name
func (r *Repository) ListByProject(ctx context.Context, projectID string) ([]models.Attorney, error) {
	ctx, span := tracing.StartSpan(ctx, "attorney.Repository.ListByProject")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(attorneyColumns...)
	sb.From("attorneys")
	sb.Where(sb.Equal("project_id", projectID))
	sb.OrderBy("name ASC")

	query, args := sb.Build()
	attorneys := []models.Attorney{}
	if err := r.db.SelectContext(ctx, &attorneys, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list attorneys")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list attorneys")
	}

	return attorneys, nil
}

// ListMissingHeadshots retrieves the project's attorneys that have no
// headshot yet
func (r *Repository) ListMissingHeadshots(ctx context.Context, projectID string) ([]models.Attorney, error) {
	ctx, span := tracing.StartSpan(ctx, "attorney.Repository.ListMissingHeadshots")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(attorneyColumns...)
	sb.From("attorneys")
	sb.Where(
		sb.Equal("project_id", projectID),
		sb.Equal("has_headshot", false),
	)
	sb.OrderBy("name ASC")

	query, args := sb.Build()
	attorneys := []models.Attorney{}
	if err := r.db.SelectContext(ctx, &attorneys, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list attorneys missing headshots")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list attorneys")
	}

	return attorneys, nil
}

// Update replaces the mutable fields of an attorney
func (r *Repository) Update(ctx context.Context, id string, update *models.AttorneyUpdate) (*models.Attorney, error) {
	ctx, span := tracing.StartSpan(ctx, "attorney.Repository.Update")
	defer span.End()

	now := time.Now().UTC()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("attorneys")
	ub.Set(
		ub.Assign("name", update.Name),
		ub.Assign("title", update.Title),
		ub.Assign("firm", update.Firm),
		ub.Assign("city", update.City),
		ub.Assign("email", update.Email),
		ub.Assign("updated_at", now),
	)
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"attorney_id": id}).Error("Failed to update attorney")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update attorney")
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("attorney %s not found", id))
	}

	return r.Get(ctx, id)
}

// SetHasHeadshot flips the headshot flag for an attorney
func (r *Repository) SetHasHeadshot(ctx context.Context, id string, hasHeadshot bool) error {
	ctx, span := tracing.StartSpan(ctx, "attorney.Repository.SetHasHeadshot")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("attorneys")
	ub.Set(
		ub.Assign("has_headshot", hasHeadshot),
		ub.Assign("updated_at", time.Now().UTC()),
	)
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"attorney_id": id}).Error("Failed to set headshot flag")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update attorney")
	}

	return nil
}

// ImportBatch inserts attorneys into a project roster in one transaction,
// batched to keep statement sizes bounded. Rows whose name already exists in
// the project are updated in place so a re-imported roster file does not
// create duplicates.
func (r *Repository) ImportBatch(ctx context.Context, projectID string, attorneys []*models.Attorney) error {
	ctx, span := tracing.StartSpan(ctx, "attorney.Repository.ImportBatch")
	defer span.End()

	if len(attorneys) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for _, att := range attorneys {
		if att.ID == "" {
			att.ID = uuid.New().String()
		}
		att.ProjectID = projectID
		att.CreatedAt = now
		att.UpdatedAt = now
	}

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	const batchSize = 500
	for i := 0; i < len(attorneys); i += batchSize {
		end := i + batchSize
		if end > len(attorneys) {
			end = len(attorneys)
		}

		sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
		sb.InsertInto("attorneys")
		sb.Cols(attorneyColumns...)
		for _, att := range attorneys[i:end] {
			sb.Values(att.ID, att.ProjectID, att.Name, att.Title, att.Firm, att.City, att.Email, att.HasHeadshot, att.CreatedAt, att.UpdatedAt)
		}

		query, args := sb.Build()
		query += " ON CONFLICT (project_id, name) DO UPDATE SET title = EXCLUDED.title, firm = EXCLUDED.firm, city = EXCLUDED.city, email = EXCLUDED.email, updated_at = EXCLUDED.updated_at"

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error("Failed to import attorneys batch")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to import attorneys")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to commit attorney import")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to import attorneys")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"count": len(attorneys)}).Debug("Imported attorneys batch")
	return nil
}
