package project

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

var projectColumns = []string{"id", "title", "created_at", "updated_at"}

// Repository handles project persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new project repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// List retrieves all projects ordered by most recently updated
func (r *Repository) List(ctx context.Context) ([]models.Project, error) {
	ctx, span := tracing.StartSpan(ctx, "project.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(projectColumns...)
	sb.From("projects")
	sb.OrderBy("updated_at DESC")

	query, args := sb.Build()
	projects := []models.Project{}
	if err := r.db.SelectContext(ctx, &projects, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list projects")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list projects")
	}

	return projects, nil
}

// GetByTitle retrieves a project by its title
func (r *Repository) GetByTitle(ctx context.Context, title string) (*models.Project, error) {
	ctx, span := tracing.StartSpan(ctx, "project.Repository.GetByTitle")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(projectColumns...)
	sb.From("projects")
	sb.Where(sb.Equal("title", title))

	query, args := sb.Build()
	var proj models.Project
	if err := r.db.GetContext(ctx, &proj, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("project %s not found", title))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get project")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get project")
	}

	return &proj, nil
}

// GetOrCreateByTitle retrieves a project by title, creating it on first use
func (r *Repository) GetOrCreateByTitle(ctx context.Context, title string) (*models.Project, error) {
	ctx, span := tracing.StartSpan(ctx, "project.Repository.GetOrCreateByTitle")
	defer span.End()

	proj, err := r.GetByTitle(ctx, title)
	if err == nil {
		return proj, nil
	}
	if !httperror.IsHTTPError(err) || httperror.GetStatusCode(err) != http.StatusNotFound {
		return nil, err
	}

	now := time.Now().UTC()
	created := &models.Project{
		ID:        uuid.New().String(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("projects")
	sb.Cols(projectColumns...)
	sb.Values(created.ID, created.Title, created.CreatedAt, created.UpdatedAt)

	query, args := sb.Build()
	query += " ON CONFLICT (title) DO UPDATE SET updated_at = EXCLUDED.updated_at"

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"title": title}).Error("Failed to create project")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create project")
	}

	// A concurrent create may have won the conflict, so read back the row
	return r.GetByTitle(ctx, title)
}

// Touch bumps a project's updated_at timestamp
func (r *Repository) Touch(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "project.Repository.Touch")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("projects")
	ub.Set(ub.Assign("updated_at", time.Now().UTC()))
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"project_id": id}).Error("Failed to touch project")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update project")
	}

	return nil
}
