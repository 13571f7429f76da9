package attorney

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	attorneyrepo "github.com/counselboard/roster/internal/repositories/attorney"
	projectrepo "github.com/counselboard/roster/internal/repositories/project"
	"github.com/counselboard/roster/pkg/events"
	"github.com/counselboard/roster/pkg/ingest"
	"github.com/counselboard/roster/pkg/models"
)

var validate = validator.New()

// Register registers attorney routes under a project group
func Register(g *echo.Group) {
	g.GET("", ListAttorneys)
	g.GET("/missing-headshots", ListMissingHeadshots)
	g.PUT("/:id", UpdateAttorney)
	g.POST("/import", ImportRoster)
}

// ImportResponse summarizes a roster import
type ImportResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ListAttorneys lists the project's full roster
func ListAttorneys(c echo.Context) error {
	ctx := c.Request().Context()
	projectTitle := c.Param("title")

	ctx, projects, err := ectoinject.GetContext[*projectrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	proj, err := projects.GetByTitle(ctx, projectTitle)
	if err != nil {
		return err
	}

	ctx, repo, err := ectoinject.GetContext[*attorneyrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	attorneys, err := repo.ListByProject(ctx, proj.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, attorneys)
}

// ListMissingHeadshots lists the project's attorneys without a headshot
func ListMissingHeadshots(c echo.Context) error {
	ctx := c.Request().Context()
	projectTitle := c.Param("title")

	ctx, projects, err := ectoinject.GetContext[*projectrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	proj, err := projects.GetByTitle(ctx, projectTitle)
	if err != nil {
		return err
	}

	ctx, repo, err := ectoinject.GetContext[*attorneyrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	attorneys, err := repo.ListMissingHeadshots(ctx, proj.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, attorneys)
}

// UpdateAttorney replaces the mutable fields of an attorney record
func UpdateAttorney(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	var req models.AttorneyUpdate
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*attorneyrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	updated, err := repo.Update(ctx, id, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, updated)
}

// ImportRoster imports a CSV roster file into the project, creating the
// project on first import. Re-importing the same file updates existing rows
// rather than duplicating them.
func ImportRoster(c echo.Context) error {
	ctx := c.Request().Context()
	projectTitle := c.Param("title")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "file is required")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "failed to read uploaded file")
	}
	defer src.Close()

	records, err := ingest.ParseRoster(src)
	if err == ingest.ErrMissingHeader || err == ingest.ErrMissingNameColumn {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "failed to parse roster file")
	}

	attorneys := make([]*models.Attorney, 0, len(records))
	skipped := 0
	for _, record := range records {
		att := &models.Attorney{
			Name:  record.Name,
			Title: record.Title,
			Firm:  record.Firm,
			City:  record.City,
			Email: record.Email,
		}
		if err := validate.Struct(att); err != nil {
			skipped++
			continue
		}
		attorneys = append(attorneys, att)
	}

	if len(attorneys) == 0 {
		return httperror.NewHTTPError(http.StatusBadRequest, "roster file contains no importable rows")
	}

	ctx, projects, err := ectoinject.GetContext[*projectrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	proj, err := projects.GetOrCreateByTitle(ctx, projectTitle)
	if err != nil {
		return err
	}

	ctx, repo, err := ectoinject.GetContext[*attorneyrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := repo.ImportBatch(ctx, proj.ID, attorneys); err != nil {
		return err
	}

	if err := projects.Touch(ctx, proj.ID); err != nil {
		return err
	}

	ctx, emitter, err := ectoinject.GetContext[*events.Emitter](ctx)
	if err == nil {
		if emitErr := emitter.EmitRosterImported(ctx, proj.ID, events.RosterImportedEvent{
			ProjectTitle: proj.Title,
			Imported:     len(attorneys),
			Skipped:      skipped,
		}); emitErr != nil {
			ctx, logger, logErr := ectoinject.GetContext[ectologger.Logger](ctx)
			if logErr == nil {
				logger.WithContext(ctx).WithError(emitErr).Warn("Failed to emit roster.imported event")
			}
		}
	}

	return c.JSON(http.StatusOK, ImportResponse{
		Imported: len(attorneys),
		Skipped:  skipped,
	})
}
