package project

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	projectrepo "github.com/counselboard/roster/internal/repositories/project"
)

// Register registers project routes
func Register(g *echo.Group) {
	g.GET("", ListProjects)
	g.GET("/:title", GetProject)
}

// ListProjects lists all shortlist projects
func ListProjects(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, repo, err := ectoinject.GetContext[*projectrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	projects, err := repo.List(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, projects)
}

// GetProject gets a project by title
func GetProject(c echo.Context) error {
	ctx := c.Request().Context()
	title := c.Param("title")

	ctx, repo, err := ectoinject.GetContext[*projectrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	proj, err := repo.GetByTitle(ctx, title)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, proj)
}
