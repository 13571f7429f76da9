package headshot

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/counselboard/roster/pkg/headshots"
	"github.com/counselboard/roster/pkg/matching"
)

// Register registers headshot routes under a project group
func Register(g *echo.Group) {
	g.POST("/analyze", AnalyzeBatch)
	g.GET("/pending", ListPending)
	g.PUT("/pending/:attorneyID/selection", OverrideSelection)
	g.POST("/batch", SubmitBatch)
	g.POST("", UploadSingle)
	g.GET("/history", ListHistory)
}

// OverrideRequest selects one of a row's scored options by index. A missing
// or negative index clears the pairing.
type OverrideRequest struct {
	OptionIndex *int `json:"option_index"`
}

// AnalyzeBatch matches a dropped set of image files against the project's
// attorneys that still need headshots
func AnalyzeBatch(c echo.Context) error {
	ctx := c.Request().Context()
	projectTitle := c.Param("title")

	form, err := c.MultipartForm()
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "multipart form with files is required")
	}

	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		return httperror.NewHTTPError(http.StatusBadRequest, "at least one file is required")
	}

	files, err := readFiles(fileHeaders)
	if err != nil {
		return err
	}

	ctx, service, err := ectoinject.GetContext[*headshots.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	rows, err := service.Analyze(ctx, projectTitle, files)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"rows": rows})
}

// ListPending returns the project's current pending queue
func ListPending(c echo.Context) error {
	ctx := c.Request().Context()
	projectTitle := c.Param("title")

	ctx, service, err := ectoinject.GetContext[*headshots.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	rows, err := service.Rows(ctx, projectTitle)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"rows": rows})
}

// OverrideSelection replaces one pending row's pairing with the operator's
// choice
func OverrideSelection(c echo.Context) error {
	ctx := c.Request().Context()
	projectTitle := c.Param("title")
	attorneyID := c.Param("attorneyID")

	var req OverrideRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	optionIndex := -1
	if req.OptionIndex != nil {
		optionIndex = *req.OptionIndex
	}

	ctx, service, err := ectoinject.GetContext[*headshots.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	row, err := service.Override(ctx, projectTitle, attorneyID, optionIndex)
	if err == headshots.ErrRowNotFound {
		return httperror.NewHTTPError(http.StatusNotFound, "no pending row for attorney")
	}
	if err == headshots.ErrBatchInFlight {
		return httperror.NewHTTPError(http.StatusConflict, "a batch upload is already in progress")
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, row)
}

// SubmitBatch uploads all ready rows as a single batch and returns the
// reconciled queue
func SubmitBatch(c echo.Context) error {
	ctx := c.Request().Context()
	projectTitle := c.Param("title")

	ctx, service, err := ectoinject.GetContext[*headshots.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	rows, err := service.SubmitBatch(ctx, projectTitle)
	if err == headshots.ErrBatchInFlight {
		return httperror.NewHTTPError(http.StatusConflict, "a batch upload is already in progress")
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"rows": rows})
}

// UploadSingle uploads one file for one attorney outside batch mode
func UploadSingle(c echo.Context) error {
	ctx := c.Request().Context()
	projectTitle := c.Param("title")

	attorneyID := c.FormValue("attorney_id")
	if attorneyID == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "attorney_id is required")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "file is required")
	}

	files, err := readFiles([]*multipart.FileHeader{fileHeader})
	if err != nil {
		return err
	}

	ctx, service, err := ectoinject.GetContext[*headshots.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := service.UploadSingle(ctx, projectTitle, attorneyID, files[0].Name, files[0].Content); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "uploaded"})
}

// ListHistory returns recent upload outcomes for a project
func ListHistory(c echo.Context) error {
	ctx := c.Request().Context()
	projectTitle := c.Param("title")

	limit := 100
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
		}
		limit = parsed
	}

	ctx, service, err := ectoinject.GetContext[*headshots.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	uploads, err := service.History(ctx, projectTitle, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, uploads)
}

func readFiles(headers []*multipart.FileHeader) ([]matching.File, error) {
	files := make([]matching.File, 0, len(headers))
	for _, header := range headers {
		src, err := header.Open()
		if err != nil {
			return nil, httperror.NewHTTPError(http.StatusBadRequest, "failed to read uploaded file "+header.Filename)
		}

		content, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return nil, httperror.NewHTTPError(http.StatusBadRequest, "failed to read uploaded file "+header.Filename)
		}

		files = append(files, matching.File{Name: header.Filename, Content: content})
	}
	return files, nil
}
