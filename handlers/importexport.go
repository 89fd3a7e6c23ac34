package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/qore-hq/qore-backend/httperr"
	authmw "github.com/qore-hq/qore-backend/middleware/auth"
	"github.com/qore-hq/qore-backend/models"
	"github.com/qore-hq/qore-backend/services/activitylog"
	"github.com/qore-hq/qore-backend/services/importexport"
)

type ImportExportHandler struct {
	importExport *importexport.Service
	activity     *activitylog.Service
}

func NewImportExportHandler(svc *importexport.Service, activity *activitylog.Service) *ImportExportHandler {
	return &ImportExportHandler{importExport: svc, activity: activity}
}

func (h *ImportExportHandler) Import(c echo.Context) error {
	header, err := c.FormFile("file")
	if err != nil {
		return httperr.Validation("CSV file is required", nil)
	}

	src, err := header.Open()
	if err != nil {
		return httperr.Internal(err)
	}
	defer src.Close()

	var actorID *uint
	if actor := authmw.GetEmployee(c); actor != nil {
		actorID = &actor.ID
	}

	result, err := h.importExport.Import(src, actorID)
	if err != nil {
		if errors.Is(err, importexport.ErrEmptyImport) {
			return httperr.Validation("Import file contains no rows", nil)
		}
		return httperr.Validation("Failed to parse CSV file", nil)
	}

	h.activity.Record(activitylog.Entry{
		EmployeeID: actorID,
		Action:     models.ActionEmployeesImport,
		EntityType: "Employee",
		New: map[string]any{
			"imported": result.Imported,
			"skipped":  result.Skipped,
			"fileName": header.Filename,
		},
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	})

	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"imported": result.Imported,
		"skipped":  result.Skipped,
		"errors":   result.Errors,
	})
}

func (h *ImportExportHandler) ExportCSV(c echo.Context) error {
	var filter importexport.ExportFilter
	if err := c.Bind(&filter); err != nil {
		return httperr.Validation("Invalid query parameters", nil)
	}

	fileName := "employees-" + time.Now().Format("2006-01-02") + ".csv"
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+fileName+`"`)
	c.Response().WriteHeader(http.StatusOK)

	count, err := h.importExport.Export(c.Response(), filter)
	if err != nil {
		return err
	}

	var actorID *uint
	if actor := authmw.GetEmployee(c); actor != nil {
		actorID = &actor.ID
	}
	h.activity.Record(activitylog.Entry{
		EmployeeID: actorID,
		Action:     models.ActionEmployeesExport,
		EntityType: "Employee",
		New: map[string]any{
			"count":    count,
			"fileName": fileName,
		},
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	})

	return nil
}

func (h *ImportExportHandler) History(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	entries, total, err := h.importExport.History(page, limit)
	if err != nil {
		return httperr.Internal(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"history": entries,
		"total":   total,
	})
}
