package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/qore-hq/qore-backend/httperr"
	"github.com/qore-hq/qore-backend/services/activitylog"
)

type ActivityHandler struct {
	activity *activitylog.Service
}

func NewActivityHandler(activity *activitylog.Service) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

func (h *ActivityHandler) List(c echo.Context) error {
	params := activitylog.ListParams{
		Action: c.QueryParam("action"),
	}
	params.Page, _ = strconv.Atoi(c.QueryParam("page"))
	params.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	if raw := c.QueryParam("employeeId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return httperr.Validation("Invalid employee ID", nil)
		}
		employeeID := uint(id)
		params.EmployeeID = &employeeID
	}

	result, err := h.activity.List(params)
	if err != nil {
		return httperr.Internal(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"activity": result,
	})
}
