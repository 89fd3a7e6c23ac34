package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/qore-hq/qore-backend/httperr"
	authmw "github.com/qore-hq/qore-backend/middleware/auth"
	"github.com/qore-hq/qore-backend/models"
	"github.com/qore-hq/qore-backend/services/activitylog"
	"github.com/qore-hq/qore-backend/services/auth"
	"github.com/qore-hq/qore-backend/services/employee"
)

type EmployeeHandler struct {
	employees *employee.Service
	activity  *activitylog.Service
}

func NewEmployeeHandler(employees *employee.Service, activity *activitylog.Service) *EmployeeHandler {
	return &EmployeeHandler{employees: employees, activity: activity}
}

func pathID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, httperr.Validation("Invalid employee ID", nil)
	}
	return uint(id), nil
}

func (h *EmployeeHandler) record(c echo.Context, action string, entityID uint, old, new any) {
	var actorID *uint
	if actor := authmw.GetEmployee(c); actor != nil {
		actorID = &actor.ID
	}
	h.activity.Record(activitylog.Entry{
		EmployeeID: actorID,
		Action:     action,
		EntityType: "Employee",
		EntityID:   &entityID,
		Old:        old,
		New:        new,
		IPAddress:  c.RealIP(),
		UserAgent:  c.Request().UserAgent(),
	})
}

func (h *EmployeeHandler) List(c echo.Context) error {
	var params employee.ListParams
	if err := c.Bind(&params); err != nil {
		return httperr.Validation("Invalid query parameters", nil)
	}

	result, err := h.employees.List(c.Request().Context(), params)
	if err != nil {
		return httperr.Internal(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":    true,
		"employees":  result.Employees,
		"pagination": result.Pagination,
	})
}

func (h *EmployeeHandler) Statistics(c echo.Context) error {
	stats, err := h.employees.Statistics(c.Request().Context())
	if err != nil {
		return httperr.Internal(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":    true,
		"statistics": stats,
	})
}

func (h *EmployeeHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	result, err := h.employees.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return httperr.NotFound("Employee")
		}
		return httperr.Internal(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"employee": result,
	})
}

func (h *EmployeeHandler) Create(c echo.Context) error {
	var input employee.CreateInput
	if err := c.Bind(&input); err != nil {
		return httperr.Validation("Invalid employee payload", nil)
	}
	if input.EmployeeID == "" || input.FirstName == "" || input.Email == "" || input.Password == "" {
		return httperr.Validation("employeeId, firstName, email and password are required", nil)
	}
	if actor := authmw.GetEmployee(c); actor != nil {
		input.CreatedBy = &actor.ID
	}

	created, err := h.employees.Create(c.Request().Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, employee.ErrDuplicateEmployee):
			return httperr.Conflict("DUPLICATE_EMPLOYEE", "Employee ID or email already in use")
		case errors.Is(err, auth.ErrWeakPassword):
			return httperr.Validation(err.Error(), nil)
		default:
			return httperr.Internal(err)
		}
	}

	h.record(c, models.ActionEmployeeCreate, created.ID, nil, map[string]any{
		"employeeId": created.EmployeeID,
		"email":      created.Email,
	})

	return c.JSON(http.StatusCreated, map[string]any{
		"success":  true,
		"employee": created,
	})
}

func (h *EmployeeHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	before, err := h.employees.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return httperr.NotFound("Employee")
		}
		return httperr.Internal(err)
	}

	var input employee.UpdateInput
	if err := c.Bind(&input); err != nil {
		return httperr.Validation("Invalid employee payload", nil)
	}

	updated, err := h.employees.Update(c.Request().Context(), id, input)
	if err != nil {
		switch {
		case errors.Is(err, employee.ErrEmployeeNotFound):
			return httperr.NotFound("Employee")
		case errors.Is(err, employee.ErrDuplicateEmployee):
			return httperr.Conflict("DUPLICATE_EMPLOYEE", "Employee ID or email already in use")
		case errors.Is(err, auth.ErrWeakPassword):
			return httperr.Validation(err.Error(), nil)
		default:
			return httperr.Internal(err)
		}
	}

	h.record(c, models.ActionEmployeeUpdate, id,
		map[string]any{"email": before.Email, "position": before.Position, "isActive": before.IsActive},
		map[string]any{"email": updated.Email, "position": updated.Position, "isActive": updated.IsActive})

	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"employee": updated,
	})
}

func (h *EmployeeHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.employees.SoftDelete(c.Request().Context(), id); err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return httperr.NotFound("Employee")
		}
		return httperr.Internal(err)
	}

	h.record(c, models.ActionEmployeeDelete, id, nil, nil)

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Employee deleted",
	})
}

func (h *EmployeeHandler) Restore(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	restored, err := h.employees.Restore(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return httperr.NotFound("Employee")
		}
		return httperr.Internal(err)
	}

	h.record(c, models.ActionEmployeeRestore, id, nil, nil)

	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"employee": restored,
	})
}

func (h *EmployeeHandler) Subordinates(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	subordinates, err := h.employees.Subordinates(c.Request().Context(), id)
	if err != nil {
		return httperr.Internal(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":      true,
		"subordinates": subordinates,
	})
}

func (h *EmployeeHandler) Manager(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	manager, err := h.employees.Manager(c.Request().Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, employee.ErrEmployeeNotFound):
			return httperr.NotFound("Employee")
		case errors.Is(err, employee.ErrNoManager):
			return httperr.NotFound("Manager")
		default:
			return httperr.Internal(err)
		}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"manager": manager,
	})
}
