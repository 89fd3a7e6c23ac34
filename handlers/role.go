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
	"github.com/qore-hq/qore-backend/services/role"
)

type RoleHandler struct {
	roles    *role.Service
	activity *activitylog.Service
}

func NewRoleHandler(roles *role.Service, activity *activitylog.Service) *RoleHandler {
	return &RoleHandler{roles: roles, activity: activity}
}

func (h *RoleHandler) record(c echo.Context, action string, roleID uint, new any) {
	var actorID *uint
	if actor := authmw.GetEmployee(c); actor != nil {
		actorID = &actor.ID
	}
	h.activity.Record(activitylog.Entry{
		EmployeeID: actorID,
		Action:     action,
		EntityType: "Role",
		EntityID:   &roleID,
		New:        new,
		IPAddress:  c.RealIP(),
		UserAgent:  c.Request().UserAgent(),
	})
}

func rolePathID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, httperr.Validation("Invalid role ID", nil)
	}
	return uint(id), nil
}

func (h *RoleHandler) List(c echo.Context) error {
	roles, err := h.roles.List()
	if err != nil {
		return httperr.Internal(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "roles": roles})
}

func (h *RoleHandler) ListActive(c echo.Context) error {
	roles, err := h.roles.ListActive()
	if err != nil {
		return httperr.Internal(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "roles": roles})
}

func (h *RoleHandler) Get(c echo.Context) error {
	id, err := rolePathID(c)
	if err != nil {
		return err
	}

	r, err := h.roles.GetByID(id)
	if err != nil {
		if errors.Is(err, role.ErrRoleNotFound) {
			return httperr.NotFound("Role")
		}
		return httperr.Internal(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "role": r})
}

func (h *RoleHandler) Create(c echo.Context) error {
	var input role.CreateInput
	if err := c.Bind(&input); err != nil || input.Name == "" {
		return httperr.Validation("Role name is required", nil)
	}

	created, err := h.roles.Create(input)
	if err != nil {
		if errors.Is(err, role.ErrDuplicateSlug) {
			return httperr.Conflict("DUPLICATE_ROLE", "Role slug already in use")
		}
		return httperr.Internal(err)
	}

	h.record(c, models.ActionRoleCreate, created.ID, map[string]any{"slug": created.Slug})

	return c.JSON(http.StatusCreated, map[string]any{"success": true, "role": created})
}

func (h *RoleHandler) Update(c echo.Context) error {
	id, err := rolePathID(c)
	if err != nil {
		return err
	}

	var input role.UpdateInput
	if err := c.Bind(&input); err != nil {
		return httperr.Validation("Invalid role payload", nil)
	}

	updated, err := h.roles.Update(id, input)
	if err != nil {
		if errors.Is(err, role.ErrRoleNotFound) {
			return httperr.NotFound("Role")
		}
		return httperr.Internal(err)
	}

	h.record(c, models.ActionRoleUpdate, id, map[string]any{"slug": updated.Slug})

	return c.JSON(http.StatusOK, map[string]any{"success": true, "role": updated})
}

func (h *RoleHandler) Delete(c echo.Context) error {
	id, err := rolePathID(c)
	if err != nil {
		return err
	}

	if err := h.roles.Delete(id); err != nil {
		switch {
		case errors.Is(err, role.ErrRoleNotFound):
			return httperr.NotFound("Role")
		case errors.Is(err, role.ErrRoleInUse):
			return httperr.Conflict("ROLE_IN_USE", "Role is assigned to employees")
		default:
			return httperr.Internal(err)
		}
	}

	h.record(c, models.ActionRoleDelete, id, nil)

	return c.JSON(http.StatusOK, map[string]any{"success": true, "message": "Role deleted"})
}
