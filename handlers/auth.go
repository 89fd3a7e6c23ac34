package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qore-hq/qore-backend/config"
	"github.com/qore-hq/qore-backend/httperr"
	"github.com/qore-hq/qore-backend/metrics"
	authmw "github.com/qore-hq/qore-backend/middleware/auth"
	"github.com/qore-hq/qore-backend/models"
	"github.com/qore-hq/qore-backend/services/activitylog"
	"github.com/qore-hq/qore-backend/services/auth"
	"github.com/qore-hq/qore-backend/services/employee"
	"github.com/qore-hq/qore-backend/services/jwt"
	"github.com/qore-hq/qore-backend/services/logingate"
	"github.com/qore-hq/qore-backend/services/refreshtoken"
)

type AuthHandler struct {
	auth      *auth.Service
	jwt       *jwt.Service
	tokens    *refreshtoken.Service
	gate      *logingate.Service
	employees *employee.Service
	activity  *activitylog.Service
	metrics   *metrics.Metrics
	cfg       *config.Config
}

func NewAuthHandler(
	authSvc *auth.Service,
	jwtSvc *jwt.Service,
	tokens *refreshtoken.Service,
	gate *logingate.Service,
	employees *employee.Service,
	activity *activitylog.Service,
	m *metrics.Metrics,
	cfg *config.Config,
) *AuthHandler {
	return &AuthHandler{
		auth:      authSvc,
		jwt:       jwtSvc,
		tokens:    tokens,
		gate:      gate,
		employees: employees,
		activity:  activity,
		metrics:   m,
		cfg:       cfg,
	}
}

func (h *AuthHandler) trackSessions() {
	if count, err := h.tokens.CountActive(); err == nil {
		h.metrics.SetActiveSessions(float64(count))
	}
}

type loginRequest struct {
	EmployeeID string `json:"employeeId"`
	Password   string `json:"password"`
}

type tokenResponse struct {
	Success      bool             `json:"success"`
	Employee     *models.Employee `json:"employee,omitempty"`
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
	ExpiresIn    int              `json:"expiresIn"`
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return httperr.MissingCredentials()
	}
	if req.EmployeeID == "" || req.Password == "" {
		return httperr.MissingCredentials()
	}

	ctx := c.Request().Context()
	ip := c.RealIP()
	userAgent := c.Request().UserAgent()

	if err := h.gate.Check(ctx, req.EmployeeID, ip); err != nil {
		var lockErr *logingate.LockoutError
		if errors.As(err, &lockErr) {
			h.metrics.RecordLogin("locked")
			return httperr.AccountLocked(lockErr.RemainingMinutes(), lockErr.UnlockTime.UTC().Format("2006-01-02T15:04:05.000Z"))
		}
		return httperr.Internal(err)
	}

	account, err := h.auth.Authenticate(req.EmployeeID, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			count, _ := h.gate.RecordFailure(ctx, req.EmployeeID, ip)
			if count == h.cfg.LoginGate.MaxAttempts {
				h.metrics.RecordLockout()
			}
			h.activity.Record(activitylog.Entry{
				Action:     models.ActionLoginFailed,
				EntityType: "Employee",
				New:        map[string]any{"employeeId": req.EmployeeID, "attempts": count},
				IPAddress:  ip,
				UserAgent:  userAgent,
			})
			h.metrics.RecordLogin("invalid_credentials")
			return httperr.InvalidCredentials()
		case errors.Is(err, auth.ErrAccountInactive):
			h.metrics.RecordLogin("inactive")
			return httperr.AccountInactive()
		default:
			return httperr.Internal(err)
		}
	}

	h.gate.RecordSuccess(ctx, req.EmployeeID, ip)

	accessToken, err := h.jwt.GenerateToken(account.ID, account.EmployeeID)
	if err != nil {
		return httperr.Internal(err)
	}
	refresh, err := h.tokens.Generate(account.ID)
	if err != nil {
		return httperr.Internal(err)
	}

	h.activity.Record(activitylog.Entry{
		EmployeeID: &account.ID,
		Action:     models.ActionLogin,
		EntityType: "Employee",
		EntityID:   &account.ID,
		IPAddress:  ip,
		UserAgent:  userAgent,
	})
	h.metrics.RecordLogin("success")
	h.trackSessions()

	return c.JSON(http.StatusOK, tokenResponse{
		Success:      true,
		Employee:     account,
		AccessToken:  accessToken,
		RefreshToken: refresh.Token,
		ExpiresIn:    h.jwt.AccessExpirySeconds(),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return httperr.InvalidRefreshToken()
	}

	rotation, err := h.tokens.Rotate(req.RefreshToken)
	if err != nil {
		if errors.Is(err, refreshtoken.ErrRefreshTokenNotFound) {
			h.metrics.RecordTokenRefresh("rejected")
			return httperr.InvalidRefreshToken()
		}
		return httperr.Internal(err)
	}

	// Read the owner straight from the database: the cached copy can lag a
	// deactivation by the cache TTL.
	account, err := h.employees.GetByIDFresh(rotation.EmployeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			h.metrics.RecordTokenRefresh("rejected")
			return httperr.InvalidRefreshToken()
		}
		return httperr.Internal(err)
	}
	if !account.IsActive {
		// Rotation already issued a replacement; kill it so no live session
		// row survives for a deactivated account.
		_ = h.tokens.Revoke(rotation.RefreshToken)
		h.metrics.RecordTokenRefresh("inactive")
		return httperr.AccountInactive()
	}

	accessToken, err := h.jwt.GenerateToken(account.ID, account.EmployeeID)
	if err != nil {
		return httperr.Internal(err)
	}

	h.activity.Record(activitylog.Entry{
		EmployeeID: &account.ID,
		Action:     models.ActionTokenRefresh,
		EntityType: "Employee",
		EntityID:   &account.ID,
		IPAddress:  c.RealIP(),
		UserAgent:  c.Request().UserAgent(),
	})
	h.metrics.RecordTokenRefresh("success")

	return c.JSON(http.StatusOK, tokenResponse{
		Success:      true,
		AccessToken:  accessToken,
		RefreshToken: rotation.RefreshToken,
		ExpiresIn:    h.jwt.AccessExpirySeconds(),
	})
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
	LogoutAll    bool   `json:"logoutAll"`
}

func (h *AuthHandler) Logout(c echo.Context) error {
	account := authmw.GetEmployee(c)

	var req logoutRequest
	_ = c.Bind(&req)

	action := models.ActionLogout
	if req.LogoutAll {
		action = models.ActionLogoutAll
		if err := h.tokens.RevokeAllForEmployee(account.ID); err != nil {
			return httperr.Internal(err)
		}
	} else if req.RefreshToken != "" {
		// Revoking an already-dead token is a no-op, not an error.
		if err := h.tokens.Revoke(req.RefreshToken); err != nil &&
			!errors.Is(err, refreshtoken.ErrRefreshTokenNotFound) {
			return httperr.Internal(err)
		}
	}

	h.activity.Record(activitylog.Entry{
		EmployeeID: &account.ID,
		Action:     action,
		EntityType: "Employee",
		EntityID:   &account.ID,
		IPAddress:  c.RealIP(),
		UserAgent:  c.Request().UserAgent(),
	})
	h.trackSessions()

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out successfully",
	})
}

func (h *AuthHandler) Me(c echo.Context) error {
	account := authmw.GetEmployee(c)

	// Reload through the employee service so manager and subordinates come
	// along.
	full, err := h.employees.GetByID(c.Request().Context(), account.ID)
	if err != nil {
		return httperr.Internal(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"employee": full,
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	account := authmw.GetEmployee(c)

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return httperr.Validation("Current and new password are required", nil)
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return httperr.Validation("Current and new password are required", nil)
	}

	err := h.employees.ChangePassword(c.Request().Context(), account.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return httperr.InvalidCredentials()
		}
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return httperr.NotAuthenticated()
		}
		if errors.Is(err, auth.ErrWeakPassword) {
			return httperr.Validation(err.Error(), nil)
		}
		return httperr.Internal(err)
	}

	h.activity.Record(activitylog.Entry{
		EmployeeID: &account.ID,
		Action:     models.ActionPasswordChange,
		EntityType: "Employee",
		EntityID:   &account.ID,
		IPAddress:  c.RealIP(),
		UserAgent:  c.Request().UserAgent(),
	})
	h.trackSessions()

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Password changed, please log in again",
	})
}
