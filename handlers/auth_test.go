package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

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
	"github.com/qore-hq/qore-backend/testutils"
)

type authFixture struct {
	handler   *AuthHandler
	mw        *authmw.Middleware
	tokens    *refreshtoken.Service
	employees *employee.Service
	db        *gorm.DB
	echo      *echo.Echo
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db := testutils.SetupTestDB(t,
		&models.Employee{}, &models.Role{}, &models.EmployeeRole{},
		&models.ActivityLog{}, &refreshtoken.RefreshToken{})
	store, _ := testutils.SetupRedisStore(t)
	cfg := testutils.TestConfig()

	authSvc := auth.NewService(cfg, db, nil)
	jwtSvc := jwt.NewService(cfg, nil)
	tokens := refreshtoken.NewService(db, cfg, nil)
	gate := logingate.NewService(store, cfg, nil)
	activity := activitylog.NewService(db, nil)
	employees := employee.NewService(db, authSvc, tokens, store, cfg, nil)

	return &authFixture{
		handler:   NewAuthHandler(authSvc, jwtSvc, tokens, gate, employees, activity, metrics.New(), cfg),
		mw:        authmw.NewMiddleware(jwtSvc, tokens, db),
		tokens:    tokens,
		employees: employees,
		db:        db,
		echo:      echo.New(),
	}
}

func (f *authFixture) seedEmployee(t *testing.T, employeeID, password string, active bool) *models.Employee {
	t.Helper()
	created, err := f.employees.Create(context.Background(), employee.CreateInput{
		EmployeeID: employeeID,
		FirstName:  "Alan",
		LastName:   "Turing",
		Email:      employeeID + "@example.com",
		Password:   password,
	})
	require.NoError(t, err)
	if !active {
		require.NoError(t, f.db.Model(created).Update("is_active", false).Error)
	}
	return created
}

func (f *authFixture) post(path, body, bearer string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	c := f.echo.NewContext(req, rec)

	var handler echo.HandlerFunc
	switch path {
	case "/api/auth/login":
		handler = f.handler.Login
	case "/api/auth/refresh":
		handler = f.handler.Refresh
	case "/api/auth/logout":
		handler = f.mw.RequireAuth()(f.handler.Logout)
	case "/api/auth/change-password":
		handler = f.mw.RequireAuth()(f.handler.ChangePassword)
	}
	return rec, handler(c)
}

func (f *authFixture) login(t *testing.T, employeeID, password string) tokenResponse {
	t.Helper()
	rec, err := f.post("/api/auth/login", fmt.Sprintf(`{"employeeId":%q,"password":%q}`, employeeID, password), "")
	require.NoError(t, err)
	var resp tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func assertAppError(t *testing.T, err error, code string) *httperr.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *httperr.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func TestAuthHandlerLogin(t *testing.T) {
	t.Run("valid credentials return token pair", func(t *testing.T) {
		f := newAuthFixture(t)
		f.seedEmployee(t, "EMP001", "Sup3rSecret!", true)

		resp := f.login(t, "EMP001", "Sup3rSecret!")

		assert.True(t, resp.Success)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.Positive(t, resp.ExpiresIn)
		require.NotNil(t, resp.Employee)
		assert.Equal(t, "EMP001", resp.Employee.EmployeeID)
		assert.Empty(t, resp.Employee.Password)

		var count int64
		f.db.Model(&models.ActivityLog{}).Where("action = ?", models.ActionLogin).Count(&count)
		assert.EqualValues(t, 1, count)
	})

	t.Run("missing fields", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := f.post("/api/auth/login", `{"employeeId":"EMP001"}`, "")
		assertAppError(t, err, "MISSING_CREDENTIALS")
	})

	t.Run("wrong password and unknown id share one code", func(t *testing.T) {
		f := newAuthFixture(t)
		f.seedEmployee(t, "EMP001", "Sup3rSecret!", true)

		_, err := f.post("/api/auth/login", `{"employeeId":"EMP001","password":"nope"}`, "")
		assertAppError(t, err, "INVALID_CREDENTIALS")

		_, err = f.post("/api/auth/login", `{"employeeId":"GHOST","password":"nope"}`, "")
		assertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("inactive account", func(t *testing.T) {
		f := newAuthFixture(t)
		f.seedEmployee(t, "EMP001", "Sup3rSecret!", false)

		_, err := f.post("/api/auth/login", `{"employeeId":"EMP001","password":"Sup3rSecret!"}`, "")
		assertAppError(t, err, "ACCOUNT_INACTIVE")
	})

	t.Run("lockout after repeated failures", func(t *testing.T) {
		f := newAuthFixture(t)
		f.seedEmployee(t, "EMP001", "Sup3rSecret!", true)

		for i := 0; i < 5; i++ {
			_, err := f.post("/api/auth/login", `{"employeeId":"EMP001","password":"nope"}`, "")
			assertAppError(t, err, "INVALID_CREDENTIALS")
		}

		_, err := f.post("/api/auth/login", `{"employeeId":"EMP001","password":"Sup3rSecret!"}`, "")
		appErr := assertAppError(t, err, "ACCOUNT_LOCKED")
		details, ok := appErr.Details.(map[string]any)
		require.True(t, ok)
		assert.Contains(t, details, "remainingTime")
		assert.Contains(t, details, "unlockTime")
	})
}

func TestAuthHandlerRefresh(t *testing.T) {
	t.Run("rotation issues a new pair and kills the old token", func(t *testing.T) {
		f := newAuthFixture(t)
		f.seedEmployee(t, "EMP001", "Sup3rSecret!", true)
		first := f.login(t, "EMP001", "Sup3rSecret!")

		rec, err := f.post("/api/auth/refresh", fmt.Sprintf(`{"refreshToken":%q}`, first.RefreshToken), "")
		require.NoError(t, err)

		var resp tokenResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.NotEqual(t, first.RefreshToken, resp.RefreshToken)

		_, err = f.post("/api/auth/refresh", fmt.Sprintf(`{"refreshToken":%q}`, first.RefreshToken), "")
		assertAppError(t, err, "INVALID_REFRESH_TOKEN")
	})

	t.Run("garbage token", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := f.post("/api/auth/refresh", `{"refreshToken":"not-a-token"}`, "")
		assertAppError(t, err, "INVALID_REFRESH_TOKEN")
	})

	t.Run("deactivated account cannot refresh", func(t *testing.T) {
		f := newAuthFixture(t)
		seeded := f.seedEmployee(t, "EMP001", "Sup3rSecret!", true)
		resp := f.login(t, "EMP001", "Sup3rSecret!")

		require.NoError(t, f.db.Model(&models.Employee{}).Where("id = ?", seeded.ID).Update("is_active", false).Error)

		_, err := f.post("/api/auth/refresh", fmt.Sprintf(`{"refreshToken":%q}`, resp.RefreshToken), "")
		assertAppError(t, err, "ACCOUNT_INACTIVE")

		// The rejected rotation must not leave a live replacement session.
		active, err := f.tokens.HasActiveSession(seeded.ID)
		require.NoError(t, err)
		assert.False(t, active)
	})

	t.Run("deactivation beats a warm employee cache", func(t *testing.T) {
		f := newAuthFixture(t)
		seeded := f.seedEmployee(t, "EMP001", "Sup3rSecret!", true)
		resp := f.login(t, "EMP001", "Sup3rSecret!")

		// Warm the cached copy, then flip the row behind the cache's back.
		_, err := f.employees.GetByID(context.Background(), seeded.ID)
		require.NoError(t, err)
		require.NoError(t, f.db.Model(&models.Employee{}).Where("id = ?", seeded.ID).Update("is_active", false).Error)

		_, err = f.post("/api/auth/refresh", fmt.Sprintf(`{"refreshToken":%q}`, resp.RefreshToken), "")
		assertAppError(t, err, "ACCOUNT_INACTIVE")
	})
}

func TestAuthHandlerLogout(t *testing.T) {
	t.Run("logout all revokes every session", func(t *testing.T) {
		f := newAuthFixture(t)
		seeded := f.seedEmployee(t, "EMP001", "Sup3rSecret!", true)
		first := f.login(t, "EMP001", "Sup3rSecret!")
		f.login(t, "EMP001", "Sup3rSecret!")

		rec, err := f.post("/api/auth/logout", `{"logoutAll":true}`, first.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		active, err := f.tokens.HasActiveSession(seeded.ID)
		require.NoError(t, err)
		assert.False(t, active)
	})

	t.Run("single logout leaves other sessions alive", func(t *testing.T) {
		f := newAuthFixture(t)
		seeded := f.seedEmployee(t, "EMP001", "Sup3rSecret!", true)
		first := f.login(t, "EMP001", "Sup3rSecret!")
		second := f.login(t, "EMP001", "Sup3rSecret!")

		_, err := f.post("/api/auth/logout", fmt.Sprintf(`{"refreshToken":%q}`, second.RefreshToken), first.AccessToken)
		require.NoError(t, err)

		active, err := f.tokens.HasActiveSession(seeded.ID)
		require.NoError(t, err)
		assert.True(t, active)

		_, err = f.tokens.FindActive(second.RefreshToken)
		assert.ErrorIs(t, err, refreshtoken.ErrRefreshTokenNotFound)
	})
}

func TestAuthHandlerChangePassword(t *testing.T) {
	t.Run("wrong current password", func(t *testing.T) {
		f := newAuthFixture(t)
		f.seedEmployee(t, "EMP001", "Sup3rSecret!", true)
		resp := f.login(t, "EMP001", "Sup3rSecret!")

		_, err := f.post("/api/auth/change-password",
			`{"currentPassword":"nope","newPassword":"An0therSecret!"}`, resp.AccessToken)
		assertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("success revokes sessions and new password works", func(t *testing.T) {
		f := newAuthFixture(t)
		seeded := f.seedEmployee(t, "EMP001", "Sup3rSecret!", true)
		resp := f.login(t, "EMP001", "Sup3rSecret!")

		rec, err := f.post("/api/auth/change-password",
			`{"currentPassword":"Sup3rSecret!","newPassword":"An0therSecret!"}`, resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		active, err := f.tokens.HasActiveSession(seeded.ID)
		require.NoError(t, err)
		assert.False(t, active)

		fresh := f.login(t, "EMP001", "An0therSecret!")
		assert.True(t, fresh.Success)
	})
}
