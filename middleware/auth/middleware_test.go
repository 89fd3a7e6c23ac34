package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qore-hq/qore-backend/httperr"
	"github.com/qore-hq/qore-backend/models"
	"github.com/qore-hq/qore-backend/services/jwt"
	"github.com/qore-hq/qore-backend/services/refreshtoken"
	"github.com/qore-hq/qore-backend/testutils"
)

type fixture struct {
	middleware *Middleware
	jwt        *jwt.Service
	tokens     *refreshtoken.Service
	db         *gorm.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutils.SetupTestDB(t,
		&models.Employee{}, &models.Role{}, &models.EmployeeRole{},
		&refreshtoken.RefreshToken{})
	cfg := testutils.TestConfig()
	jwtService := jwt.NewService(cfg, nil)
	tokens := refreshtoken.NewService(db, cfg, nil)
	return &fixture{
		middleware: NewMiddleware(jwtService, tokens, db),
		jwt:        jwtService,
		tokens:     tokens,
		db:         db,
	}
}

func (f *fixture) seedEmployee(t *testing.T, active, superadmin bool, roleSlugs ...string) *models.Employee {
	t.Helper()
	employee := &models.Employee{
		EmployeeID:   "EMP001",
		FirstName:    "Grace",
		LastName:     "Hopper",
		Email:        "grace@example.com",
		Password:     "x",
		IsActive:     active,
		IsSuperadmin: superadmin,
	}
	require.NoError(t, f.db.Create(employee).Error)

	for i, slug := range roleSlugs {
		role := &models.Role{Name: slug, Slug: slug, IsActive: true}
		require.NoError(t, f.db.Create(role).Error)
		require.NoError(t, f.db.Create(&models.EmployeeRole{
			EmployeeID: employee.ID,
			RoleID:     role.ID,
			IsPrimary:  i == 0,
			IsActive:   true,
		}).Error)
	}
	return employee
}

// login issues a valid access token backed by an active refresh session.
func (f *fixture) login(t *testing.T, employee *models.Employee) string {
	t.Helper()
	_, err := f.tokens.Generate(employee.ID)
	require.NoError(t, err)
	token, err := f.jwt.GenerateToken(employee.ID, employee.EmployeeID)
	require.NoError(t, err)
	return token
}

func run(t *testing.T, mw echo.MiddlewareFunc, token string, extra ...echo.MiddlewareFunc) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	for i := len(extra) - 1; i >= 0; i-- {
		handler = extra[i](handler)
	}
	return mw(handler)(c)
}

func assertCode(t *testing.T, err error, status int, code string) {
	t.Helper()
	var appErr *httperr.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, status, appErr.Status)
	assert.Equal(t, code, appErr.Code)
}

func TestRequireAuth_ValidToken(t *testing.T) {
	f := newFixture(t)
	employee := f.seedEmployee(t, true, false, "admin")
	token := f.login(t, employee)

	captured := echo.MiddlewareFunc(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got := GetEmployee(c)
			require.NotNil(t, got)
			assert.Equal(t, employee.ID, got.ID)
			require.NotNil(t, GetClaims(c))
			assert.Equal(t, "EMP001", GetClaims(c).ExternalID)
			return next(c)
		}
	})

	assert.NoError(t, run(t, f.middleware.RequireAuth(), token, captured))
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	f := newFixture(t)
	assertCode(t, run(t, f.middleware.RequireAuth(), ""), http.StatusUnauthorized, "TOKEN_MISSING")
}

func TestRequireAuth_GarbageToken(t *testing.T) {
	f := newFixture(t)
	assertCode(t, run(t, f.middleware.RequireAuth(), "not-a-jwt"), http.StatusUnauthorized, "TOKEN_INVALID")
}

func TestRequireAuth_NoActiveSession(t *testing.T) {
	f := newFixture(t)
	employee := f.seedEmployee(t, true, false)

	// Access token is valid but no refresh session exists.
	token, err := f.jwt.GenerateToken(employee.ID, employee.EmployeeID)
	require.NoError(t, err)

	assertCode(t, run(t, f.middleware.RequireAuth(), token), http.StatusUnauthorized, "SESSION_EXPIRED")
}

func TestRequireAuth_LogoutAllCutsAccess(t *testing.T) {
	f := newFixture(t)
	employee := f.seedEmployee(t, true, false)
	token := f.login(t, employee)

	require.NoError(t, run(t, f.middleware.RequireAuth(), token))

	require.NoError(t, f.tokens.RevokeAllForEmployee(employee.ID))

	assertCode(t, run(t, f.middleware.RequireAuth(), token), http.StatusUnauthorized, "SESSION_EXPIRED")
}

func TestRequireAuth_DeactivatedAccount(t *testing.T) {
	f := newFixture(t)
	employee := f.seedEmployee(t, true, false)
	token := f.login(t, employee)

	require.NoError(t, f.db.Model(employee).Update("is_active", false).Error)

	assertCode(t, run(t, f.middleware.RequireAuth(), token), http.StatusUnauthorized, "ACCOUNT_INACTIVE")
}

func TestOptionalAuth(t *testing.T) {
	f := newFixture(t)
	employee := f.seedEmployee(t, true, false)
	token := f.login(t, employee)

	// Anonymous request passes through without an employee.
	anonymous := echo.MiddlewareFunc(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			assert.Nil(t, GetEmployee(c))
			return next(c)
		}
	})
	assert.NoError(t, run(t, f.middleware.OptionalAuth(), "", anonymous))

	attached := echo.MiddlewareFunc(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			assert.NotNil(t, GetEmployee(c))
			return next(c)
		}
	})
	assert.NoError(t, run(t, f.middleware.OptionalAuth(), token, attached))
}

func TestRequireRole(t *testing.T) {
	f := newFixture(t)
	employee := f.seedEmployee(t, true, false, "hr", "manager")
	token := f.login(t, employee)

	mw := f.middleware.RequireAuth()

	assert.NoError(t, run(t, mw, token, f.middleware.RequireRole("admin", "hr")))

	err := run(t, mw, token, f.middleware.RequireRole("admin"))
	assertCode(t, err, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS")

	var appErr *httperr.AppError
	require.ErrorAs(t, err, &appErr)
	details, ok := appErr.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []string{"admin"}, details["required"])
}

func TestRequireRole_SuperadminBypass(t *testing.T) {
	f := newFixture(t)
	employee := f.seedEmployee(t, true, true)
	token := f.login(t, employee)

	assert.NoError(t, run(t, f.middleware.RequireAuth(), token, f.middleware.RequireRole("admin")))
}

func TestRequireRole_WithoutAuthentication(t *testing.T) {
	f := newFixture(t)
	assertCode(t, run(t, f.middleware.RequireRole("admin"), ""), http.StatusUnauthorized, "NOT_AUTHENTICATED")
}

func TestRequirePrimaryRole(t *testing.T) {
	f := newFixture(t)
	employee := f.seedEmployee(t, true, false, "manager", "hr")
	token := f.login(t, employee)

	mw := f.middleware.RequireAuth()

	assert.NoError(t, run(t, mw, token, f.middleware.RequirePrimaryRole("manager")))

	// "hr" is held but not primary.
	err := run(t, mw, token, f.middleware.RequirePrimaryRole("hr"))
	assertCode(t, err, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS")
}
