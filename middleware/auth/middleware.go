package auth

import (
	"errors"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/qore-hq/qore-backend/httperr"
	"github.com/qore-hq/qore-backend/models"
	"github.com/qore-hq/qore-backend/services/jwt"
	"github.com/qore-hq/qore-backend/services/refreshtoken"
)

const (
	EmployeeKey = "_auth_employee"
	ClaimsKey   = "_auth_claims"
)

type Middleware struct {
	jwt    *jwt.Service
	tokens *refreshtoken.Service
	db     *gorm.DB
}

func NewMiddleware(jwtService *jwt.Service, tokens *refreshtoken.Service, db *gorm.DB) *Middleware {
	return &Middleware{jwt: jwtService, tokens: tokens, db: db}
}

func bearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get("Authorization")
	if header == "" {
		return "", httperr.TokenMissing()
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return "", httperr.TokenInvalid()
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" {
		return "", httperr.TokenMissing()
	}
	return token, nil
}

// authenticate runs the full chain: token signature and expiry, session
// liveness, then account state. logoutAll and deactivation both take effect
// here, on the next request, regardless of the token's own validity.
func (m *Middleware) authenticate(c echo.Context) (*models.Employee, *jwt.Claims, error) {
	token, err := bearerToken(c)
	if err != nil {
		return nil, nil, err
	}

	claims, err := m.jwt.ValidateToken(token)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrExpiredToken):
			return nil, nil, httperr.TokenExpired()
		default:
			return nil, nil, httperr.TokenInvalid()
		}
	}

	active, err := m.tokens.HasActiveSession(claims.EmployeeID)
	if err != nil {
		return nil, nil, httperr.Internal(err)
	}
	if !active {
		return nil, nil, httperr.SessionExpired()
	}

	var employee models.Employee
	err = m.db.
		Preload("EmployeeRoles", "is_active = ?", true).
		Preload("EmployeeRoles.Role").
		First(&employee, claims.EmployeeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, httperr.NotAuthenticated()
		}
		return nil, nil, httperr.Internal(err)
	}
	if !employee.IsActive {
		return nil, nil, httperr.AccountInactive()
	}

	return &employee, claims, nil
}

func (m *Middleware) RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			employee, claims, err := m.authenticate(c)
			if err != nil {
				return err
			}
			c.Set(EmployeeKey, employee)
			c.Set(ClaimsKey, claims)
			return next(c)
		}
	}
}

// OptionalAuth attaches the employee when a valid bearer token is present and
// continues anonymously otherwise.
func (m *Middleware) OptionalAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") == "" {
				return next(c)
			}
			employee, claims, err := m.authenticate(c)
			if err != nil {
				return next(c)
			}
			c.Set(EmployeeKey, employee)
			c.Set(ClaimsKey, claims)
			return next(c)
		}
	}
}

// RequireRole passes when the employee holds any of the given role slugs.
// Superadmins pass every role check.
func (m *Middleware) RequireRole(slugs ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			employee := GetEmployee(c)
			if employee == nil {
				return httperr.NotAuthenticated()
			}
			if employee.IsSuperadmin {
				return next(c)
			}
			held := employee.RoleSlugs()
			for _, slug := range held {
				if slices.Contains(slugs, slug) {
					return next(c)
				}
			}
			return httperr.InsufficientPermissions(slugs, held)
		}
	}
}

// RequirePrimaryRole passes only when the employee's primary role is one of
// the given slugs.
func (m *Middleware) RequirePrimaryRole(slugs ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			employee := GetEmployee(c)
			if employee == nil {
				return httperr.NotAuthenticated()
			}
			if employee.IsSuperadmin {
				return next(c)
			}
			primary := employee.PrimaryRoleSlug()
			if primary != "" && slices.Contains(slugs, primary) {
				return next(c)
			}
			return httperr.InsufficientPermissions(slugs, []string{primary})
		}
	}
}

func GetEmployee(c echo.Context) *models.Employee {
	if employee, ok := c.Get(EmployeeKey).(*models.Employee); ok {
		return employee
	}
	return nil
}

func GetClaims(c echo.Context) *jwt.Claims {
	if claims, ok := c.Get(ClaimsKey).(*jwt.Claims); ok {
		return claims
	}
	return nil
}
