package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qore-hq/qore-backend/config"
	"github.com/qore-hq/qore-backend/models"
	"github.com/qore-hq/qore-backend/testutils"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db := testutils.SetupTestDB(t, &models.Employee{}, &models.Role{}, &models.EmployeeRole{})
	return NewService(testutils.TestConfig(), db, nil)
}

func seedEmployee(t *testing.T, s *Service, employeeID, password string, active bool) *models.Employee {
	t.Helper()
	employee := &models.Employee{
		EmployeeID: employeeID,
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Email:      employeeID + "@example.com",
		Password:   s.MustHashPassword(password),
		IsActive:   active,
	}
	require.NoError(t, s.db.Create(employee).Error)
	return employee
}

func TestService_ValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		config   config.AuthConfig
		wantErr  bool
		errMsg   string
	}{
		{
			name:     "valid password",
			password: "Sufficient1",
			config:   config.AuthConfig{MinLength: 8, RequireUpper: true, RequireLower: true, RequireNumber: true},
			wantErr:  false,
		},
		{
			name:     "too short",
			password: "Ab1",
			config:   config.AuthConfig{MinLength: 8, RequireUpper: true, RequireLower: true, RequireNumber: true},
			wantErr:  true,
			errMsg:   "password must be at least 8 characters",
		},
		{
			name:     "missing uppercase",
			password: "lowercase1",
			config:   config.AuthConfig{MinLength: 8, RequireUpper: true, RequireLower: true, RequireNumber: true},
			wantErr:  true,
			errMsg:   "password must contain at least one uppercase letter",
		},
		{
			name:     "missing number",
			password: "NoNumberHere",
			config:   config.AuthConfig{MinLength: 8, RequireUpper: true, RequireLower: true, RequireNumber: true},
			wantErr:  true,
			errMsg:   "password must contain at least one number",
		},
		{
			name:     "missing special when required",
			password: "Sufficient1",
			config:   config.AuthConfig{MinLength: 8, RequireUpper: true, RequireLower: true, RequireNumber: true, RequireSpecial: true},
			wantErr:  true,
			errMsg:   "password must contain at least one special character",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.BcryptCost = 4
			service := NewService(&config.Config{Auth: tt.config}, nil, nil)

			err := service.ValidatePassword(tt.password)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestService_HashAndVerifyPassword(t *testing.T) {
	service := newTestService(t)

	hash, err := service.HashPassword("Sufficient1")
	require.NoError(t, err)
	assert.NotEqual(t, "Sufficient1", hash)

	assert.NoError(t, service.VerifyPassword(hash, "Sufficient1"))
	assert.ErrorIs(t, service.VerifyPassword(hash, "Different1"), ErrInvalidCredentials)
}

func TestService_HashPassword_RejectsWeakPassword(t *testing.T) {
	service := newTestService(t)

	_, err := service.HashPassword("weak")
	assert.Error(t, err)
}

func TestService_Authenticate(t *testing.T) {
	service := newTestService(t)
	seedEmployee(t, service, "EMP001", "Sufficient1", true)

	employee, err := service.Authenticate("EMP001", "Sufficient1")
	require.NoError(t, err)
	assert.Equal(t, "EMP001", employee.EmployeeID)
}

func TestService_Authenticate_WrongPassword(t *testing.T) {
	service := newTestService(t)
	seedEmployee(t, service, "EMP001", "Sufficient1", true)

	_, err := service.Authenticate("EMP001", "WrongPassword1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_Authenticate_UnknownIdentifier(t *testing.T) {
	service := newTestService(t)
	seedEmployee(t, service, "EMP001", "Sufficient1", true)

	_, err := service.Authenticate("EMP999", "Sufficient1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_Authenticate_InactiveAccount(t *testing.T) {
	service := newTestService(t)
	seedEmployee(t, service, "EMP001", "Sufficient1", false)

	_, err := service.Authenticate("EMP001", "Sufficient1")
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestService_Authenticate_LoadsRoles(t *testing.T) {
	service := newTestService(t)
	employee := seedEmployee(t, service, "EMP001", "Sufficient1", true)

	role := &models.Role{Name: "Admin", Slug: "admin", IsActive: true}
	require.NoError(t, service.db.Create(role).Error)
	require.NoError(t, service.db.Create(&models.EmployeeRole{
		EmployeeID: employee.ID,
		RoleID:     role.ID,
		IsPrimary:  true,
		IsActive:   true,
	}).Error)

	got, err := service.Authenticate("EMP001", "Sufficient1")
	require.NoError(t, err)
	assert.Equal(t, []string{"admin"}, got.RoleSlugs())
	assert.Equal(t, "admin", got.PrimaryRoleSlug())
}
