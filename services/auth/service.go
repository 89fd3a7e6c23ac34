package auth

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/qore-hq/qore-backend/config"
	"github.com/qore-hq/qore-backend/models"
	"github.com/qore-hq/qore-backend/services/logging"
)

var (
	ErrPasswordHashingFailed = errors.New("failed to hash password")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrAccountInactive       = errors.New("account is inactive")
	ErrWeakPassword          = errors.New("password does not meet requirements")
)

type Service struct {
	config *config.Config
	db     *gorm.DB
	logger *logging.Service
}

func NewService(cfg *config.Config, db *gorm.DB, logger *logging.Service) *Service {
	if cfg.Auth.BcryptCost < bcrypt.MinCost || cfg.Auth.BcryptCost > bcrypt.MaxCost {
		cfg.Auth.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		config: cfg,
		db:     db,
		logger: logger,
	}
}

func (s *Service) ValidatePassword(password string) error {
	if len(password) < s.config.Auth.MinLength {
		if s.logger != nil {
			s.logger.Warn("password validation failed: insufficient length",
				zap.Int("length", len(password)),
				zap.Int("min_required", s.config.Auth.MinLength))
		}
		return fmt.Errorf("%w: password must be at least %d characters", ErrWeakPassword, s.config.Auth.MinLength)
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	var missing []string

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	if s.config.Auth.RequireUpper && !hasUpper {
		missing = append(missing, "one uppercase letter")
	}
	if s.config.Auth.RequireLower && !hasLower {
		missing = append(missing, "one lowercase letter")
	}
	if s.config.Auth.RequireNumber && !hasNumber {
		missing = append(missing, "one number")
	}
	if s.config.Auth.RequireSpecial && !hasSpecial {
		missing = append(missing, "one special character")
	}

	if len(missing) > 0 {
		if s.logger != nil {
			s.logger.Warn("password validation failed: missing requirements",
				zap.Strings("missing_requirements", missing))
		}
		return fmt.Errorf("%w: password must contain at least %s", ErrWeakPassword, strings.Join(missing, ", "))
	}

	return nil
}

func (s *Service) HashPassword(password string) (string, error) {
	if err := s.ValidatePassword(password); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.Auth.BcryptCost)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("password hashing failed", zap.Error(err))
		}
		return "", ErrPasswordHashingFailed
	}

	return string(hash), nil
}

func (s *Service) VerifyPassword(hashedPassword, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("password verification failed")
		}
		return ErrInvalidCredentials
	}
	return nil
}

func (s *Service) MustHashPassword(password string) string {
	hash, err := s.HashPassword(password)
	if err != nil {
		panic(err)
	}
	return hash
}

// FindByEmployeeID loads an employee with role assignments by the external
// employee identifier. Soft-deleted rows are excluded by gorm.
func (s *Service) FindByEmployeeID(employeeID string) (*models.Employee, error) {
	var employee models.Employee
	err := s.db.
		Preload("EmployeeRoles", "is_active = ?", true).
		Preload("EmployeeRoles.Role").
		Where("employee_id = ?", employeeID).
		First(&employee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up employee: %w", err)
	}
	return &employee, nil
}

// Authenticate verifies the credential pair. Unknown identifiers and wrong
// passwords both come back as ErrInvalidCredentials so callers cannot tell
// them apart; the inactive check runs only after the password matches.
func (s *Service) Authenticate(employeeID, password string) (*models.Employee, error) {
	employee, err := s.FindByEmployeeID(employeeID)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			// Dummy comparison keeps unknown-id timing in line with
			// wrong-password timing.
			_ = bcrypt.CompareHashAndPassword(
				[]byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"),
				[]byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.VerifyPassword(employee.Password, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !employee.IsActive {
		if s.logger != nil {
			s.logger.Warn("login rejected for inactive account", zap.Uint("employee_id", employee.ID))
		}
		return nil, ErrAccountInactive
	}

	return employee, nil
}
