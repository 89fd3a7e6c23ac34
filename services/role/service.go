package role

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qore-hq/qore-backend/models"
	"github.com/qore-hq/qore-backend/services/logging"
)

var (
	ErrRoleNotFound  = errors.New("role not found")
	ErrDuplicateSlug = errors.New("role slug already in use")
	ErrRoleInUse     = errors.New("role is assigned to employees")
)

var slugSanitizer = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a stable slug from a role name.
func Slugify(name string) string {
	slug := slugSanitizer.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

type CreateInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	IsActive    *bool  `json:"isActive"`
}

type UpdateInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

type Service struct {
	db     *gorm.DB
	logger *logging.Service
}

func NewService(db *gorm.DB, logger *logging.Service) *Service {
	return &Service{db: db, logger: logger}
}

func (s *Service) List() ([]models.Role, error) {
	var roles []models.Role
	if err := s.db.Order("name asc").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

func (s *Service) ListActive() ([]models.Role, error) {
	var roles []models.Role
	if err := s.db.Where("is_active = ?", true).Order("name asc").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

func (s *Service) GetByID(id uint) (*models.Role, error) {
	var role models.Role
	if err := s.db.First(&role, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to load role: %w", err)
	}
	return &role, nil
}

func (s *Service) GetBySlug(slug string) (*models.Role, error) {
	var role models.Role
	if err := s.db.Where("slug = ?", slug).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to load role: %w", err)
	}
	return &role, nil
}

func (s *Service) Create(input CreateInput) (*models.Role, error) {
	slug := input.Slug
	if slug == "" {
		slug = Slugify(input.Name)
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	role := models.Role{
		Name:        input.Name,
		Slug:        slug,
		Description: input.Description,
		IsActive:    isActive,
	}

	if err := s.db.Create(&role).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateSlug
		}
		return nil, fmt.Errorf("failed to create role: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("role created", zap.Uint("id", role.ID), zap.String("slug", role.Slug))
	}
	return &role, nil
}

func (s *Service) Update(id uint, input UpdateInput) (*models.Role, error) {
	role, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(role).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update role: %w", err)
		}
	}
	return role, nil
}

// Delete refuses to remove a role while any assignment still references it.
func (s *Service) Delete(id uint) error {
	role, err := s.GetByID(id)
	if err != nil {
		return err
	}

	var assignments int64
	if err := s.db.Model(&models.EmployeeRole{}).Where("role_id = ?", id).Count(&assignments).Error; err != nil {
		return fmt.Errorf("failed to count role assignments: %w", err)
	}
	if assignments > 0 {
		return ErrRoleInUse
	}

	if err := s.db.Delete(role).Error; err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("role deleted", zap.Uint("id", id), zap.String("slug", role.Slug))
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
