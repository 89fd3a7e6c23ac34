package employee

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qore-hq/qore-backend/cache"
	"github.com/qore-hq/qore-backend/config"
	"github.com/qore-hq/qore-backend/models"
	"github.com/qore-hq/qore-backend/services/auth"
	"github.com/qore-hq/qore-backend/services/logging"
	"github.com/qore-hq/qore-backend/services/refreshtoken"
)

var (
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrDuplicateEmployee = errors.New("employee id or email already in use")
	ErrNoManager         = errors.New("employee has no manager")
)

var sortableColumns = map[string]string{
	"createdAt":        "created_at",
	"updatedAt":        "updated_at",
	"firstName":        "first_name",
	"lastName":         "last_name",
	"email":            "email",
	"employeeId":       "employee_id",
	"position":         "position",
	"hireDate":         "hire_date",
	"employmentStatus": "employment_status",
	"basicSalary":      "basic_salary",
}

type Service struct {
	db     *gorm.DB
	auth   *auth.Service
	tokens *refreshtoken.Service
	cache  *queryCache
	config *config.Config
	logger *logging.Service
}

func NewService(db *gorm.DB, authSvc *auth.Service, tokens *refreshtoken.Service, store cache.Store, cfg *config.Config, logger *logging.Service) *Service {
	return &Service{
		db:     db,
		auth:   authSvc,
		tokens: tokens,
		cache:  newQueryCache(store, logger),
		config: cfg,
		logger: logger,
	}
}

func (s *Service) withRelations(query *gorm.DB) *gorm.DB {
	return query.
		Preload("EmployeeRoles", "is_active = ?", true).
		Preload("EmployeeRoles.Role").
		Preload("Manager").
		Preload("Subordinates")
}

// List returns a page of employees with the filters applied. Results are
// served from the cache when a previous identical query is still fresh.
func (s *Service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = 10
	}
	if params.Limit > 100 {
		params.Limit = 100
	}
	if _, ok := sortableColumns[params.SortBy]; !ok {
		params.SortBy = "createdAt"
	}
	if params.SortOrder != "asc" {
		params.SortOrder = "desc"
	}

	suffix := listKeySuffix(params)
	var cached ListResult
	if s.cache.get(ctx, suffix, &cached) {
		return &cached, nil
	}

	query := s.db.Model(&models.Employee{})

	if params.Search != "" {
		like := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where(
			s.db.Where("LOWER(employee_id) LIKE ?", like).
				Or("LOWER(first_name) LIKE ?", like).
				Or("LOWER(last_name) LIKE ?", like).
				Or("LOWER(email) LIKE ?", like).
				Or("LOWER(phone) LIKE ?", like).
				Or("LOWER(position) LIKE ?", like).
				Or("LOWER(qualification) LIKE ?", like).
				Or("LOWER(current_location) LIKE ?", like))
	}
	if params.Position != "" {
		query = query.Where("LOWER(position) LIKE ?", "%"+strings.ToLower(params.Position)+"%")
	}
	if params.EmploymentStatus != "" {
		query = query.Where("employment_status = ?", params.EmploymentStatus)
	}
	if params.IsActive != nil {
		query = query.Where("is_active = ?", *params.IsActive)
	}
	if params.Gender != "" {
		query = query.Where("gender = ?", params.Gender)
	}
	if params.HireDateFrom != nil {
		query = query.Where("hire_date >= ?", *params.HireDateFrom)
	}
	if params.HireDateTo != nil {
		query = query.Where("hire_date <= ?", *params.HireDateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count employees: %w", err)
	}

	var employees []models.Employee
	err := s.withRelations(query).
		Order(fmt.Sprintf("%s %s", sortableColumns[params.SortBy], params.SortOrder)).
		Order("first_name asc").
		Offset((params.Page - 1) * params.Limit).
		Limit(params.Limit).
		Find(&employees).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	totalPages := int((total + int64(params.Limit) - 1) / int64(params.Limit))
	result := &ListResult{
		Employees: employees,
		Pagination: Pagination{
			Total:      total,
			Page:       params.Page,
			Limit:      params.Limit,
			TotalPages: totalPages,
			HasNext:    params.Page < totalPages,
			HasPrev:    params.Page > 1,
		},
	}

	s.cache.set(ctx, suffix, result)
	return result, nil
}

func (s *Service) GetByID(ctx context.Context, id uint) (*models.Employee, error) {
	suffix := fmt.Sprintf("id:%d", id)
	var cached models.Employee
	if s.cache.get(ctx, suffix, &cached) {
		return &cached, nil
	}

	employee, err := s.load(id)
	if err != nil {
		return nil, err
	}

	s.cache.set(ctx, suffix, employee)
	return employee, nil
}

// GetByIDFresh skips the query cache. Auth decisions read through this so a
// deactivation is visible before the cached copy expires.
func (s *Service) GetByIDFresh(id uint) (*models.Employee, error) {
	return s.load(id)
}

func (s *Service) load(id uint) (*models.Employee, error) {
	var employee models.Employee
	err := s.withRelations(s.db).First(&employee, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}
	return &employee, nil
}

func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Employee, error) {
	hash, err := s.auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	employee := models.Employee{
		EmployeeID:       input.EmployeeID,
		FirstName:        input.FirstName,
		LastName:         input.LastName,
		Email:            input.Email,
		Phone:            input.Phone,
		Password:         hash,
		Gender:           input.Gender,
		DOB:              input.DOB,
		Position:         input.Position,
		Qualification:    input.Qualification,
		HireDate:         input.HireDate,
		EmploymentStatus: input.EmploymentStatus,
		ContractType:     input.ContractType,
		CurrentLocation:  input.CurrentLocation,
		BasicSalary:      input.BasicSalary,
		Notes:            input.Notes,
		ReportingTo:      input.ReportingTo,
		IsSuperadmin:     input.IsSuperadmin,
		IsActive:         isActive,
		CreatedBy:        input.CreatedBy,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&employee).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateEmployee
			}
			return fmt.Errorf("failed to create employee: %w", err)
		}
		return assignRoles(tx, employee.ID, input.RoleIDs)
	})
	if err != nil {
		return nil, err
	}

	s.cache.invalidate(ctx)

	if s.logger != nil {
		s.logger.Info("employee created",
			zap.Uint("id", employee.ID), zap.String("employee_id", employee.EmployeeID))
	}

	return s.GetByID(ctx, employee.ID)
}

func (s *Service) Update(ctx context.Context, id uint, input UpdateInput) (*models.Employee, error) {
	var existing models.Employee
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}

	updates := map[string]any{}
	setString := func(column string, v *string) {
		if v != nil {
			updates[column] = *v
		}
	}
	setString("first_name", input.FirstName)
	setString("last_name", input.LastName)
	setString("email", input.Email)
	setString("phone", input.Phone)
	setString("gender", input.Gender)
	setString("position", input.Position)
	setString("qualification", input.Qualification)
	setString("employment_status", input.EmploymentStatus)
	setString("contract_type", input.ContractType)
	setString("current_location", input.CurrentLocation)
	setString("notes", input.Notes)

	if input.Password != nil {
		hash, err := s.auth.HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		updates["password"] = hash
	}
	if input.DOB != nil {
		updates["dob"] = *input.DOB
	}
	if input.HireDate != nil {
		updates["hire_date"] = *input.HireDate
	}
	if input.DateOfLeaving != nil {
		updates["date_of_leaving"] = *input.DateOfLeaving
	}
	if input.BasicSalary != nil {
		updates["basic_salary"] = *input.BasicSalary
	}
	if input.ReportingTo != nil {
		updates["reporting_to"] = *input.ReportingTo
	}
	if input.IsSuperadmin != nil {
		updates["is_superadmin"] = *input.IsSuperadmin
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&existing).Updates(updates).Error; err != nil {
				if isUniqueViolation(err) {
					return ErrDuplicateEmployee
				}
				return fmt.Errorf("failed to update employee: %w", err)
			}
		}
		if input.RoleIDs != nil {
			if err := tx.Where("employee_id = ?", id).Delete(&models.EmployeeRole{}).Error; err != nil {
				return fmt.Errorf("failed to clear role assignments: %w", err)
			}
			return assignRoles(tx, id, *input.RoleIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.invalidate(ctx)
	return s.GetByID(ctx, id)
}

// SoftDelete hides the employee and flips the account inactive, which also
// cuts off any outstanding access tokens at the middleware.
func (s *Service) SoftDelete(ctx context.Context, id uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Employee{}).Where("id = ?", id).Update("is_active", false)
		if result.Error != nil {
			return fmt.Errorf("failed to deactivate employee: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrEmployeeNotFound
		}
		if err := tx.Delete(&models.Employee{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete employee: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.tokens.RevokeAllForEmployee(id); err != nil && s.logger != nil {
		s.logger.Warn("failed to revoke sessions for deleted employee",
			zap.Uint("id", id), zap.Error(err))
	}

	s.cache.invalidate(ctx)
	return nil
}

func (s *Service) Restore(ctx context.Context, id uint) (*models.Employee, error) {
	result := s.db.Unscoped().Model(&models.Employee{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Updates(map[string]any{"deleted_at": nil, "is_active": true})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to restore employee: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrEmployeeNotFound
	}

	s.cache.invalidate(ctx)
	return s.GetByID(ctx, id)
}

func (s *Service) Subordinates(ctx context.Context, managerID uint) ([]Summary, error) {
	var employees []models.Employee
	err := s.db.
		Where("reporting_to = ? AND is_active = ?", managerID, true).
		Order("first_name asc").
		Order("last_name asc").
		Find(&employees).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subordinates: %w", err)
	}

	summaries := make([]Summary, 0, len(employees))
	for i := range employees {
		summaries = append(summaries, summarize(&employees[i]))
	}
	return summaries, nil
}

func (s *Service) Manager(ctx context.Context, employeeID uint) (*Summary, error) {
	var employee models.Employee
	if err := s.db.Select("reporting_to").First(&employee, employeeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}
	if employee.ReportingTo == nil {
		return nil, ErrNoManager
	}

	var manager models.Employee
	if err := s.db.First(&manager, *employee.ReportingTo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoManager
		}
		return nil, fmt.Errorf("failed to load manager: %w", err)
	}

	summary := summarize(&manager)
	return &summary, nil
}

func (s *Service) Statistics(ctx context.Context) (*Statistics, error) {
	var cached Statistics
	if s.cache.get(ctx, "stats", &cached) {
		return &cached, nil
	}

	stats := &Statistics{
		ByStatus: map[string]int64{},
		ByGender: map[string]int64{},
	}

	base := func() *gorm.DB { return s.db.Model(&models.Employee{}) }

	if err := base().Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}
	if err := base().Where("is_active = ?", true).Count(&stats.Active).Error; err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}
	stats.Inactive = stats.Total - stats.Active

	type bucket struct {
		Key   string
		Count int64
	}
	var byStatus []bucket
	err := base().
		Select("employment_status AS key, COUNT(*) AS count").
		Group("employment_status").
		Scan(&byStatus).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}
	for _, b := range byStatus {
		key := b.Key
		if key == "" {
			key = "unknown"
		}
		stats.ByStatus[key] = b.Count
	}

	var byGender []bucket
	err = base().
		Select("gender AS key, COUNT(*) AS count").
		Group("gender").
		Scan(&byGender).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}
	for _, b := range byGender {
		key := b.Key
		if key == "" {
			key = "unknown"
		}
		stats.ByGender[key] = b.Count
	}

	cutoff := time.Now().AddDate(0, 0, -30)
	if err := base().Where("hire_date >= ?", cutoff).Count(&stats.RecentHires).Error; err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}

	s.cache.set(ctx, "stats", stats)
	return stats, nil
}

// ChangePassword verifies the current password before rehashing, then revokes
// every session the employee holds.
func (s *Service) ChangePassword(ctx context.Context, id uint, currentPassword, newPassword string) error {
	var employee models.Employee
	if err := s.db.First(&employee, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEmployeeNotFound
		}
		return fmt.Errorf("failed to load employee: %w", err)
	}

	if err := s.auth.VerifyPassword(employee.Password, currentPassword); err != nil {
		return err
	}

	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.db.Model(&employee).Update("password", hash).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.tokens.RevokeAllForEmployee(id); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("password changed, all sessions revoked", zap.Uint("id", id))
	}
	return nil
}

func assignRoles(tx *gorm.DB, employeeID uint, roleIDs []uint) error {
	for i, roleID := range roleIDs {
		assignment := models.EmployeeRole{
			EmployeeID: employeeID,
			RoleID:     roleID,
			IsPrimary:  i == 0,
			IsActive:   true,
		}
		if err := tx.Create(&assignment).Error; err != nil {
			return fmt.Errorf("failed to assign role %d: %w", roleID, err)
		}
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
