package importexport

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qore-hq/qore-backend/config"
	"github.com/qore-hq/qore-backend/models"
	"github.com/qore-hq/qore-backend/services/auth"
	"github.com/qore-hq/qore-backend/services/logging"
)

// Imported accounts start with this password and are expected to change it.
const importDefaultPassword = "TempPassword123!"

const dateLayout = "2006-01-02"

var ErrEmptyImport = errors.New("import file contains no rows")

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type employeeRow struct {
	EmployeeID       string `csv:"employeeId"`
	FirstName        string `csv:"firstName"`
	LastName         string `csv:"lastName"`
	Email            string `csv:"email"`
	Phone            string `csv:"phone"`
	Gender           string `csv:"gender"`
	DOB              string `csv:"dob"`
	Position         string `csv:"position"`
	Qualification    string `csv:"qualification"`
	HireDate         string `csv:"hireDate"`
	EmploymentStatus string `csv:"employmentStatus"`
	ContractType     string `csv:"contractType"`
	CurrentLocation  string `csv:"currentLocation"`
	BasicSalary      string `csv:"basicSalary"`
	IsActive         string `csv:"isActive"`
}

type RowError struct {
	Row    int      `json:"row"`
	Errors []string `json:"errors"`
}

type ImportResult struct {
	Imported int        `json:"imported"`
	Skipped  int        `json:"skipped"`
	Errors   []RowError `json:"errors"`
}

type ExportFilter struct {
	EmploymentStatus string `query:"employmentStatus"`
	IsActive         *bool  `query:"isActive"`
}

type Service struct {
	db     *gorm.DB
	auth   *auth.Service
	config *config.Config
	logger *logging.Service
}

func NewService(db *gorm.DB, authSvc *auth.Service, cfg *config.Config, logger *logging.Service) *Service {
	return &Service{db: db, auth: authSvc, config: cfg, logger: logger}
}

// Import reads employee rows from CSV. Invalid rows and duplicates are
// skipped with per-row errors; valid rows are inserted with a default
// password. CreatedBy stamps the importing account on every new row.
func (s *Service) Import(reader io.Reader, createdBy *uint) (*ImportResult, error) {
	var rows []employeeRow
	if err := gocsv.Unmarshal(reader, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyImport
	}

	defaultHash, err := s.auth.HashPassword(importDefaultPassword)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: []RowError{}}
	seenIDs := map[string]bool{}
	seenEmails := map[string]bool{}

	for i, row := range rows {
		rowNum := i + 2 // header is row 1

		rowErrors := validateRow(row)

		id := strings.TrimSpace(row.EmployeeID)
		email := strings.ToLower(strings.TrimSpace(row.Email))

		if id != "" && seenIDs[id] {
			rowErrors = append(rowErrors, "duplicate employee ID in file")
		}
		if email != "" && seenEmails[email] {
			rowErrors = append(rowErrors, "duplicate email in file")
		}

		if len(rowErrors) == 0 {
			var existing int64
			err := s.db.Model(&models.Employee{}).
				Where("employee_id = ? OR email = ?", id, email).
				Count(&existing).Error
			if err != nil {
				return nil, fmt.Errorf("failed to check for existing employee: %w", err)
			}
			if existing > 0 {
				rowErrors = append(rowErrors, "employee ID or email already exists")
			}
		}

		if len(rowErrors) > 0 {
			result.Skipped++
			result.Errors = append(result.Errors, RowError{Row: rowNum, Errors: rowErrors})
			continue
		}

		seenIDs[id] = true
		if email != "" {
			seenEmails[email] = true
		}

		employee := rowToEmployee(row, defaultHash, createdBy)
		if err := s.db.Create(employee).Error; err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, RowError{
				Row:    rowNum,
				Errors: []string{"failed to insert employee"},
			})
			if s.logger != nil {
				s.logger.Warn("import row insert failed",
					zap.Int("row", rowNum), zap.Error(err))
			}
			continue
		}
		result.Imported++
	}

	if s.logger != nil {
		s.logger.Info("employee import finished",
			zap.Int("imported", result.Imported), zap.Int("skipped", result.Skipped))
	}
	return result, nil
}

// Export writes the matching employees as CSV to the writer.
func (s *Service) Export(writer io.Writer, filter ExportFilter) (int, error) {
	query := s.db.Model(&models.Employee{}).Order("first_name asc").Order("last_name asc")
	if filter.EmploymentStatus != "" {
		query = query.Where("employment_status = ?", filter.EmploymentStatus)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var employees []models.Employee
	if err := query.Find(&employees).Error; err != nil {
		return 0, fmt.Errorf("failed to load employees for export: %w", err)
	}

	rows := make([]employeeRow, 0, len(employees))
	for i := range employees {
		rows = append(rows, employeeToRow(&employees[i]))
	}

	if err := gocsv.Marshal(&rows, writer); err != nil {
		return 0, fmt.Errorf("failed to write CSV: %w", err)
	}
	return len(rows), nil
}

// History lists past import and export activity, newest first.
func (s *Service) History(page, limit int) ([]models.ActivityLog, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	actions := []string{models.ActionEmployeesImport, models.ActionEmployeesExport}
	query := s.db.Model(&models.ActivityLog{}).Where("action IN ?", actions)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count history: %w", err)
	}

	var entries []models.ActivityLog
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list history: %w", err)
	}
	return entries, total, nil
}

func validateRow(row employeeRow) []string {
	var errs []string

	if strings.TrimSpace(row.EmployeeID) == "" {
		errs = append(errs, "Employee ID is required")
	}
	if strings.TrimSpace(row.FirstName) == "" {
		errs = append(errs, "First name is required")
	}
	if email := strings.TrimSpace(row.Email); email != "" && !emailPattern.MatchString(email) {
		errs = append(errs, "Invalid email format")
	}
	if row.DOB != "" {
		if _, err := time.Parse(dateLayout, row.DOB); err != nil {
			errs = append(errs, "Invalid date of birth format")
		}
	}
	if row.HireDate != "" {
		if _, err := time.Parse(dateLayout, row.HireDate); err != nil {
			errs = append(errs, "Invalid hire date format")
		}
	}
	if row.BasicSalary != "" {
		if _, err := strconv.ParseFloat(row.BasicSalary, 64); err != nil {
			errs = append(errs, "Basic salary must be a valid number")
		}
	}
	return errs
}

func rowToEmployee(row employeeRow, passwordHash string, createdBy *uint) *models.Employee {
	employee := &models.Employee{
		EmployeeID:       strings.TrimSpace(row.EmployeeID),
		FirstName:        strings.TrimSpace(row.FirstName),
		LastName:         strings.TrimSpace(row.LastName),
		Email:            strings.ToLower(strings.TrimSpace(row.Email)),
		Phone:            strings.TrimSpace(row.Phone),
		Password:         passwordHash,
		Gender:           row.Gender,
		Position:         row.Position,
		Qualification:    row.Qualification,
		EmploymentStatus: row.EmploymentStatus,
		ContractType:     row.ContractType,
		CurrentLocation:  row.CurrentLocation,
		IsActive:         true,
		CreatedBy:        createdBy,
	}

	if employee.EmploymentStatus == "" {
		employee.EmploymentStatus = "full-time"
	}
	if row.DOB != "" {
		if dob, err := time.Parse(dateLayout, row.DOB); err == nil {
			employee.DOB = &dob
		}
	}
	if row.HireDate != "" {
		if hireDate, err := time.Parse(dateLayout, row.HireDate); err == nil {
			employee.HireDate = &hireDate
		}
	}
	if row.BasicSalary != "" {
		if salary, err := strconv.ParseFloat(row.BasicSalary, 64); err == nil {
			employee.BasicSalary = salary
		}
	}
	if row.IsActive != "" {
		employee.IsActive = strings.EqualFold(row.IsActive, "true") || row.IsActive == "1"
	}
	return employee
}

func employeeToRow(e *models.Employee) employeeRow {
	row := employeeRow{
		EmployeeID:       e.EmployeeID,
		FirstName:        e.FirstName,
		LastName:         e.LastName,
		Email:            e.Email,
		Phone:            e.Phone,
		Gender:           e.Gender,
		Position:         e.Position,
		Qualification:    e.Qualification,
		EmploymentStatus: e.EmploymentStatus,
		ContractType:     e.ContractType,
		CurrentLocation:  e.CurrentLocation,
		BasicSalary:      strconv.FormatFloat(e.BasicSalary, 'f', -1, 64),
		IsActive:         strconv.FormatBool(e.IsActive),
	}
	if e.DOB != nil {
		row.DOB = e.DOB.Format(dateLayout)
	}
	if e.HireDate != nil {
		row.HireDate = e.HireDate.Format(dateLayout)
	}
	return row
}
