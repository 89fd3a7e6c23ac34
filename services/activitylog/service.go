package activitylog

import (
	"encoding/json"
	"fmt"

	"github.com/mileusna/useragent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qore-hq/qore-backend/models"
	"github.com/qore-hq/qore-backend/services/logging"
)

// Entry is a single activity to record. Old and New are serialized to JSON
// when present.
type Entry struct {
	EmployeeID *uint
	Action     string
	EntityType string
	EntityID   *uint
	Old        any
	New        any
	IPAddress  string
	UserAgent  string
}

type ListParams struct {
	Page       int
	Limit      int
	EmployeeID *uint
	Action     string
}

type ListResult struct {
	Entries    []models.ActivityLog `json:"entries"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
	TotalPages int                  `json:"totalPages"`
}

type Service struct {
	db     *gorm.DB
	logger *logging.Service
}

func NewService(db *gorm.DB, logger *logging.Service) *Service {
	return &Service{db: db, logger: logger}
}

// Record writes an activity row. Failures are logged and swallowed so the
// request that triggered the activity never fails on logging.
func (s *Service) Record(entry Entry) {
	row := models.ActivityLog{
		EmployeeID: entry.EmployeeID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		IPAddress:  entry.IPAddress,
		UserAgent:  entry.UserAgent,
	}

	if entry.Old != nil {
		row.OldValue = marshalValue(entry.Old)
	}
	if entry.New != nil {
		row.NewValue = marshalValue(entry.New)
	}

	if entry.UserAgent != "" {
		ua := useragent.Parse(entry.UserAgent)
		row.Browser = joinNameVersion(ua.Name, ua.Version)
		row.OS = joinNameVersion(ua.OS, ua.OSVersion)
	}

	if err := s.db.Create(&row).Error; err != nil {
		if s.logger != nil {
			s.logger.Error("failed to record activity",
				zap.String("action", entry.Action), zap.Error(err))
		}
	}
}

func (s *Service) List(params ListParams) (*ListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = 20
	}
	if params.Limit > 100 {
		params.Limit = 100
	}

	query := s.db.Model(&models.ActivityLog{})
	if params.EmployeeID != nil {
		query = query.Where("employee_id = ?", *params.EmployeeID)
	}
	if params.Action != "" {
		query = query.Where("action = ?", params.Action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count activity entries: %w", err)
	}

	var entries []models.ActivityLog
	err := query.
		Order("created_at DESC").
		Offset((params.Page - 1) * params.Limit).
		Limit(params.Limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list activity entries: %w", err)
	}

	return &ListResult{
		Entries:    entries,
		Total:      total,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: int((total + int64(params.Limit) - 1) / int64(params.Limit)),
	}, nil
}

func marshalValue(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}

func joinNameVersion(name, version string) string {
	if name == "" {
		return ""
	}
	if version == "" {
		return name
	}
	return name + " " + version
}
