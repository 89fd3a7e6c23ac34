package models

import (
	"time"

	"gorm.io/gorm"
)

type Employee struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	EmployeeID       string         `gorm:"uniqueIndex;size:50;not null" json:"employeeId"`
	FirstName        string         `gorm:"size:100;not null" json:"firstName"`
	LastName         string         `gorm:"size:100;not null" json:"lastName"`
	Email            string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Phone            string         `gorm:"size:30" json:"phone"`
	Password         string         `gorm:"size:255;not null" json:"-"`
	Gender           string         `gorm:"size:20" json:"gender"`
	DOB              *time.Time     `json:"dob"`
	Position         string         `gorm:"size:100" json:"position"`
	Qualification    string         `gorm:"size:255" json:"qualification"`
	HireDate         *time.Time     `json:"hireDate"`
	DateOfLeaving    *time.Time     `json:"dateOfLeaving"`
	EmploymentStatus string         `gorm:"size:50;index" json:"employmentStatus"`
	ContractType     string         `gorm:"size:50" json:"contractType"`
	CurrentLocation  string         `gorm:"size:255" json:"currentLocation"`
	Photo            string         `gorm:"size:255" json:"photo"`
	BasicSalary      float64        `json:"basicSalary"`
	Notes            string         `gorm:"type:text" json:"notes"`
	ReportingTo      *uint          `gorm:"index" json:"reportingTo"`
	IsSuperadmin     bool           `json:"isSuperadmin"`
	IsActive         bool           `gorm:"index" json:"isActive"`
	CreatedBy        *uint          `json:"createdBy"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	Manager       *Employee      `gorm:"foreignKey:ReportingTo" json:"manager,omitempty"`
	Subordinates  []Employee     `gorm:"foreignKey:ReportingTo" json:"subordinates,omitempty"`
	EmployeeRoles []EmployeeRole `gorm:"foreignKey:EmployeeID" json:"roles,omitempty"`
}

func (Employee) TableName() string {
	return "employees"
}

// FullName joins first and last name for log and export fields.
func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// RoleSlugs returns the slugs of the employee's active role assignments.
func (e *Employee) RoleSlugs() []string {
	slugs := make([]string, 0, len(e.EmployeeRoles))
	for _, er := range e.EmployeeRoles {
		if er.IsActive && er.Role != nil {
			slugs = append(slugs, er.Role.Slug)
		}
	}
	return slugs
}

// PrimaryRoleSlug returns the slug of the primary assignment, or "".
func (e *Employee) PrimaryRoleSlug() string {
	for _, er := range e.EmployeeRoles {
		if er.IsActive && er.IsPrimary && er.Role != nil {
			return er.Role.Slug
		}
	}
	return ""
}
