package models

import "time"

type Role struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;size:100;not null" json:"slug"`
	Description string    `gorm:"size:255" json:"description"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Role) TableName() string {
	return "roles"
}

// EmployeeRole links an employee to a role. The first role assigned to an
// employee is marked primary.
type EmployeeRole struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	EmployeeID uint      `gorm:"uniqueIndex:idx_employee_role;not null" json:"employeeId"`
	RoleID     uint      `gorm:"uniqueIndex:idx_employee_role;not null" json:"roleId"`
	IsPrimary  bool      `json:"isPrimary"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`

	Role *Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

func (EmployeeRole) TableName() string {
	return "employee_roles"
}
