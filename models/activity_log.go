package models

import "time"

// ActivityLog rows are append-only. EmployeeID is nullable because failed
// logins for unknown accounts are still recorded.
type ActivityLog struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	EmployeeID *uint     `gorm:"index" json:"employeeId"`
	Action     string    `gorm:"size:50;not null;index" json:"action"`
	EntityType string    `gorm:"size:50" json:"entityType"`
	EntityID   *uint     `json:"entityId"`
	OldValue   string    `gorm:"type:text" json:"oldValue,omitempty"`
	NewValue   string    `gorm:"type:text" json:"newValue,omitempty"`
	IPAddress  string    `gorm:"size:45" json:"ipAddress"`
	UserAgent  string    `gorm:"size:512" json:"userAgent"`
	Browser    string    `gorm:"size:100" json:"browser"`
	OS         string    `gorm:"size:100" json:"os"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`

	Employee *Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

const (
	ActionLogin           = "LOGIN"
	ActionLoginFailed     = "LOGIN_FAILED"
	ActionLogout          = "LOGOUT"
	ActionLogoutAll       = "LOGOUT_ALL"
	ActionTokenRefresh    = "TOKEN_REFRESH"
	ActionPasswordChange  = "PASSWORD_CHANGE"
	ActionEmployeeCreate  = "EMPLOYEE_CREATE"
	ActionEmployeeUpdate  = "EMPLOYEE_UPDATE"
	ActionEmployeeDelete  = "EMPLOYEE_DELETE"
	ActionEmployeeRestore = "EMPLOYEE_RESTORE"
	ActionRoleCreate      = "ROLE_CREATE"
	ActionRoleUpdate      = "ROLE_UPDATE"
	ActionRoleDelete      = "ROLE_DELETE"
	ActionFileUpload      = "FILE_UPLOAD"
	ActionFileDelete      = "FILE_DELETE"
	ActionEmployeesImport = "EMPLOYEES_IMPORT"
	ActionEmployeesExport = "EMPLOYEES_EXPORT"
)
