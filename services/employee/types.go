package employee

import (
	"time"

	"github.com/qore-hq/qore-backend/models"
)

type ListParams struct {
	Page             int        `query:"page"`
	Limit            int        `query:"limit"`
	Search           string     `query:"search"`
	Position         string     `query:"position"`
	EmploymentStatus string     `query:"employmentStatus"`
	IsActive         *bool      `query:"isActive"`
	Gender           string     `query:"gender"`
	HireDateFrom     *time.Time `query:"hireDateFrom"`
	HireDateTo       *time.Time `query:"hireDateTo"`
	SortBy           string     `query:"sortBy"`
	SortOrder        string     `query:"sortOrder"`
}

type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

type ListResult struct {
	Employees  []models.Employee `json:"employees"`
	Pagination Pagination        `json:"pagination"`
}

type Statistics struct {
	Total       int64            `json:"total"`
	Active      int64            `json:"active"`
	Inactive    int64            `json:"inactive"`
	ByStatus    map[string]int64 `json:"byStatus"`
	ByGender    map[string]int64 `json:"byGender"`
	RecentHires int64            `json:"recentHires"`
}

type CreateInput struct {
	EmployeeID       string     `json:"employeeId"`
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone"`
	Password         string     `json:"password"`
	Gender           string     `json:"gender"`
	DOB              *time.Time `json:"dob"`
	Position         string     `json:"position"`
	Qualification    string     `json:"qualification"`
	HireDate         *time.Time `json:"hireDate"`
	EmploymentStatus string     `json:"employmentStatus"`
	ContractType     string     `json:"contractType"`
	CurrentLocation  string     `json:"currentLocation"`
	BasicSalary      float64    `json:"basicSalary"`
	Notes            string     `json:"notes"`
	ReportingTo      *uint      `json:"reportingTo"`
	IsSuperadmin     bool       `json:"isSuperadmin"`
	IsActive         *bool      `json:"isActive"`
	RoleIDs          []uint     `json:"roleIds"`
	CreatedBy        *uint      `json:"-"`
}

// UpdateInput uses pointers so absent fields are left untouched.
type UpdateInput struct {
	FirstName        *string    `json:"firstName"`
	LastName         *string    `json:"lastName"`
	Email            *string    `json:"email"`
	Phone            *string    `json:"phone"`
	Password         *string    `json:"password"`
	Gender           *string    `json:"gender"`
	DOB              *time.Time `json:"dob"`
	Position         *string    `json:"position"`
	Qualification    *string    `json:"qualification"`
	HireDate         *time.Time `json:"hireDate"`
	DateOfLeaving    *time.Time `json:"dateOfLeaving"`
	EmploymentStatus *string    `json:"employmentStatus"`
	ContractType     *string    `json:"contractType"`
	CurrentLocation  *string    `json:"currentLocation"`
	BasicSalary      *float64   `json:"basicSalary"`
	Notes            *string    `json:"notes"`
	ReportingTo      *uint      `json:"reportingTo"`
	IsSuperadmin     *bool      `json:"isSuperadmin"`
	IsActive         *bool      `json:"isActive"`
	RoleIDs          *[]uint    `json:"roleIds"`
}

// Summary is the trimmed shape used for manager and subordinate listings.
type Summary struct {
	ID               uint   `json:"id"`
	EmployeeID       string `json:"employeeId"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Email            string `json:"email"`
	Position         string `json:"position"`
	EmploymentStatus string `json:"employmentStatus,omitempty"`
}

func summarize(e *models.Employee) Summary {
	return Summary{
		ID:               e.ID,
		EmployeeID:       e.EmployeeID,
		FirstName:        e.FirstName,
		LastName:         e.LastName,
		Email:            e.Email,
		Position:         e.Position,
		EmploymentStatus: e.EmploymentStatus,
	}
}
