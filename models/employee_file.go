package models

import "time"

const (
	FileKindPhoto    = "photo"
	FileKindDocument = "document"
)

type EmployeeFile struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	EmployeeID   uint      `gorm:"index;not null" json:"employeeId"`
	Kind         string    `gorm:"size:20;not null" json:"kind"`
	FileName     string    `gorm:"uniqueIndex;size:255;not null" json:"fileName"`
	OriginalName string    `gorm:"size:255" json:"originalName"`
	MimeType     string    `gorm:"size:100" json:"mimeType"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (EmployeeFile) TableName() string {
	return "employee_files"
}
