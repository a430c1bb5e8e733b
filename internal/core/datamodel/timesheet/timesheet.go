package timesheet

import "time"

type Entry struct {
	ID              int64      `gorm:"primaryKey"`
	OwnerID         string     `gorm:"column:owner_id;type:uuid;not null;index"`
	OwnerName       string     `gorm:"column:owner_name;not null"`
	OwnerEmployeeID *string    `gorm:"column:owner_employee_id"`
	ProjectID       int64      `gorm:"column:project_id;not null;index"`
	ProjectName     string     `gorm:"column:project_name;not null"`
	Hours           float64    `gorm:"column:hours;type:numeric(5,2);not null"`
	StartDate       time.Time  `gorm:"column:start_date;type:date;not null"`
	EndDate         time.Time  `gorm:"column:end_date;type:date;not null"`
	Description     string     `gorm:"column:description"`
	Status          string     `gorm:"column:status;not null;default:pending"`
	ReviewedBy      *string    `gorm:"column:reviewed_by;type:uuid"`
	ReviewedAt      *time.Time `gorm:"column:reviewed_at"`
	ReviewNotes     *string    `gorm:"column:review_notes"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Entry) TableName() string { return "timesheet_entries" }
