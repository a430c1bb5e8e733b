package project

import "time"

type Project struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;uniqueIndex;not null"`
	Description string    `gorm:"column:description"`
	IsActive    bool      `gorm:"column:is_active;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Project) TableName() string { return "projects" }

type ProjectAssignment struct {
	ID         int64     `gorm:"primaryKey"`
	ProjectID  int64     `gorm:"column:project_id;not null;uniqueIndex:idx_assignment_project_account"`
	AccountID  string    `gorm:"column:account_id;type:uuid;not null;uniqueIndex:idx_assignment_project_account"`
	AssignedBy *string   `gorm:"column:assigned_by;type:uuid"`
	AssignedAt time.Time `gorm:"column:assigned_at;autoCreateTime"`
}

func (ProjectAssignment) TableName() string { return "project_assignments" }

type DepartmentHead struct {
	ID         int64     `gorm:"primaryKey"`
	ProjectID  int64     `gorm:"column:project_id;not null;uniqueIndex:idx_head_project_account"`
	AccountID  string    `gorm:"column:account_id;type:uuid;not null;uniqueIndex:idx_head_project_account"`
	AssignedBy *string   `gorm:"column:assigned_by;type:uuid"`
	AssignedAt time.Time `gorm:"column:assigned_at;autoCreateTime"`
}

func (DepartmentHead) TableName() string { return "department_heads" }
