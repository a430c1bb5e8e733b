package project

import (
	"time"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal"
	projectdm "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel/project"
)

type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Member is an assignment or head row joined with the account's display data.
type Member struct {
	ProjectID   int64     `json:"project_id"`
	AccountID   string    `json:"account_id"`
	DisplayName string    `json:"display_name"`
	EmployeeID  *string   `json:"employee_id,omitempty"`
	AssignedBy  *string   `json:"assigned_by,omitempty"`
	AssignedAt  time.Time `json:"assigned_at"`
}

var (
	ErrProjectNotFound     = internal.NewNotFoundError("Project not found", internal.ErrCodeProjectNotFound)
	ErrAccountNotFound     = internal.NewNotFoundError("Account not found", internal.ErrCodeAccountNotFound)
	ErrDuplicateProject    = internal.NewConflictError("A project with this name already exists", internal.ErrCodeDuplicateProject)
	ErrDuplicateAssignment = internal.NewConflictError("User is already assigned to this project", internal.ErrCodeDuplicateAssign)
	ErrDuplicateHead       = internal.NewConflictError("User is already a department head for this project", internal.ErrCodeDuplicateAssign)
	ErrAssignmentNotFound  = internal.NewNotFoundError("Assignment not found", internal.ErrCodeProjectNotAssigned)
	ErrHeadNotFound        = internal.NewNotFoundError("Department head not found", internal.ErrCodeProjectNotAssigned)
	ErrProjectInactive     = internal.NewValidationError("Project is not active", internal.ErrCodeProjectInactive)
	ErrProjectNotAssigned  = internal.NewForbiddenError("You are not assigned to this project", internal.ErrCodeProjectNotAssigned)
)

func FromDataModel(p *projectdm.Project) *Project {
	return &Project{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func fromDataModels(in []*projectdm.Project) []*Project {
	out := make([]*Project, 0, len(in))
	for _, p := range in {
		out = append(out, FromDataModel(p))
	}
	return out
}
