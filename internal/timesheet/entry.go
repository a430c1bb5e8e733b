package timesheet

import (
	"time"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal"
	timesheetdm "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel/timesheet"
)

const DateLayout = "2006-01-02"

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Reviewed reports whether the entry has left pending.
func (s Status) Reviewed() bool {
	return s == StatusApproved || s == StatusRejected
}

type Entry struct {
	ID              int64      `json:"id"`
	OwnerID         string     `json:"owner_id"`
	OwnerName       string     `json:"owner_name"`
	OwnerEmployeeID *string    `json:"owner_employee_id,omitempty"`
	ProjectID       int64      `json:"project_id"`
	Project         string     `json:"project"`
	Hours           float64    `json:"hours"`
	StartDate       string     `json:"start_date"`
	EndDate         string     `json:"end_date"`
	Description     string     `json:"description"`
	Status          Status     `json:"status"`
	ReviewedBy      *string    `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	ReviewNotes     *string    `json:"review_notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

var (
	ErrEntryNotFound      = internal.NewNotFoundError("Timesheet entry not found", internal.ErrCodeEntryNotFound)
	ErrInvalidEntryStatus = internal.NewValidationError("Only pending entries can be reviewed", internal.ErrCodeInvalidEntryStatus)
	ErrNotReviewed        = internal.NewValidationError("Only approved or rejected entries can be reopened", internal.ErrCodeInvalidEntryStatus)
	ErrCannotModifyEntry  = internal.NewValidationError("Entry can no longer be modified", internal.ErrCodeCannotModifyEntry)
	ErrHoursLocked        = internal.NewValidationError("Hours cannot be changed after review", internal.ErrCodeHoursLocked)
	ErrReopenDisabled     = internal.NewValidationError("Reopening reviewed entries is disabled", internal.ErrCodeReopenDisabled)
	ErrReviewDenied       = internal.NewForbiddenError("Only an admin or a department head of this project can review this entry", internal.ErrCodeAccessDenied)
	ErrDeleteDenied       = internal.NewForbiddenError("You cannot delete this entry", internal.ErrCodeAccessDenied)
)

func FromDataModel(e *timesheetdm.Entry) *Entry {
	return &Entry{
		ID:              e.ID,
		OwnerID:         e.OwnerID,
		OwnerName:       e.OwnerName,
		OwnerEmployeeID: e.OwnerEmployeeID,
		ProjectID:       e.ProjectID,
		Project:         e.ProjectName,
		Hours:           e.Hours,
		StartDate:       e.StartDate.Format(DateLayout),
		EndDate:         e.EndDate.Format(DateLayout),
		Description:     e.Description,
		Status:          Status(e.Status),
		ReviewedBy:      e.ReviewedBy,
		ReviewedAt:      e.ReviewedAt,
		ReviewNotes:     e.ReviewNotes,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func FromDataModelSlice(rows []*timesheetdm.Entry) []*Entry {
	out := make([]*Entry, len(rows))
	for i, r := range rows {
		out[i] = FromDataModel(r)
	}
	return out
}
