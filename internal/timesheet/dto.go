package timesheet

import (
	"strings"
	"time"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/common/validation"
)

type CreateEntryDTO struct {
	Project     string  `json:"project"`
	Hours       float64 `json:"hours"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	Description string  `json:"description"`

	start time.Time
	end   time.Time
}

// Validate checks the payload and parses its dates. An empty end_date means
// the entry covers a single day.
func (d *CreateEntryDTO) Validate() *internal.AppError {
	d.Project = strings.TrimSpace(d.Project)
	if d.EndDate == "" {
		d.EndDate = d.StartDate
	}

	v := validation.NewValidator()
	v.Field("project", d.Project).Required()
	v.Field("hours", d.Hours).Hours()
	v.Field("description", d.Description).MaxLength(2000)
	if err := v.Validate(); err != nil {
		return err
	}

	start, err := validation.ParseDate("start_date", d.StartDate)
	if err != nil {
		return err
	}
	end, err := validation.ParseDate("end_date", d.EndDate)
	if err != nil {
		return err
	}
	if err := validation.ValidateDateRange(start, end); err != nil {
		return err
	}
	d.start, d.end = start, end
	return nil
}

type UpdateEntryDTO struct {
	Hours       *float64 `json:"hours"`
	Description *string  `json:"description"`
}

func (d *UpdateEntryDTO) Validate() *internal.AppError {
	if d.Hours == nil && d.Description == nil {
		return internal.NewValidationError("Nothing to update", internal.ErrCodeValidationFailed)
	}
	v := validation.NewValidator()
	if d.Hours != nil {
		v.Field("hours", *d.Hours).Hours()
	}
	if d.Description != nil {
		v.Field("description", *d.Description).MaxLength(2000)
	}
	return v.Validate()
}

type ReviewDTO struct {
	Notes string `json:"notes"`
}

// DraftRow is one line of the weekly grid: a project, a description and
// hours keyed by YYYY-MM-DD.
type DraftRow struct {
	Project     string             `json:"project"`
	Description string             `json:"description"`
	Hours       map[string]float64 `json:"hours"`
}

type WeekSubmissionDTO struct {
	WeekStart string     `json:"week_start"`
	Rows      []DraftRow `json:"rows"`
}

type ListFilter struct {
	Status    Status
	ProjectID int64
	OwnerID   string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

type EntriesResponse struct {
	Entries []*Entry `json:"entries"`
}

type WeekSubmissionResponse struct {
	WeekStart string   `json:"week_start"`
	Entries   []*Entry `json:"entries"`
}
