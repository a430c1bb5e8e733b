package project

import (
	"fmt"
	"strings"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/common/validation"
)

type CreateProjectDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

func (d *CreateProjectDTO) Validate() *internal.AppError {
	d.Name = strings.TrimSpace(d.Name)
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(200)
	v.Field("description", d.Description).MaxLength(2000)
	return v.Validate()
}

type UpdateProjectDTO struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

func (d *UpdateProjectDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	if d.Name != nil {
		trimmed := strings.TrimSpace(*d.Name)
		d.Name = &trimmed
		v.Field("name", trimmed).Required().MaxLength(200)
	}
	if d.Description != nil {
		v.Field("description", *d.Description).MaxLength(2000)
	}
	return v.Validate()
}

type MemberDTO struct {
	AccountID string `json:"account_id"`
}

func (d MemberDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("account_id", d.AccountID).Required().UUID()
	return v.Validate()
}

type ReplaceHeadsDTO struct {
	AccountIDs []string `json:"account_ids"`
}

// Validate checks every non-blank id; blank entries are skipped on replace.
func (d ReplaceHeadsDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	for i, id := range d.AccountIDs {
		v.Field(fmt.Sprintf("account_ids[%d]", i), strings.TrimSpace(id)).UUID()
	}
	return v.Validate()
}

type ProjectsResponse struct {
	Projects []*Project `json:"projects"`
}

type MembersResponse struct {
	Members []Member `json:"members"`
}
