package account

import (
	"strings"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/auth"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/common/validation"
)

type UpdateMeDTO struct {
	DisplayName *string `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
	Department  *string `json:"department"`
	EmployeeID  *string `json:"employee_id"`
}

func (d *UpdateMeDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	if d.DisplayName != nil {
		name := strings.TrimSpace(*d.DisplayName)
		d.DisplayName = &name
		v.Field("display_name", name).Required().MaxLength(200)
	}
	if d.Department != nil {
		v.Field("department", *d.Department).MaxLength(200)
	}
	if d.AvatarURL != nil {
		v.Field("avatar_url", *d.AvatarURL).MaxLength(2000)
	}
	return v.Validate()
}

type CreateAccountDTO struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	EmployeeID string `json:"employeeId"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

func (d *CreateAccountDTO) Validate() *internal.AppError {
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	d.EmployeeID = strings.TrimSpace(d.EmployeeID)
	d.Email = strings.TrimSpace(d.Email)

	v := validation.NewValidator()
	v.Field("email", d.Email).Required().Email()
	v.Field("password", d.Password).Required().MinLength(validation.MinPasswordLength, internal.ErrCodePasswordTooShort)
	v.Field("firstName", d.FirstName).Required().MaxLength(100)
	v.Field("lastName", d.LastName).MaxLength(100)
	return v.Validate()
}

func (d *CreateAccountDTO) FullName() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

type UpdateRoleDTO struct {
	Role string `json:"role"`
}

func (d *UpdateRoleDTO) Validate() *internal.AppError {
	d.Role = strings.TrimSpace(d.Role)
	v := validation.NewValidator()
	v.Field("role", d.Role).Required().OneOf(auth.AllRoles, internal.ErrCodeInvalidRole)
	return v.Validate()
}

type UpdatePasswordDTO struct {
	Password string `json:"password"`
}

func (d *UpdatePasswordDTO) Validate() *internal.AppError {
	return validation.ValidatePassword(d.Password)
}

// UpdateEmployeeIDDTO sets or clears an employee code. A missing, empty or
// blank value clears it.
type UpdateEmployeeIDDTO struct {
	EmployeeID *string `json:"employeeId"`
}

func (d *UpdateEmployeeIDDTO) Normalized() *string {
	return normalizeEmployeeID(d.EmployeeID)
}

func normalizeEmployeeID(code *string) *string {
	if code == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*code)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

type DirectoryResponse struct {
	Accounts []DirectoryEntry `json:"accounts"`
}

type RosterResponse struct {
	Success bool          `json:"success"`
	Users   []RosterEntry `json:"users"`
}
