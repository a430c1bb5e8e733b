package account

import (
	"time"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal"
	accountdm "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel/account"
)

type Account struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	DisplayName       string     `json:"display_name"`
	FullName          string     `json:"full_name"`
	EmployeeID        *string    `json:"employee_id"`
	AvatarURL         *string    `json:"avatar_url,omitempty"`
	Department        *string    `json:"department,omitempty"`
	PasswordChangedAt *time.Time `json:"password_changed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Me is the caller's own profile with the privileges the session carries.
type Me struct {
	Account
	Role           string  `json:"role"`
	HeadProjectIDs []int64 `json:"head_project_ids"`
}

// DirectoryEntry is the public-read slice of a profile used by pickers.
type DirectoryEntry struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	EmployeeID  *string `json:"employee_id"`
}

type ProjectRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RosterEntry is one row of the admin account listing.
type RosterEntry struct {
	ID                string       `json:"id"`
	Email             string       `json:"email"`
	DisplayName       string       `json:"displayName"`
	FullName          string       `json:"fullName"`
	EmployeeID        *string      `json:"employeeId"`
	Department        *string      `json:"department"`
	Role              string       `json:"role"`
	Projects          []ProjectRef `json:"projects"`
	PasswordChangedAt *time.Time   `json:"passwordChangedAt"`
	CreatedAt         time.Time    `json:"createdAt"`
}

// AssignmentRow is a project assignment joined to its project name.
type AssignmentRow struct {
	AccountID   string
	ProjectID   int64
	ProjectName string
}

var (
	ErrAccountNotFound     = internal.NewNotFoundError("User not found", internal.ErrCodeAccountNotFound)
	ErrDuplicateEmployeeID = internal.NewConflictError("Employee ID already exists", internal.ErrCodeDuplicateEmployeeID)
	ErrSelfDemotion        = internal.NewValidationError("You cannot remove your own admin role", internal.ErrCodeSelfDemotion)
	ErrSelfDelete          = internal.NewValidationError("You cannot delete your own account", internal.ErrCodeSelfDelete)
)

func FromDataModel(p *accountdm.Profile) *Account {
	return &Account{
		ID:                p.ID,
		Email:             p.Email,
		DisplayName:       p.DisplayName,
		FullName:          p.FullName,
		EmployeeID:        p.EmployeeID,
		AvatarURL:         p.AvatarURL,
		Department:        p.Department,
		PasswordChangedAt: p.PasswordChangedAt,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// buildRoster joins the three bulk reads in memory. Accounts without a role
// row are reported as regular.
func buildRoster(profiles []*accountdm.Profile, roles []*accountdm.UserRole, assignments []AssignmentRow) []RosterEntry {
	roleByAccount := make(map[string]string, len(roles))
	for _, r := range roles {
		roleByAccount[r.AccountID] = r.Role
	}
	projectsByAccount := make(map[string][]ProjectRef)
	for _, a := range assignments {
		projectsByAccount[a.AccountID] = append(projectsByAccount[a.AccountID], ProjectRef{ID: a.ProjectID, Name: a.ProjectName})
	}

	out := make([]RosterEntry, 0, len(profiles))
	for _, p := range profiles {
		role, ok := roleByAccount[p.ID]
		if !ok {
			role = "regular"
		}
		projects := projectsByAccount[p.ID]
		if projects == nil {
			projects = []ProjectRef{}
		}
		out = append(out, RosterEntry{
			ID:                p.ID,
			Email:             p.Email,
			DisplayName:       p.DisplayName,
			FullName:          p.FullName,
			EmployeeID:        p.EmployeeID,
			Department:        p.Department,
			Role:              role,
			Projects:          projects,
			PasswordChangedAt: p.PasswordChangedAt,
			CreatedAt:         p.CreatedAt,
		})
	}
	return out
}
