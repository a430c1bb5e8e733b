// Package datamodel groups the gorm row structs of every table.
package datamodel

import (
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel/account"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel/notification"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel/project"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel/timesheet"
)

// All lists every row model in dependency order. The SQL migrations are the
// source of truth for PostgreSQL; this list drives AutoMigrate for SQLite specs.
func All() []interface{} {
	return []interface{}{
		&account.Credential{},
		&account.Profile{},
		&account.UserRole{},
		&project.Project{},
		&project.ProjectAssignment{},
		&project.DepartmentHead{},
		&timesheet.Entry{},
		&notification.Notification{},
	}
}
