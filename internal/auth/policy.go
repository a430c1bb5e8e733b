package auth

import "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal"

type ResourceKind string

const (
	KindTimesheet         ResourceKind = "timesheet"
	KindProfile           ResourceKind = "profile"
	KindProject           ResourceKind = "project"
	KindProjectAssignment ResourceKind = "project_assignment"
	KindDepartmentHead    ResourceKind = "department_head"
	KindRole              ResourceKind = "role"
	KindNotification      ResourceKind = "notification"
)

type Operation string

const (
	OpRead   Operation = "read"
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

// Resource describes the row being accessed. ProjectID is zero for kinds
// that are not project scoped.
type Resource struct {
	Kind      ResourceKind
	OwnerID   string
	ProjectID int64
}

// Policy is the row-level access table. It is a pure function of its inputs.
type Policy struct{}

func NewPolicy() Policy { return Policy{} }

func (Policy) Evaluate(s *Session, res Resource, op Operation) Decision {
	if s == nil || s.AccountID == "" {
		return Deny
	}
	if s.IsAdmin() {
		return Allow
	}

	owner := res.OwnerID != "" && res.OwnerID == s.AccountID

	switch res.Kind {
	case KindTimesheet:
		if owner {
			return Allow
		}
		if res.ProjectID != 0 && s.HeadsProject(res.ProjectID) {
			return Decision(op == OpRead || op == OpUpdate)
		}
	case KindProfile:
		if op == OpRead {
			return Allow
		}
		return Decision(owner && op == OpUpdate)
	case KindProject, KindDepartmentHead:
		return Decision(op == OpRead)
	case KindProjectAssignment, KindRole:
		return Decision(owner && op == OpRead)
	case KindNotification:
		return Decision(owner && op != OpInsert)
	}
	return Deny
}

// Authorize is Evaluate returning ErrAccessDenied on deny.
func (p Policy) Authorize(s *Session, res Resource, op Operation) error {
	if p.Evaluate(s, res, op) == Allow {
		return nil
	}
	return internal.ErrAccessDenied
}

// CanReview reports whether s may approve or reject entries of projectID.
func (Policy) CanReview(s *Session, projectID int64) bool {
	return s.IsAdmin() || s.HeadsProject(projectID)
}

// TimesheetScope is the read predicate on timesheets expressed as a list filter.
type TimesheetScope struct {
	All        bool
	OwnerID    string
	ProjectIDs []int64
}

func (Policy) TimesheetScope(s *Session) TimesheetScope {
	if s == nil {
		return TimesheetScope{}
	}
	if s.IsAdmin() {
		return TimesheetScope{All: true}
	}
	ids := make([]int64, len(s.HeadProjectIDs))
	copy(ids, s.HeadProjectIDs)
	return TimesheetScope{OwnerID: s.AccountID, ProjectIDs: ids}
}
