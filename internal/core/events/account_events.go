package events

const (
	EventTypeRoleChanged         = "account.role_changed"
	EventTypeProjectAssigned     = "project.assigned"
	EventTypeProjectHeadAssigned = "project.head_assigned"
)

type RoleChangedEvent struct {
	BaseEvent
	AccountID string `json:"account_id"`
	OldRole   string `json:"old_role"`
	NewRole   string `json:"new_role"`
	ChangedBy string `json:"changed_by"`
}

func NewRoleChangedEvent(accountID, oldRole, newRole, changedBy string) *RoleChangedEvent {
	return &RoleChangedEvent{
		BaseEvent: newBaseEvent(EventTypeRoleChanged),
		AccountID: accountID,
		OldRole:   oldRole,
		NewRole:   newRole,
		ChangedBy: changedBy,
	}
}

// ProjectGrantEvent covers both member assignment and head assignment; Type tells them apart.
type ProjectGrantEvent struct {
	BaseEvent
	ProjectID   int64  `json:"project_id"`
	ProjectName string `json:"project_name"`
	AccountID   string `json:"account_id"`
	GrantedBy   string `json:"granted_by"`
}

func NewProjectAssignedEvent(projectID int64, projectName, accountID, grantedBy string) *ProjectGrantEvent {
	return &ProjectGrantEvent{
		BaseEvent:   newBaseEvent(EventTypeProjectAssigned),
		ProjectID:   projectID,
		ProjectName: projectName,
		AccountID:   accountID,
		GrantedBy:   grantedBy,
	}
}

func NewProjectHeadAssignedEvent(projectID int64, projectName, accountID, grantedBy string) *ProjectGrantEvent {
	return &ProjectGrantEvent{
		BaseEvent:   newBaseEvent(EventTypeProjectHeadAssigned),
		ProjectID:   projectID,
		ProjectName: projectName,
		AccountID:   accountID,
		GrantedBy:   grantedBy,
	}
}
