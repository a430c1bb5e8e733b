package notification

import (
	"encoding/json"
	"time"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal"
	notificationdm "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel/notification"
)

type Type string

const (
	TypeTimesheetApproved      Type = "timesheet_approved"
	TypeTimesheetRejected      Type = "timesheet_rejected"
	TypeProjectAssigned        Type = "project_assigned"
	TypeDepartmentHeadAssigned Type = "department_head_assigned"
	TypeRoleChanged            Type = "role_changed"
	TypeMissingEmployeeID      Type = "missing_employee_id"
)

type Notification struct {
	ID        int64           `json:"id"`
	AccountID string          `json:"account_id"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Type      Type            `json:"type"`
	IsRead    bool            `json:"is_read"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

var ErrNotificationNotFound = internal.NewNotFoundError("Notification not found", internal.ErrCodeNotificationNotFound)

func FromDataModel(n *notificationdm.Notification) *Notification {
	out := &Notification{
		ID:        n.ID,
		AccountID: n.AccountID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      Type(n.Type),
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
	if n.Metadata != "" && json.Valid([]byte(n.Metadata)) {
		out.Metadata = json.RawMessage(n.Metadata)
	}
	return out
}

// newRow builds an unread row. metadata is marshalled to JSON; nil becomes {}.
func newRow(accountID string, typ Type, title, message string, metadata map[string]interface{}) (*notificationdm.Notification, error) {
	meta := "{}"
	if len(metadata) > 0 {
		b, err := json.Marshal(metadata)
		if err != nil {
			return nil, err
		}
		meta = string(b)
	}
	return &notificationdm.Notification{
		AccountID: accountID,
		Title:     title,
		Message:   message,
		Type:      string(typ),
		Metadata:  meta,
	}, nil
}
