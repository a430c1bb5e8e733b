package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/events"
)

// Notifier is the write side of Service used by event handlers.
type Notifier interface {
	Notify(ctx context.Context, accountID string, typ Type, title, message string, metadata map[string]interface{}) error
}

type EventHandler struct {
	notifier Notifier
	logger   *slog.Logger
}

func NewEventHandler(notifier Notifier, logger *slog.Logger) *EventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventHandler{
		notifier: notifier,
		logger:   logger,
	}
}

func (h *EventHandler) HandleTimesheetReviewed(ctx context.Context, event events.Event) error {
	ev, ok := event.(*events.TimesheetReviewedEvent)
	if !ok {
		h.logger.Error("invalid event type for timesheet reviewed handler", "event_type", event.EventType())
		return fmt.Errorf("expected TimesheetReviewedEvent, got %T", event)
	}

	typ, title := TypeTimesheetApproved, "Timesheet approved"
	if ev.Status == "rejected" {
		typ, title = TypeTimesheetRejected, "Timesheet rejected"
	}
	message := fmt.Sprintf("Your %.2f hours on %s for %s were %s.", ev.Hours, ev.StartDate, ev.ProjectName, ev.Status)
	if ev.Notes != "" {
		message += " Notes: " + ev.Notes
	}

	meta := map[string]interface{}{
		"entry_id":    ev.EntryID,
		"reviewed_by": ev.ReviewerID,
		"status":      ev.Status,
	}
	if err := h.notifier.Notify(ctx, ev.OwnerID, typ, title, message, meta); err != nil {
		return fmt.Errorf("notify timesheet review for entry %d: %w", ev.EntryID, err)
	}
	return nil
}

func (h *EventHandler) HandleProjectGrant(ctx context.Context, event events.Event) error {
	ev, ok := event.(*events.ProjectGrantEvent)
	if !ok {
		h.logger.Error("invalid event type for project grant handler", "event_type", event.EventType())
		return fmt.Errorf("expected ProjectGrantEvent, got %T", event)
	}

	typ := TypeProjectAssigned
	title := "Assigned to project"
	message := fmt.Sprintf("You have been assigned to %s.", ev.ProjectName)
	if ev.EventType() == events.EventTypeProjectHeadAssigned {
		typ = TypeDepartmentHeadAssigned
		title = "Department head assignment"
		message = fmt.Sprintf("You are now a department head for %s and can review its timesheets.", ev.ProjectName)
	}

	meta := map[string]interface{}{"project_id": ev.ProjectID, "granted_by": ev.GrantedBy}
	return h.notifier.Notify(ctx, ev.AccountID, typ, title, message, meta)
}

func (h *EventHandler) HandleRoleChanged(ctx context.Context, event events.Event) error {
	ev, ok := event.(*events.RoleChangedEvent)
	if !ok {
		h.logger.Error("invalid event type for role changed handler", "event_type", event.EventType())
		return fmt.Errorf("expected RoleChangedEvent, got %T", event)
	}

	message := fmt.Sprintf("Your role has been changed from %s to %s.", ev.OldRole, ev.NewRole)
	meta := map[string]interface{}{"old_role": ev.OldRole, "new_role": ev.NewRole, "changed_by": ev.ChangedBy}
	return h.notifier.Notify(ctx, ev.AccountID, TypeRoleChanged, "Role updated", message, meta)
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeTimesheetReviewed, h.HandleTimesheetReviewed)
	eventBus.Subscribe(events.EventTypeProjectAssigned, h.HandleProjectGrant)
	eventBus.Subscribe(events.EventTypeProjectHeadAssigned, h.HandleProjectGrant)
	eventBus.Subscribe(events.EventTypeRoleChanged, h.HandleRoleChanged)

	h.logger.Info("notification event handlers registered",
		"handlers", []string{
			events.EventTypeTimesheetReviewed,
			events.EventTypeProjectAssigned,
			events.EventTypeProjectHeadAssigned,
			events.EventTypeRoleChanged,
		})
}
