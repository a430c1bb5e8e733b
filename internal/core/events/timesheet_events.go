package events

const (
	EventTypeTimesheetReviewed = "timesheet.reviewed"
)

// TimesheetReviewedEvent is emitted once per pending -> approved|rejected transition.
type TimesheetReviewedEvent struct {
	BaseEvent
	EntryID     int64   `json:"entry_id"`
	OwnerID     string  `json:"owner_id"`
	ReviewerID  string  `json:"reviewer_id"`
	ProjectName string  `json:"project_name"`
	Hours       float64 `json:"hours"`
	StartDate   string  `json:"start_date"`
	Status      string  `json:"status"`
	Notes       string  `json:"notes,omitempty"`
}

func NewTimesheetReviewedEvent(entryID int64, ownerID, reviewerID, projectName string, hours float64, startDate, status, notes string) *TimesheetReviewedEvent {
	return &TimesheetReviewedEvent{
		BaseEvent:   newBaseEvent(EventTypeTimesheetReviewed),
		EntryID:     entryID,
		OwnerID:     ownerID,
		ReviewerID:  reviewerID,
		ProjectName: projectName,
		Hours:       hours,
		StartDate:   startDate,
		Status:      status,
		Notes:       notes,
	}
}
