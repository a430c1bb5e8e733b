package timesheet

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/auth"
	timesheetdm "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel/timesheet"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/events"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/metrics"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/project"
)

type RepositoryAPI interface {
	Create(ctx context.Context, e *timesheetdm.Entry) error
	// CreateBatch inserts all rows in one transaction.
	CreateBatch(ctx context.Context, rows []*timesheetdm.Entry) error
	GetByID(ctx context.Context, id int64) (*timesheetdm.Entry, error)
	List(ctx context.Context, scope auth.TimesheetScope, filter ListFilter) ([]*timesheetdm.Entry, error)
	// Update and Delete apply only while the entry is in onlyIf, unless it is
	// empty. They report false when no row matched.
	Update(ctx context.Context, id int64, onlyIf Status, fields map[string]interface{}) (bool, error)
	// Transition moves id from one status to another, stamping the review
	// columns. It reports false when the entry was no longer in from.
	Transition(ctx context.Context, id int64, from, to Status, reviewedBy *string, reviewedAt *time.Time, notes *string) (bool, error)
	Delete(ctx context.Context, id int64, onlyIf Status) (bool, error)
	// OwnerSnapshot returns the display name and employee code copied onto new entries.
	OwnerSnapshot(ctx context.Context, accountID string) (string, *string, error)
}

// ProjectResolver maps a project name to an active project the caller may log against.
type ProjectResolver interface {
	ResolveLoggable(ctx context.Context, sess *auth.Session, name string) (*project.Project, error)
}

type ServiceAPI interface {
	CreateEntry(ctx context.Context, sess *auth.Session, dto CreateEntryDTO) (*Entry, error)
	SubmitWeek(ctx context.Context, sess *auth.Session, dto WeekSubmissionDTO) ([]*Entry, error)
	GetDraft(ctx context.Context, sess *auth.Session, weekStart string) ([]DraftRow, error)
	SaveDraft(ctx context.Context, sess *auth.Session, weekStart string, rows []DraftRow) error
	DeleteDraft(ctx context.Context, sess *auth.Session, weekStart string) error

	List(ctx context.Context, sess *auth.Session, filter ListFilter) ([]*Entry, error)
	ListReviewable(ctx context.Context, sess *auth.Session, limit, offset int) ([]*Entry, error)
	Get(ctx context.Context, sess *auth.Session, id int64) (*Entry, error)
	Update(ctx context.Context, sess *auth.Session, id int64, dto UpdateEntryDTO) (*Entry, error)
	Delete(ctx context.Context, sess *auth.Session, id int64) error

	Approve(ctx context.Context, sess *auth.Session, id int64, dto ReviewDTO) (*Entry, error)
	Reject(ctx context.Context, sess *auth.Session, id int64, dto ReviewDTO) (*Entry, error)
	Reopen(ctx context.Context, sess *auth.Session, id int64) (*Entry, error)
}

type Service struct {
	repo        RepositoryAPI
	projects    ProjectResolver
	drafts      DraftStore
	publisher   events.Publisher
	policy      auth.Policy
	allowReopen bool
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(repo RepositoryAPI, projects ProjectResolver, drafts DraftStore, publisher events.Publisher, approval internal.ApprovalConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if drafts == nil {
		drafts = NewMemoryDraftStore()
	}
	return &Service{
		repo:        repo,
		projects:    projects,
		drafts:      drafts,
		publisher:   publisher,
		policy:      auth.NewPolicy(),
		allowReopen: approval.AllowReopen,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *Service) CreateEntry(ctx context.Context, sess *auth.Session, dto CreateEntryDTO) (*Entry, error) {
	if err := s.policy.Authorize(sess, auth.Resource{Kind: auth.KindTimesheet, OwnerID: sessionAccount(sess)}, auth.OpInsert); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	p, err := s.projects.ResolveLoggable(ctx, sess, dto.Project)
	if err != nil {
		return nil, err
	}
	name, employeeID, err := s.repo.OwnerSnapshot(ctx, sess.AccountID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load profile", err)
	}

	row := &timesheetdm.Entry{
		OwnerID:         sess.AccountID,
		OwnerName:       name,
		OwnerEmployeeID: employeeID,
		ProjectID:       p.ID,
		ProjectName:     p.Name,
		Hours:           dto.Hours,
		StartDate:       dto.start,
		EndDate:         dto.end,
		Description:     dto.Description,
		Status:          string(StatusPending),
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create timesheet entry", "error", err, "account_id", sess.AccountID)
		return nil, internal.NewInternalError("failed to create timesheet entry", err)
	}

	metrics.TimesheetEntriesCreated.WithLabelValues("single").Inc()
	s.logger.Info("timesheet entry created",
		"entry_id", row.ID,
		"account_id", sess.AccountID,
		"project", p.Name,
		"hours", dto.Hours)

	return FromDataModel(row), nil
}

// SubmitWeek turns a weekly grid into one single-day pending entry per
// non-zero cell, all in one transaction, and clears that week's draft.
func (s *Service) SubmitWeek(ctx context.Context, sess *auth.Session, dto WeekSubmissionDTO) ([]*Entry, error) {
	if err := s.policy.Authorize(sess, auth.Resource{Kind: auth.KindTimesheet, OwnerID: sessionAccount(sess)}, auth.OpInsert); err != nil {
		return nil, err
	}
	weekStart, appErr := ParseWeekStart(dto.WeekStart)
	if appErr != nil {
		return nil, appErr
	}
	cells, appErr := expandWeek(weekStart, dto.Rows)
	if appErr != nil {
		return nil, appErr
	}

	resolved := make(map[string]*project.Project)
	for _, c := range cells {
		if _, ok := resolved[c.project]; ok {
			continue
		}
		p, err := s.projects.ResolveLoggable(ctx, sess, c.project)
		if err != nil {
			return nil, err
		}
		resolved[c.project] = p
	}

	name, employeeID, err := s.repo.OwnerSnapshot(ctx, sess.AccountID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load profile", err)
	}

	rows := make([]*timesheetdm.Entry, 0, len(cells))
	for _, c := range cells {
		p := resolved[c.project]
		rows = append(rows, &timesheetdm.Entry{
			OwnerID:         sess.AccountID,
			OwnerName:       name,
			OwnerEmployeeID: employeeID,
			ProjectID:       p.ID,
			ProjectName:     p.Name,
			Hours:           c.hours,
			StartDate:       c.date,
			EndDate:         c.date,
			Description:     c.description,
			Status:          string(StatusPending),
		})
	}

	if err := s.repo.CreateBatch(ctx, rows); err != nil {
		s.logger.Error("failed to submit week", "error", err, "account_id", sess.AccountID, "week_start", dto.WeekStart)
		return nil, internal.NewInternalError("failed to submit week", err)
	}
	metrics.TimesheetEntriesCreated.WithLabelValues("week").Add(float64(len(rows)))

	if err := s.drafts.Delete(ctx, sess.AccountID, weekStart); err != nil {
		s.logger.Warn("failed to clear submitted draft", "error", err, "account_id", sess.AccountID, "week_start", dto.WeekStart)
	}

	s.logger.Info("week submitted", "account_id", sess.AccountID, "week_start", dto.WeekStart, "entries", len(rows))
	return FromDataModelSlice(rows), nil
}

func (s *Service) GetDraft(ctx context.Context, sess *auth.Session, weekStart string) ([]DraftRow, error) {
	week, err := s.draftWeek(sess, weekStart)
	if err != nil {
		return nil, err
	}
	rows, derr := s.drafts.Get(ctx, sess.AccountID, week)
	if derr != nil {
		return nil, internal.NewInternalError("failed to load draft", derr)
	}
	if rows == nil {
		rows = []DraftRow{}
	}
	return rows, nil
}

func (s *Service) SaveDraft(ctx context.Context, sess *auth.Session, weekStart string, rows []DraftRow) error {
	week, err := s.draftWeek(sess, weekStart)
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []DraftRow{}
	}
	if derr := s.drafts.Put(ctx, sess.AccountID, week, rows); derr != nil {
		return internal.NewInternalError("failed to save draft", derr)
	}
	return nil
}

func (s *Service) DeleteDraft(ctx context.Context, sess *auth.Session, weekStart string) error {
	week, err := s.draftWeek(sess, weekStart)
	if err != nil {
		return err
	}
	if derr := s.drafts.Delete(ctx, sess.AccountID, week); derr != nil {
		return internal.NewInternalError("failed to delete draft", derr)
	}
	return nil
}

func (s *Service) draftWeek(sess *auth.Session, weekStart string) (time.Time, error) {
	if sess == nil {
		return time.Time{}, internal.ErrMissingToken
	}
	week, err := ParseWeekStart(weekStart)
	if err != nil {
		return time.Time{}, err
	}
	return week, nil
}

func (s *Service) List(ctx context.Context, sess *auth.Session, filter ListFilter) ([]*Entry, error) {
	if sess == nil {
		return nil, internal.ErrMissingToken
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, internal.NewValidationFieldError("status", "status must be one of: pending, approved, rejected", internal.ErrCodeInvalidEntryStatus)
	}

	rows, err := s.repo.List(ctx, s.policy.TimesheetScope(sess), filter)
	if err != nil {
		return nil, internal.NewInternalError("failed to list timesheet entries", err)
	}
	return FromDataModelSlice(rows), nil
}

// ListReviewable returns pending entries the caller may approve or reject.
func (s *Service) ListReviewable(ctx context.Context, sess *auth.Session, limit, offset int) ([]*Entry, error) {
	if sess == nil {
		return nil, internal.ErrMissingToken
	}
	scope := auth.TimesheetScope{All: sess.IsAdmin(), ProjectIDs: sess.HeadProjectIDs}
	if !scope.All && len(scope.ProjectIDs) == 0 {
		return []*Entry{}, nil
	}

	rows, err := s.repo.List(ctx, scope, ListFilter{Status: StatusPending, Limit: limit, Offset: offset})
	if err != nil {
		return nil, internal.NewInternalError("failed to list timesheet entries", err)
	}
	return FromDataModelSlice(rows), nil
}

func (s *Service) Get(ctx context.Context, sess *auth.Session, id int64) (*Entry, error) {
	row, err := s.loadReadable(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

// Update edits hours and description. Hours change only while pending. The
// owner edits only while pending; admins and heads may fix the description
// of a reviewed entry.
func (s *Service) Update(ctx context.Context, sess *auth.Session, id int64, dto UpdateEntryDTO) (*Entry, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	row, err := s.loadReadable(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(sess, resourceOf(row), auth.OpUpdate); err != nil {
		return nil, err
	}

	reviewer := s.policy.CanReview(sess, row.ProjectID)
	if Status(row.Status) != StatusPending {
		if dto.Hours != nil {
			return nil, ErrHoursLocked
		}
		if !reviewer {
			return nil, ErrCannotModifyEntry
		}
	}
	var onlyIf Status
	if dto.Hours != nil || !reviewer {
		onlyIf = StatusPending
	}

	fields := make(map[string]interface{}, 2)
	if dto.Hours != nil {
		fields["hours"] = *dto.Hours
		row.Hours = *dto.Hours
	}
	if dto.Description != nil {
		fields["description"] = *dto.Description
		row.Description = *dto.Description
	}
	ok, err := s.repo.Update(ctx, id, onlyIf, fields)
	if err != nil {
		return nil, internal.NewInternalError("failed to update timesheet entry", err)
	}
	if !ok {
		switch {
		case onlyIf == "":
			return nil, ErrEntryNotFound
		case dto.Hours != nil:
			return nil, ErrHoursLocked
		default:
			return nil, ErrCannotModifyEntry
		}
	}

	s.logger.Info("timesheet entry updated", "entry_id", id, "by", sess.AccountID)
	return s.reload(ctx, row)
}

// Delete removes an entry. Owners delete while pending, admins at any status.
func (s *Service) Delete(ctx context.Context, sess *auth.Session, id int64) error {
	row, err := s.loadReadable(ctx, sess, id)
	if err != nil {
		return err
	}
	if s.policy.Evaluate(sess, resourceOf(row), auth.OpDelete) == auth.Deny {
		return ErrDeleteDenied
	}
	var onlyIf Status
	if !sess.IsAdmin() {
		if Status(row.Status) != StatusPending {
			return ErrCannotModifyEntry
		}
		onlyIf = StatusPending
	}

	ok, err := s.repo.Delete(ctx, id, onlyIf)
	if err != nil {
		return internal.NewInternalError("failed to delete timesheet entry", err)
	}
	if !ok {
		if onlyIf == "" {
			return ErrEntryNotFound
		}
		return ErrCannotModifyEntry
	}
	s.logger.Info("timesheet entry deleted", "entry_id", id, "by", sess.AccountID)
	return nil
}

func (s *Service) Approve(ctx context.Context, sess *auth.Session, id int64, dto ReviewDTO) (*Entry, error) {
	return s.review(ctx, sess, id, StatusApproved, dto.Notes)
}

func (s *Service) Reject(ctx context.Context, sess *auth.Session, id int64, dto ReviewDTO) (*Entry, error) {
	return s.review(ctx, sess, id, StatusRejected, dto.Notes)
}

func (s *Service) review(ctx context.Context, sess *auth.Session, id int64, to Status, notes string) (*Entry, error) {
	row, err := s.loadReadable(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanReview(sess, row.ProjectID) {
		s.logger.Warn("review denied", "entry_id", id, "account_id", sess.AccountID)
		return nil, ErrReviewDenied
	}
	if Status(row.Status) != StatusPending {
		s.logger.Warn("cannot review entry in current status", "entry_id", id, "current_status", row.Status)
		return nil, ErrInvalidEntryStatus
	}

	reviewer := sess.AccountID
	at := s.now().UTC()
	var notesPtr *string
	if n := strings.TrimSpace(notes); n != "" {
		notesPtr = &n
	}

	ok, err := s.repo.Transition(ctx, id, StatusPending, to, &reviewer, &at, notesPtr)
	if err != nil {
		s.logger.Error("failed to review timesheet entry", "error", err, "entry_id", id)
		return nil, internal.NewInternalError("failed to review timesheet entry", err)
	}
	if !ok {
		return nil, ErrInvalidEntryStatus
	}

	row.Status = string(to)
	row.ReviewedBy, row.ReviewedAt, row.ReviewNotes = &reviewer, &at, notesPtr
	metrics.TimesheetReviews.WithLabelValues(string(to)).Inc()
	s.logger.Info("timesheet entry reviewed",
		"entry_id", id,
		"status", to,
		"reviewer", reviewer,
		"owner", row.OwnerID)

	s.publishReviewed(ctx, row, notes)
	return s.reload(ctx, row)
}

// Reopen moves a reviewed entry back to pending. It is refused unless
// approval.allow_reopen is set.
func (s *Service) Reopen(ctx context.Context, sess *auth.Session, id int64) (*Entry, error) {
	if !s.allowReopen {
		return nil, ErrReopenDisabled
	}
	row, err := s.loadReadable(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanReview(sess, row.ProjectID) {
		return nil, ErrReviewDenied
	}
	from := Status(row.Status)
	if !from.Reviewed() {
		return nil, ErrNotReviewed
	}

	ok, err := s.repo.Transition(ctx, id, from, StatusPending, nil, nil, nil)
	if err != nil {
		return nil, internal.NewInternalError("failed to reopen timesheet entry", err)
	}
	if !ok {
		return nil, ErrNotReviewed
	}

	metrics.TimesheetReviews.WithLabelValues(string(StatusPending)).Inc()
	s.logger.Info("timesheet entry reopened", "entry_id", id, "from", from, "by", sess.AccountID)

	row.Status = string(StatusPending)
	row.ReviewedBy, row.ReviewedAt, row.ReviewNotes = nil, nil, nil
	return s.reload(ctx, row)
}

func (s *Service) publishReviewed(ctx context.Context, row *timesheetdm.Entry, notes string) {
	if s.publisher == nil {
		return
	}
	ev := events.NewTimesheetReviewedEvent(
		row.ID,
		row.OwnerID,
		*row.ReviewedBy,
		row.ProjectName,
		row.Hours,
		row.StartDate.Format(DateLayout),
		row.Status,
		strings.TrimSpace(notes),
	)
	if err := s.publisher.PublishSync(ctx, ev); err != nil {
		s.logger.Warn("review notification failed", "entry_id", row.ID, "error", err)
	}
}

// loadReadable loads id and hides entries the caller may not read.
func (s *Service) loadReadable(ctx context.Context, sess *auth.Session, id int64) (*timesheetdm.Entry, error) {
	if sess == nil {
		return nil, internal.ErrMissingToken
	}
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, internal.NewInternalError("failed to load timesheet entry", err)
	}
	if s.policy.Evaluate(sess, resourceOf(row), auth.OpRead) == auth.Deny {
		return nil, ErrEntryNotFound
	}
	return row, nil
}

// reload re-reads row after a write, falling back to the in-memory copy.
func (s *Service) reload(ctx context.Context, row *timesheetdm.Entry) (*Entry, error) {
	fresh, err := s.repo.GetByID(ctx, row.ID)
	if err != nil {
		s.logger.Warn("failed to reload timesheet entry", "entry_id", row.ID, "error", err)
		return FromDataModel(row), nil
	}
	return FromDataModel(fresh), nil
}

func resourceOf(row *timesheetdm.Entry) auth.Resource {
	return auth.Resource{Kind: auth.KindTimesheet, OwnerID: row.OwnerID, ProjectID: row.ProjectID}
}

func sessionAccount(sess *auth.Session) string {
	if sess == nil {
		return ""
	}
	return sess.AccountID
}
