package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/auth"
	notificationdm "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel/notification"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/metrics"
)

type RepositoryAPI interface {
	Create(ctx context.Context, n *notificationdm.Notification) error
	CreateBatch(ctx context.Context, rows []*notificationdm.Notification) error
	GetByID(ctx context.Context, id int64) (*notificationdm.Notification, error)
	ListForAccount(ctx context.Context, accountID string, unreadOnly bool, limit, offset int) ([]*notificationdm.Notification, error)
	CountUnread(ctx context.Context, accountID string) (int64, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context, accountID string) (int64, error)
	// AccountsMissingEmployeeID returns accounts with a NULL or blank employee
	// code that have no unread notification of the given type.
	AccountsMissingEmployeeID(ctx context.Context, skipUnreadType string) ([]string, error)
}

type ServiceAPI interface {
	List(ctx context.Context, sess *auth.Session, unreadOnly bool, limit, offset int) ([]*Notification, int64, error)
	UnreadCount(ctx context.Context, sess *auth.Session) (int64, error)
	MarkRead(ctx context.Context, sess *auth.Session, id int64) error
	MarkAllRead(ctx context.Context, sess *auth.Session) (int64, error)
	NotifyMissingEmployeeCode(ctx context.Context) (int, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

func (s *Service) List(ctx context.Context, sess *auth.Session, unreadOnly bool, limit, offset int) ([]*Notification, int64, error) {
	if sess == nil {
		return nil, 0, internal.ErrMissingToken
	}
	rows, err := s.repo.ListForAccount(ctx, sess.AccountID, unreadOnly, limit, offset)
	if err != nil {
		return nil, 0, internal.NewInternalError("failed to list notifications", err)
	}
	unread, err := s.repo.CountUnread(ctx, sess.AccountID)
	if err != nil {
		return nil, 0, internal.NewInternalError("failed to count notifications", err)
	}

	out := make([]*Notification, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromDataModel(r))
	}
	return out, unread, nil
}

func (s *Service) UnreadCount(ctx context.Context, sess *auth.Session) (int64, error) {
	if sess == nil {
		return 0, internal.ErrMissingToken
	}
	n, err := s.repo.CountUnread(ctx, sess.AccountID)
	if err != nil {
		return 0, internal.NewInternalError("failed to count notifications", err)
	}
	return n, nil
}

// MarkRead flags one notification as read. Rows the caller does not own are
// reported as not found, admins included.
func (s *Service) MarkRead(ctx context.Context, sess *auth.Session, id int64) error {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return internal.NewInternalError("failed to load notification", err)
	}
	if sess == nil || row.AccountID != sess.AccountID {
		return ErrNotificationNotFound
	}
	if row.IsRead {
		return nil
	}
	if err := s.repo.MarkRead(ctx, id); err != nil {
		return internal.NewInternalError("failed to update notification", err)
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, sess *auth.Session) (int64, error) {
	if sess == nil {
		return 0, internal.ErrMissingToken
	}
	n, err := s.repo.MarkAllRead(ctx, sess.AccountID)
	if err != nil {
		return 0, internal.NewInternalError("failed to update notifications", err)
	}
	return n, nil
}

// Notify inserts one notification on behalf of the system.
func (s *Service) Notify(ctx context.Context, accountID string, typ Type, title, message string, metadata map[string]interface{}) error {
	row, err := newRow(accountID, typ, title, message, metadata)
	if err != nil {
		return fmt.Errorf("encode notification metadata: %w", err)
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create notification", "error", err, "account_id", accountID, "type", typ)
		return err
	}
	metrics.NotificationsCreated.WithLabelValues(string(typ)).Inc()
	return nil
}

// NotifyMissingEmployeeCode reminds every account without an employee code,
// skipping those that still have an unread reminder.
func (s *Service) NotifyMissingEmployeeCode(ctx context.Context) (int, error) {
	ids, err := s.repo.AccountsMissingEmployeeID(ctx, string(TypeMissingEmployeeID))
	if err != nil {
		return 0, internal.NewInternalError("failed to find accounts", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	rows := make([]*notificationdm.Notification, 0, len(ids))
	for _, id := range ids {
		row, err := newRow(id, TypeMissingEmployeeID,
			"Employee ID required",
			"Your profile has no employee ID. Please ask an administrator to set it so your timesheets can be processed.",
			nil)
		if err != nil {
			return 0, internal.NewInternalError("failed to build notification", err)
		}
		rows = append(rows, row)
	}

	if err := s.repo.CreateBatch(ctx, rows); err != nil {
		return 0, internal.NewInternalError("failed to create notifications", err)
	}

	metrics.NotificationsCreated.WithLabelValues(string(TypeMissingEmployeeID)).Add(float64(len(rows)))
	s.logger.Info("missing employee id reminders sent", "count", len(rows))
	return len(rows), nil
}
