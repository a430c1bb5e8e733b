package postgres

import (
	"context"

	"gorm.io/gorm"

	accountdm "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel/account"
	notificationdm "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel/notification"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/notification"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

var _ notification.RepositoryAPI = (*NotificationRepository)(nil)

func (r *NotificationRepository) Create(ctx context.Context, n *notificationdm.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationRepository) CreateBatch(ctx context.Context, rows []*notificationdm.Notification) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, 200).Error
}

func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*notificationdm.Notification, error) {
	var n notificationdm.Notification
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NotificationRepository) ListForAccount(ctx context.Context, accountID string, unreadOnly bool, limit, offset int) ([]*notificationdm.Notification, error) {
	var rows []*notificationdm.Notification
	q := r.db.WithContext(ctx).Where("account_id = ?", accountID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	err := q.Order("created_at DESC").Order("id DESC").Find(&rows).Error
	return rows, err
}

func (r *NotificationRepository) CountUnread(ctx context.Context, accountID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&notificationdm.Notification{}).
		Where("account_id = ? AND is_read = ?", accountID, false).
		Count(&n).Error
	return n, err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&notificationdm.Notification{}).
		Where("id = ?", id).
		Update("is_read", true).Error
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, accountID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&notificationdm.Notification{}).
		Where("account_id = ? AND is_read = ?", accountID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *NotificationRepository) AccountsMissingEmployeeID(ctx context.Context, skipUnreadType string) ([]string, error) {
	db := r.db.WithContext(ctx)
	pending := db.Model(&notificationdm.Notification{}).
		Select("account_id").
		Where("type = ? AND is_read = ?", skipUnreadType, false)

	var ids []string
	err := db.Model(&accountdm.Profile{}).
		Where("employee_id IS NULL OR TRIM(employee_id) = ''").
		Where("id NOT IN (?)", pending).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}
