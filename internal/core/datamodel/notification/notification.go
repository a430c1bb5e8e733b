package notification

import "time"

type Notification struct {
	ID        int64     `gorm:"primaryKey"`
	AccountID string    `gorm:"column:account_id;type:uuid;not null;index"`
	Title     string    `gorm:"column:title;not null"`
	Message   string    `gorm:"column:message;not null"`
	Type      string    `gorm:"column:type;not null"`
	IsRead    bool      `gorm:"column:is_read;not null"`
	Metadata  string    `gorm:"column:metadata;type:jsonb"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Notification) TableName() string { return "notifications" }
