package account

import "time"

type Credential struct {
	ID           string    `gorm:"primaryKey;type:uuid"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Credential) TableName() string { return "auth_credentials" }

type Profile struct {
	ID                string     `gorm:"primaryKey;type:uuid"`
	Email             string     `gorm:"column:email;not null"`
	DisplayName       string     `gorm:"column:display_name"`
	FullName          string     `gorm:"column:full_name"`
	EmployeeID        *string    `gorm:"column:employee_id"`
	AvatarURL         *string    `gorm:"column:avatar_url"`
	Department        *string    `gorm:"column:department"`
	PasswordChangedAt *time.Time `gorm:"column:password_changed_at"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Profile) TableName() string { return "profiles" }

type UserRole struct {
	ID        int64     `gorm:"primaryKey"`
	AccountID string    `gorm:"column:account_id;type:uuid;uniqueIndex;not null"`
	Role      string    `gorm:"column:role;not null;default:regular"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (UserRole) TableName() string { return "user_roles" }
