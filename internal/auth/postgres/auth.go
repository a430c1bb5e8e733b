package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/auth"
	accountdm "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel/account"
	notificationdm "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel/notification"
	projectdm "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel/project"
	timesheetdm "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel/timesheet"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetCredentialByEmail(ctx context.Context, email string) (*accountdm.Credential, error) {
	var cred accountdm.Credential
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&cred).Error; err != nil {
		return nil, err
	}
	return &cred, nil
}

func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&accountdm.Credential{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// CreateAccount writes the credential, profile and role rows atomically.
func (r *Repository) CreateAccount(ctx context.Context, cred *accountdm.Credential, profile *accountdm.Profile, role *accountdm.UserRole) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(cred).Error; err != nil {
			return err
		}
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		return tx.Create(role).Error
	})
}

func (r *Repository) UpdatePasswordHash(ctx context.Context, accountID, hash string) error {
	res := r.db.WithContext(ctx).Model(&accountdm.Credential{}).
		Where("id = ?", accountID).
		Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteAccount removes the credential and every row that references the account.
func (r *Repository) DeleteAccount(ctx context.Context, accountID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return DeleteAccountRows(tx, accountID)
	})
}

// DeleteAccountRows runs the cascade inside an existing transaction.
func DeleteAccountRows(tx *gorm.DB, accountID string) error {
	steps := []struct {
		model interface{}
		where string
	}{
		{&notificationdm.Notification{}, "account_id = ?"},
		{&projectdm.ProjectAssignment{}, "account_id = ?"},
		{&projectdm.DepartmentHead{}, "account_id = ?"},
		{&accountdm.UserRole{}, "account_id = ?"},
		{&timesheetdm.Entry{}, "owner_id = ?"},
		{&accountdm.Profile{}, "id = ?"},
		{&accountdm.Credential{}, "id = ?"},
	}
	for _, step := range steps {
		if err := tx.Where(step.where, accountID).Delete(step.model).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) LoadSession(ctx context.Context, accountID string) (*auth.Session, error) {
	db := r.db.WithContext(ctx)

	var profile accountdm.Profile
	if err := db.Select("id", "email").Where("id = ?", accountID).First(&profile).Error; err != nil {
		return nil, err
	}

	role := auth.RoleRegular
	var ur accountdm.UserRole
	err := db.Where("account_id = ?", accountID).First(&ur).Error
	switch {
	case err == nil:
		role = auth.Role(ur.Role)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	var heads []int64
	if err := db.Model(&projectdm.DepartmentHead{}).
		Where("account_id = ?", accountID).
		Order("project_id").
		Pluck("project_id", &heads).Error; err != nil {
		return nil, err
	}

	return &auth.Session{
		AccountID:      profile.ID,
		Email:          profile.Email,
		Role:           role,
		HeadProjectIDs: heads,
	}, nil
}
