package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/account"
	accountdm "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel/account"
	projectdm "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel/project"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

var _ account.RepositoryAPI = (*AccountRepository)(nil)

func (r *AccountRepository) GetProfile(ctx context.Context, accountID string) (*accountdm.Profile, error) {
	var p accountdm.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", accountID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *AccountRepository) UpdateProfile(ctx context.Context, accountID string, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&accountdm.Profile{}).
		Where("id = ?", accountID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *AccountRepository) EmployeeIDTaken(ctx context.Context, code, exceptID string) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&accountdm.Profile{}).Where("employee_id = ?", code)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *AccountRepository) GetRole(ctx context.Context, accountID string) (string, error) {
	var role accountdm.UserRole
	if err := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&role).Error; err != nil {
		return "", err
	}
	return role.Role, nil
}

func (r *AccountRepository) UpsertRole(ctx context.Context, accountID, role string) error {
	row := &accountdm.UserRole{AccountID: accountID, Role: role}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
	}).Create(row).Error
}

func (r *AccountRepository) ListProfiles(ctx context.Context) ([]*accountdm.Profile, error) {
	var profiles []*accountdm.Profile
	err := r.db.WithContext(ctx).Order("display_name ASC, id ASC").Find(&profiles).Error
	return profiles, err
}

func (r *AccountRepository) ListRoles(ctx context.Context) ([]*accountdm.UserRole, error) {
	var roles []*accountdm.UserRole
	err := r.db.WithContext(ctx).Find(&roles).Error
	return roles, err
}

func (r *AccountRepository) ListAssignments(ctx context.Context) ([]account.AssignmentRow, error) {
	var rows []account.AssignmentRow
	err := r.db.WithContext(ctx).
		Model(&projectdm.ProjectAssignment{}).
		Select("project_assignments.account_id AS account_id, projects.id AS project_id, projects.name AS project_name").
		Joins("JOIN projects ON projects.id = project_assignments.project_id").
		Order("projects.name ASC").
		Scan(&rows).Error
	return rows, err
}
