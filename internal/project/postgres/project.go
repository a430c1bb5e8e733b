package postgres

import (
	"context"

	"gorm.io/gorm"

	accountdm "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel/account"
	projectdm "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel/project"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/project"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

var _ project.RepositoryAPI = (*ProjectRepository)(nil)

func (r *ProjectRepository) List(ctx context.Context, includeInactive bool) ([]*projectdm.Project, error) {
	var projects []*projectdm.Project
	q := r.db.WithContext(ctx).Order("name ASC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&projects).Error
	return projects, err
}

// ListForAccount returns active projects the account is assigned to or heads.
func (r *ProjectRepository) ListForAccount(ctx context.Context, accountID string) ([]*projectdm.Project, error) {
	db := r.db.WithContext(ctx)
	assigned := db.Model(&projectdm.ProjectAssignment{}).Select("project_id").Where("account_id = ?", accountID)
	headed := db.Model(&projectdm.DepartmentHead{}).Select("project_id").Where("account_id = ?", accountID)

	var projects []*projectdm.Project
	err := db.
		Where("is_active = ?", true).
		Where(db.Where("id IN (?)", assigned).Or("id IN (?)", headed)).
		Order("name ASC").
		Find(&projects).Error
	return projects, err
}

func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*projectdm.Project, error) {
	var p projectdm.Project
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepository) GetByName(ctx context.Context, name string) (*projectdm.Project, error) {
	var p projectdm.Project
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepository) Create(ctx context.Context, p *projectdm.Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ProjectRepository) Update(ctx context.Context, p *projectdm.Project) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *ProjectRepository) AccountExists(ctx context.Context, accountID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&accountdm.Profile{}).Where("id = ?", accountID).Count(&count).Error
	return count > 0, err
}

func (r *ProjectRepository) IsAssigned(ctx context.Context, projectID int64, accountID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&projectdm.ProjectAssignment{}).
		Where("project_id = ? AND account_id = ?", projectID, accountID).
		Count(&count).Error
	return count > 0, err
}

func (r *ProjectRepository) AddAssignment(ctx context.Context, a *projectdm.ProjectAssignment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *ProjectRepository) RemoveAssignment(ctx context.Context, projectID int64, accountID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("project_id = ? AND account_id = ?", projectID, accountID).
		Delete(&projectdm.ProjectAssignment{})
	return res.RowsAffected > 0, res.Error
}

func (r *ProjectRepository) ListAssignments(ctx context.Context, projectID int64) ([]project.Member, error) {
	return r.members(ctx, "project_assignments", projectID)
}

func (r *ProjectRepository) AddHead(ctx context.Context, h *projectdm.DepartmentHead) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *ProjectRepository) RemoveHead(ctx context.Context, projectID int64, accountID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("project_id = ? AND account_id = ?", projectID, accountID).
		Delete(&projectdm.DepartmentHead{})
	return res.RowsAffected > 0, res.Error
}

// ReplaceHeads deletes the current head set and inserts accountIDs in one
// transaction. It returns the ids that were not heads before.
func (r *ProjectRepository) ReplaceHeads(ctx context.Context, projectID int64, accountIDs []string, assignedBy string) ([]string, error) {
	var added []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current []string
		if err := tx.Model(&projectdm.DepartmentHead{}).
			Where("project_id = ?", projectID).
			Pluck("account_id", &current).Error; err != nil {
			return err
		}
		before := make(map[string]bool, len(current))
		for _, id := range current {
			before[id] = true
		}

		if err := tx.Where("project_id = ?", projectID).Delete(&projectdm.DepartmentHead{}).Error; err != nil {
			return err
		}
		if len(accountIDs) == 0 {
			return nil
		}

		rows := make([]projectdm.DepartmentHead, 0, len(accountIDs))
		for _, id := range accountIDs {
			by := assignedBy
			rows = append(rows, projectdm.DepartmentHead{ProjectID: projectID, AccountID: id, AssignedBy: &by})
			if !before[id] {
				added = append(added, id)
			}
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

func (r *ProjectRepository) ListHeads(ctx context.Context, projectID int64) ([]project.Member, error) {
	return r.members(ctx, "department_heads", projectID)
}

func (r *ProjectRepository) members(ctx context.Context, table string, projectID int64) ([]project.Member, error) {
	var members []project.Member
	err := r.db.WithContext(ctx).
		Table(table+" AS m").
		Select("m.project_id, m.account_id, p.display_name, p.employee_id, m.assigned_by, m.assigned_at").
		Joins("JOIN profiles p ON p.id = m.account_id").
		Where("m.project_id = ?", projectID).
		Order("p.display_name ASC").
		Scan(&members).Error
	return members, err
}
