package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/auth"
	accountdm "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel/account"
	timesheetdm "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel/timesheet"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/timesheet"
)

// TimesheetRepository implements timesheet.RepositoryAPI using GORM
type TimesheetRepository struct {
	db *gorm.DB
}

func NewTimesheetRepository(db *gorm.DB) *TimesheetRepository {
	return &TimesheetRepository{db: db}
}

var _ timesheet.RepositoryAPI = (*TimesheetRepository)(nil)

func (r *TimesheetRepository) Create(ctx context.Context, e *timesheetdm.Entry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *TimesheetRepository) CreateBatch(ctx context.Context, rows []*timesheetdm.Entry) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			if err := tx.Create(row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *TimesheetRepository) GetByID(ctx context.Context, id int64) (*timesheetdm.Entry, error) {
	var e timesheetdm.Entry
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// List applies the caller's read scope and the filter. Rows come back newest
// start date first.
func (r *TimesheetRepository) List(ctx context.Context, scope auth.TimesheetScope, f timesheet.ListFilter) ([]*timesheetdm.Entry, error) {
	var rows []*timesheetdm.Entry
	q := r.db.WithContext(ctx).Model(&timesheetdm.Entry{})

	if !scope.All {
		switch {
		case scope.OwnerID != "" && len(scope.ProjectIDs) > 0:
			q = q.Where("owner_id = ? OR project_id IN ?", scope.OwnerID, scope.ProjectIDs)
		case scope.OwnerID != "":
			q = q.Where("owner_id = ?", scope.OwnerID)
		case len(scope.ProjectIDs) > 0:
			q = q.Where("project_id IN ?", scope.ProjectIDs)
		default:
			return rows, nil
		}
	}

	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.ProjectID != 0 {
		q = q.Where("project_id = ?", f.ProjectID)
	}
	if f.OwnerID != "" {
		q = q.Where("owner_id = ?", f.OwnerID)
	}
	if f.From != nil {
		q = q.Where("start_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("start_date <= ?", *f.To)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}

	err := q.Order("start_date DESC").Order("id DESC").Find(&rows).Error
	return rows, err
}

func (r *TimesheetRepository) Update(ctx context.Context, id int64, onlyIf timesheet.Status, fields map[string]interface{}) (bool, error) {
	if len(fields) == 0 {
		return true, nil
	}
	q := r.db.WithContext(ctx).Model(&timesheetdm.Entry{}).Where("id = ?", id)
	if onlyIf != "" {
		q = q.Where("status = ?", string(onlyIf))
	}
	res := q.Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *TimesheetRepository) Transition(ctx context.Context, id int64, from, to timesheet.Status, reviewedBy *string, reviewedAt *time.Time, notes *string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&timesheetdm.Entry{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]interface{}{
			"status":       string(to),
			"reviewed_by":  reviewedBy,
			"reviewed_at":  reviewedAt,
			"review_notes": notes,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *TimesheetRepository) Delete(ctx context.Context, id int64, onlyIf timesheet.Status) (bool, error) {
	q := r.db.WithContext(ctx).Where("id = ?", id)
	if onlyIf != "" {
		q = q.Where("status = ?", string(onlyIf))
	}
	res := q.Delete(&timesheetdm.Entry{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *TimesheetRepository) OwnerSnapshot(ctx context.Context, accountID string) (string, *string, error) {
	var p accountdm.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", accountID).First(&p).Error; err != nil {
		return "", nil, err
	}
	name := p.DisplayName
	if name == "" {
		name = p.FullName
	}
	if name == "" {
		name = p.Email
	}
	return name, p.EmployeeID, nil
}
