// Package postgres runs the dashboard aggregations as plain SQL over sqlx so
// that SUM and GROUP BY happen in the database.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/dashboard"
)

const (
	statusApproved = "approved"
	statusPending  = "pending"
)

type DashboardRepository struct {
	db *sqlx.DB
}

func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

var _ dashboard.RepositoryAPI = (*DashboardRepository)(nil)

type filter struct {
	clauses []string
	args    []interface{}
}

func (f *filter) add(clause string, args ...interface{}) {
	f.clauses = append(f.clauses, clause)
	f.args = append(f.args, args...)
}

func (f *filter) where() string {
	if len(f.clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(f.clauses, " AND ")
}

func approvedFilter(scope dashboard.Scope, excluded []string) *filter {
	f := &filter{}
	f.add("status = ?", statusApproved)
	if !scope.All {
		f.add("owner_id = ?", scope.OwnerID)
	}
	if len(excluded) > 0 {
		f.add("LOWER(project_name) NOT IN (?)", excluded)
	}
	return f
}

// prepare expands IN lists and rebinds placeholders for the driver.
func (r *DashboardRepository) prepare(query string, args []interface{}) (string, []interface{}, error) {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, fmt.Errorf("expand query: %w", err)
	}
	return r.db.Rebind(query), args, nil
}

func (r *DashboardRepository) ApprovedTotals(ctx context.Context, scope dashboard.Scope, excluded []string) (dashboard.Totals, error) {
	f := approvedFilter(scope, excluded)
	query, args, err := r.prepare(`
		SELECT CAST(COALESCE(SUM(hours), 0) AS DOUBLE PRECISION) AS hours,
		       COUNT(DISTINCT project_id) AS projects,
		       COUNT(DISTINCT owner_id) AS accounts
		FROM timesheet_entries `+f.where(), f.args)
	if err != nil {
		return dashboard.Totals{}, err
	}

	var totals dashboard.Totals
	err = r.db.GetContext(ctx, &totals, query, args...)
	return totals, err
}

func (r *DashboardRepository) ProjectTotals(ctx context.Context, scope dashboard.Scope, excluded []string) ([]dashboard.ProjectTotal, error) {
	f := approvedFilter(scope, excluded)
	query, args, err := r.prepare(`
		SELECT project_id, project_name, CAST(SUM(hours) AS DOUBLE PRECISION) AS hours
		FROM timesheet_entries `+f.where()+`
		GROUP BY project_id, project_name
		ORDER BY hours DESC, project_name ASC`, f.args)
	if err != nil {
		return nil, err
	}

	var rows []dashboard.ProjectTotal
	err = r.db.SelectContext(ctx, &rows, query, args...)
	return rows, err
}

func (r *DashboardRepository) TopAccounts(ctx context.Context, scope dashboard.Scope, excluded []string, limit int) ([]dashboard.AccountTotal, error) {
	f := approvedFilter(scope, excluded)
	query, args, err := r.prepare(`
		SELECT owner_id, MAX(owner_name) AS owner_name, CAST(SUM(hours) AS DOUBLE PRECISION) AS hours
		FROM timesheet_entries `+f.where()+`
		GROUP BY owner_id
		ORDER BY hours DESC, owner_id ASC
		LIMIT ?`, append(f.args, limit))
	if err != nil {
		return nil, err
	}

	var rows []dashboard.AccountTotal
	err = r.db.SelectContext(ctx, &rows, query, args...)
	return rows, err
}

func (r *DashboardRepository) DailyHours(ctx context.Context, scope dashboard.Scope, from, to time.Time) ([]dashboard.DayTotal, error) {
	f := &filter{}
	f.add("status IN (?)", []string{statusPending, statusApproved})
	f.add("start_date >= ?", from)
	f.add("start_date < ?", to)
	if !scope.All {
		f.add("owner_id = ?", scope.OwnerID)
	}
	query, args, err := r.prepare(`
		SELECT start_date AS day, CAST(SUM(hours) AS DOUBLE PRECISION) AS hours
		FROM timesheet_entries `+f.where()+`
		GROUP BY start_date
		ORDER BY start_date`, f.args)
	if err != nil {
		return nil, err
	}

	var rows []dashboard.DayTotal
	err = r.db.SelectContext(ctx, &rows, query, args...)
	return rows, err
}
