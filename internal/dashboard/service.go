package dashboard

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/auth"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/timesheet"
)

// RepositoryAPI runs the aggregation queries. excluded holds lower-cased
// project names and may be empty.
type RepositoryAPI interface {
	ApprovedTotals(ctx context.Context, scope Scope, excluded []string) (Totals, error)
	ProjectTotals(ctx context.Context, scope Scope, excluded []string) ([]ProjectTotal, error)
	TopAccounts(ctx context.Context, scope Scope, excluded []string, limit int) ([]AccountTotal, error)
	// DailyHours sums pending and approved hours per start date in [from, to).
	DailyHours(ctx context.Context, scope Scope, from, to time.Time) ([]DayTotal, error)
}

type ServiceAPI interface {
	Summary(ctx context.Context, sess *auth.Session) (*Summary, error)
}

type Service struct {
	repo     RepositoryAPI
	excluded []string
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo RepositoryAPI, cfg internal.DashboardConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	excluded := make([]string, 0, len(cfg.ExcludedProjects))
	for _, name := range cfg.ExcludedProjects {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			excluded = append(excluded, name)
		}
	}
	return &Service{repo: repo, excluded: excluded, logger: logger, now: time.Now}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Summary(ctx context.Context, sess *auth.Session) (*Summary, error) {
	if sess == nil || sess.AccountID == "" {
		return nil, internal.ErrMissingToken
	}
	scope := Scope{All: sess.IsAdmin(), OwnerID: sess.AccountID}

	totals, err := s.repo.ApprovedTotals(ctx, scope, s.excluded)
	if err != nil {
		return nil, internal.NewInternalError("failed to aggregate approved hours", err)
	}
	projects, err := s.repo.ProjectTotals(ctx, scope, s.excluded)
	if err != nil {
		return nil, internal.NewInternalError("failed to aggregate project hours", err)
	}
	top, err := s.repo.TopAccounts(ctx, scope, s.excluded, TopAccountsMax)
	if err != nil {
		return nil, internal.NewInternalError("failed to aggregate account hours", err)
	}

	currentWeek := timesheet.WeekStart(s.now())
	first := currentWeek.AddDate(0, 0, -7*(TrendWeeks-1))
	days, err := s.repo.DailyHours(ctx, scope, first, currentWeek.AddDate(0, 0, 7))
	if err != nil {
		return nil, internal.NewInternalError("failed to aggregate weekly hours", err)
	}
	trend := binWeeks(first, days)

	summary := &Summary{
		Scope:              "self",
		TotalApprovedHours: round2(totals.Hours),
		ProjectCount:       totals.Projects,
		AccountCount:       totals.Accounts,
		CurrentWeekHours:   trend[len(trend)-1].Hours,
		Projects:           nonNil(projects),
		TopAccounts:        nonNil(top),
		WeeklyTrend:        trend,
	}
	if scope.All {
		summary.Scope = "all"
	}
	for i := range summary.Projects {
		summary.Projects[i].Hours = round2(summary.Projects[i].Hours)
	}
	for i := range summary.TopAccounts {
		summary.TopAccounts[i].Hours = round2(summary.TopAccounts[i].Hours)
	}

	s.logger.Debug("dashboard computed", "account_id", sess.AccountID, "scope", summary.Scope)
	return summary, nil
}

// binWeeks folds day totals into TrendWeeks contiguous 7-day buckets starting
// at first. Days outside the window are dropped.
func binWeeks(first time.Time, days []DayTotal) []WeekBucket {
	buckets := make([]WeekBucket, TrendWeeks)
	for i := range buckets {
		buckets[i].WeekStart = first.AddDate(0, 0, 7*i).Format(timesheet.DateLayout)
	}
	for _, d := range days {
		day := time.Date(d.Day.Year(), d.Day.Month(), d.Day.Day(), 0, 0, 0, 0, time.UTC)
		offset := int(day.Sub(first).Hours()) / 24
		if offset < 0 {
			continue
		}
		idx := offset / 7
		if idx >= TrendWeeks {
			continue
		}
		buckets[idx].Hours += d.Hours
	}
	for i := range buckets {
		buckets[i].Hours = round2(buckets[i].Hours)
	}
	return buckets
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
