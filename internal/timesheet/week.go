package timesheet

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/common/validation"
)

// WeekStart returns the Monday (UTC midnight) of the ISO week containing t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// ParseWeekStart parses a YYYY-MM-DD date that must fall on a Monday.
func ParseWeekStart(value string) (time.Time, *internal.AppError) {
	t, err := validation.ParseDate("week_start", value)
	if err != nil {
		return time.Time{}, err
	}
	if t.Weekday() != time.Monday {
		return time.Time{}, internal.NewValidationFieldError("week_start", "week_start must be a Monday", internal.ErrCodeInvalidDate)
	}
	return t, nil
}

// weekCell is one non-zero hour cell of a weekly submission.
type weekCell struct {
	project     string
	description string
	date        time.Time
	hours       float64
}

// expandWeek validates the grid and flattens it into cells ordered by date
// then row. Zero cells are skipped; every day must total 24h or less.
func expandWeek(weekStart time.Time, rows []DraftRow) ([]weekCell, *internal.AppError) {
	weekEnd := weekStart.AddDate(0, 0, 7)
	totals := make(map[string]int64)
	var cells []weekCell

	for i, row := range rows {
		project := strings.TrimSpace(row.Project)
		dates := make([]string, 0, len(row.Hours))
		for d := range row.Hours {
			dates = append(dates, d)
		}
		sort.Strings(dates)

		for _, d := range dates {
			h := row.Hours[d]
			if h == 0 {
				continue
			}
			field := fmt.Sprintf("rows[%d].hours[%s]", i, d)
			date, err := validation.ParseDate(field, d)
			if err != nil {
				return nil, err
			}
			if date.Before(weekStart) || !date.Before(weekEnd) {
				return nil, internal.NewValidationFieldError(field, fmt.Sprintf("%s is outside the week starting %s", d, weekStart.Format(DateLayout)), internal.ErrCodeInvalidDate)
			}
			if err := validation.ValidateHours(h); err != nil {
				return nil, err
			}
			if project == "" {
				return nil, internal.NewValidationFieldError(fmt.Sprintf("rows[%d].project", i), "project is required", internal.ErrCodeValidationFailed)
			}
			totals[d] += validation.HoursInCents(h)
			cells = append(cells, weekCell{project: project, description: row.Description, date: date, hours: h})
		}
	}

	days := make([]string, 0, len(totals))
	for d := range totals {
		days = append(days, d)
	}
	sort.Strings(days)
	for _, d := range days {
		if totals[d] > validation.HoursInCents(validation.MaxHoursPerDay) {
			return nil, internal.NewValidationFieldError("hours", fmt.Sprintf("Total hours for %s exceed 24", d), internal.ErrCodeInvalidHours)
		}
	}

	if len(cells) == 0 {
		return nil, internal.NewValidationError("No hours to submit", internal.ErrCodeInvalidHours)
	}

	sort.SliceStable(cells, func(a, b int) bool { return cells[a].date.Before(cells[b].date) })
	return cells, nil
}
