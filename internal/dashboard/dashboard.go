package dashboard

import "time"

const (
	TrendWeeks     = 8
	TopAccountsMax = 10
)

// Scope limits aggregation to one owner unless All is set.
type Scope struct {
	All     bool
	OwnerID string
}

type Totals struct {
	Hours    float64 `db:"hours"`
	Projects int     `db:"projects"`
	Accounts int     `db:"accounts"`
}

type ProjectTotal struct {
	ProjectID   int64   `db:"project_id" json:"project_id"`
	ProjectName string  `db:"project_name" json:"project_name"`
	Hours       float64 `db:"hours" json:"hours"`
}

type AccountTotal struct {
	AccountID   string  `db:"owner_id" json:"account_id"`
	DisplayName string  `db:"owner_name" json:"display_name"`
	Hours       float64 `db:"hours" json:"hours"`
}

// DayTotal is the hours whose entries start on Day.
type DayTotal struct {
	Day   time.Time `db:"day"`
	Hours float64   `db:"hours"`
}

type WeekBucket struct {
	WeekStart string  `json:"week_start"`
	Hours     float64 `json:"hours"`
}

type Summary struct {
	Scope              string         `json:"scope"`
	TotalApprovedHours float64        `json:"total_approved_hours"`
	ProjectCount       int            `json:"project_count"`
	AccountCount       int            `json:"account_count"`
	CurrentWeekHours   float64        `json:"current_week_hours"`
	Projects           []ProjectTotal `json:"projects"`
	TopAccounts        []AccountTotal `json:"top_accounts"`
	WeeklyTrend        []WeekBucket   `json:"weekly_trend"`
}
