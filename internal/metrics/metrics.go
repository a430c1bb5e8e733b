package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timekeeper_http_requests_total",
			Help: "Total number of HTTP requests by route, method and status",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "timekeeper_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	TimesheetEntriesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timekeeper_timesheet_entries_created_total",
			Help: "Total number of timesheet entries created by source",
		},
		[]string{"source"},
	)

	TimesheetReviews = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timekeeper_timesheet_reviews_total",
			Help: "Total number of timesheet review transitions by resulting status",
		},
		[]string{"status"},
	)

	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timekeeper_notifications_created_total",
			Help: "Total number of notifications created by type",
		},
		[]string{"type"},
	)

	AdminOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timekeeper_admin_operations_total",
			Help: "Total number of privileged operations by name and outcome",
		},
		[]string{"operation", "outcome"},
	)
)

// Outcome labels a privileged operation result.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
