package dashboard_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/auth"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/dashboard"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/transport"
)

type mockRepository struct {
	scopes   []dashboard.Scope
	excluded []string
	from, to time.Time
	limit    int

	totals   dashboard.Totals
	projects []dashboard.ProjectTotal
	top      []dashboard.AccountTotal
	days     []dashboard.DayTotal
	err      error
}

func (m *mockRepository) ApprovedTotals(_ context.Context, scope dashboard.Scope, excluded []string) (dashboard.Totals, error) {
	m.scopes = append(m.scopes, scope)
	m.excluded = excluded
	return m.totals, m.err
}

func (m *mockRepository) ProjectTotals(_ context.Context, scope dashboard.Scope, _ []string) ([]dashboard.ProjectTotal, error) {
	m.scopes = append(m.scopes, scope)
	return m.projects, nil
}

func (m *mockRepository) TopAccounts(_ context.Context, scope dashboard.Scope, _ []string, limit int) ([]dashboard.AccountTotal, error) {
	m.scopes = append(m.scopes, scope)
	m.limit = limit
	return m.top, nil
}

func (m *mockRepository) DailyHours(_ context.Context, scope dashboard.Scope, from, to time.Time) ([]dashboard.DayTotal, error) {
	m.scopes = append(m.scopes, scope)
	m.from, m.to = from, to
	return m.days, nil
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	Expect(err).NotTo(HaveOccurred())
	return t
}

var _ = Describe("Dashboard Service", func() {
	var (
		repo    *mockRepository
		service *dashboard.Service
		ctx     context.Context
		lg      *slog.Logger

		// Wednesday
		now = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	)

	BeforeEach(func() {
		ctx = context.Background()
		lg = slog.New(slog.NewTextHandler(GinkgoWriter, &slog.HandlerOptions{Level: slog.LevelError}))
		repo = &mockRepository{
			totals: dashboard.Totals{Hours: 40.004, Projects: 2, Accounts: 3},
			days: []dashboard.DayTotal{
				{Day: day("2023-11-19"), Hours: 99},
				{Day: day("2023-11-20"), Hours: 2},
				{Day: day("2024-01-07"), Hours: 5},
				{Day: day("2024-01-08"), Hours: 8},
				{Day: day("2024-01-10"), Hours: 0.5},
			},
		}
		service = dashboard.NewService(repo, internal.DashboardConfig{ExcludedProjects: []string{" Leave", "HOLIDAY", ""}}, lg).
			WithClock(func() time.Time { return now })
	})

	It("scopes regular callers to themselves", func() {
		summary, err := service.Summary(ctx, &auth.Session{AccountID: "alice", Role: auth.RoleRegular})
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Scope).To(Equal("self"))
		for _, s := range repo.scopes {
			Expect(s).To(Equal(dashboard.Scope{OwnerID: "alice"}))
		}
	})

	It("aggregates everything for admins", func() {
		summary, err := service.Summary(ctx, &auth.Session{AccountID: "root", Role: auth.RoleAdmin})
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Scope).To(Equal("all"))
		Expect(repo.scopes[0].All).To(BeTrue())
	})

	It("passes lower-cased exclusions and the top-10 limit", func() {
		_, err := service.Summary(ctx, &auth.Session{AccountID: "alice"})
		Expect(err).NotTo(HaveOccurred())
		Expect(repo.excluded).To(Equal([]string{"leave", "holiday"}))
		Expect(repo.limit).To(Equal(10))
	})

	It("builds eight contiguous weeks ending with the current one", func() {
		summary, err := service.Summary(ctx, &auth.Session{AccountID: "alice"})
		Expect(err).NotTo(HaveOccurred())

		Expect(repo.from).To(Equal(day("2023-11-20")))
		Expect(repo.to).To(Equal(day("2024-01-15")))

		trend := summary.WeeklyTrend
		Expect(trend).To(HaveLen(8))
		for i := 1; i < len(trend); i++ {
			prev, cur := day(trend[i-1].WeekStart), day(trend[i].WeekStart)
			Expect(cur.Sub(prev)).To(Equal(7 * 24 * time.Hour))
		}
		Expect(trend[0].WeekStart).To(Equal("2023-11-20"))
		Expect(trend[0].Hours).To(Equal(2.0))
		Expect(trend[6].Hours).To(Equal(5.0))
		Expect(trend[7].WeekStart).To(Equal("2024-01-08"))
		Expect(trend[7].Hours).To(Equal(8.5))
		Expect(summary.CurrentWeekHours).To(Equal(8.5))
	})

	It("rounds totals and never returns null lists", func() {
		summary, err := service.Summary(ctx, &auth.Session{AccountID: "alice"})
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.TotalApprovedHours).To(Equal(40.0))
		Expect(summary.ProjectCount).To(Equal(2))
		Expect(summary.AccountCount).To(Equal(3))
		Expect(summary.Projects).NotTo(BeNil())
		Expect(summary.TopAccounts).NotTo(BeNil())
	})

	It("wraps store failures", func() {
		repo.err = errors.New("connection reset")
		_, err := service.Summary(ctx, &auth.Session{AccountID: "alice"})
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Type).To(Equal(internal.ErrorTypeInternal))
	})

	It("requires a session", func() {
		_, err := service.Summary(ctx, nil)
		Expect(errors.Is(err, internal.ErrMissingToken)).To(BeTrue())
	})

	It("serves the summary over HTTP", func() {
		handler := dashboard.NewHandler(transport.NewBaseHandler(lg), service)
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req = req.WithContext(auth.ContextWithSession(req.Context(), &auth.Session{AccountID: "alice"}))
		w := httptest.NewRecorder()
		handler.GetSummary(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var body map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body["current_week_hours"]).To(Equal(8.5))
		Expect(body["weekly_trend"]).To(HaveLen(8))
	})
})
