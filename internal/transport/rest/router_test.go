package rest_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/api"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/account"
	accountPostgres "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/account/postgres"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/auth"
	authPostgres "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/auth/postgres"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel"
	accountdm "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/datamodel/account"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/events"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/notification"
	notificationPostgres "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/notification/postgres"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/project"
	projectPostgres "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/project/postgres"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/timesheet"
	timesheetPostgres "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/timesheet/postgres"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/transport"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/transport/rest"
)

func newApp() (*chi.Mux, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	Expect(err).NotTo(HaveOccurred())
	sqlDB, err := db.DB()
	Expect(err).NotTo(HaveOccurred())
	sqlDB.SetMaxOpenConns(1)
	Expect(db.AutoMigrate(datamodel.All()...)).To(Succeed())

	lg := slog.New(slog.NewTextHandler(GinkgoWriter, &slog.HandlerOptions{Level: slog.LevelError}))
	base := transport.NewBaseHandler(lg)
	bus := events.NewEventBus(lg)

	tokens := auth.NewJWTTokenGenerator("access-secret-access-secret-0123", "refresh-secret-refresh-secret-01", time.Minute, time.Hour)
	authService := auth.NewService(authPostgres.NewRepository(db), tokens, bcrypt.MinCost, lg)

	notificationService := notification.NewService(notificationPostgres.NewNotificationRepository(db), lg)
	notification.NewEventHandler(notificationService, lg).RegisterEventHandlers(bus)

	projectService := project.NewService(projectPostgres.NewProjectRepository(db), bus, lg)
	timesheetService := timesheet.NewService(timesheetPostgres.NewTimesheetRepository(db), projectService,
		timesheet.NewMemoryDraftStore(), bus, internal.ApprovalConfig{}, lg)
	accountService := account.NewService(accountPostgres.NewAccountRepository(db), authService, bus, lg)

	cfg := internal.Config{
		Server: internal.ServerConfig{AllowedOrigins: "*"},
		Observability: internal.ObservabilityConfig{
			Metrics: internal.MetricsConfig{Enabled: true, Path: "/metrics"},
		},
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Handlers{
		Health:       rest.NewHealthHandler(nil).WithCheck("sqlite", sqlDB.PingContext),
		Auth:         auth.NewHandler(base, authService),
		Account:      account.NewHandler(base, accountService),
		Project:      project.NewHandler(base, projectService),
		Timesheet:    timesheet.NewHandler(base, timesheetService),
		Notification: notification.NewHandler(base, notificationService),
	}, cfg, lg)
	return router, db
}

var _ = Describe("Router", func() {
	var (
		router *chi.Mux
		db     *gorm.DB
	)

	BeforeEach(func() {
		router, db = newApp()
	})

	call := func(method, path, token, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		var out map[string]interface{}
		_ = json.Unmarshal(w.Body.Bytes(), &out)
		return w, out
	}

	signup := func(email, name string) string {
		w, body := call(http.MethodPost, "/api/v1/auth/signup", "",
			fmt.Sprintf(`{"email":%q,"password":"secret1","display_name":%q}`, email, name))
		Expect(w.Code).To(Equal(http.StatusCreated))
		return body["access_token"].(string)
	}

	accountID := func(email string) string {
		var p accountdm.Profile
		Expect(db.Where("email = ?", email).First(&p).Error).To(Succeed())
		return p.ID
	}

	It("documents every mounted API route", func() {
		doc, err := api.Load(context.Background())
		Expect(err).NotTo(HaveOccurred())

		var missing []string
		walk := func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
			if !strings.HasPrefix(route, "/api/v1/") {
				return nil
			}
			path := strings.TrimPrefix(route, "/api/v1")
			if len(path) > 1 {
				path = strings.TrimSuffix(path, "/")
			}
			item := doc.Paths.Value(path)
			if item == nil || item.GetOperation(method) == nil {
				missing = append(missing, method+" "+path)
			}
			return nil
		}
		Expect(chi.Walk(router, walk)).To(Succeed())
		Expect(missing).To(BeEmpty())
	})

	It("serves probes, docs and metrics without a token", func() {
		w, body := call(http.MethodGet, "/api/v1/health", "", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(body["status"]).To(Equal("healthy"))

		w, _ = call(http.MethodGet, "/openapi.yml", "", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("openapi: 3.0.3"))

		w, _ = call(http.MethodGet, "/metrics", "", "")
		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("answers CORS preflight on privileged routes without credentials", func() {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/admin/accounts", nil)
		req.Header.Set("Origin", "https://app.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
	})

	It("rejects missing and non-admin credentials", func() {
		w, _ := call(http.MethodGet, "/api/v1/timesheets", "", "")
		Expect(w.Code).To(Equal(http.StatusUnauthorized))

		token := signup("alice@x.com", "Alice")
		w, body := call(http.MethodPost, "/api/v1/admin/accounts/someone/role", token, `{"role":"admin"}`)
		Expect(w.Code).To(Equal(http.StatusForbidden))
		Expect(body["error"]).To(Equal("Admin access required"))
	})

	It("carries an entry from logging through approval to the owner's notification", func() {
		bossToken := signup("boss@x.com", "Boss")
		Expect(db.Model(&accountdm.UserRole{}).Where("account_id = ?", accountID("boss@x.com")).
			Update("role", "admin").Error).To(Succeed())
		aliceToken := signup("alice@x.com", "Alice")
		alice := accountID("alice@x.com")

		w, _ := call(http.MethodPost, "/api/v1/projects", bossToken, `{"name":"Alpha"}`)
		Expect(w.Code).To(Equal(http.StatusCreated))
		w, _ = call(http.MethodPost, "/api/v1/projects/1/assignments", bossToken, fmt.Sprintf(`{"account_id":%q}`, alice))
		Expect(w.Code).To(Equal(http.StatusCreated))

		w, entry := call(http.MethodPost, "/api/v1/timesheets", aliceToken,
			`{"project":"Alpha","hours":8,"start_date":"2024-01-08","end_date":"2024-01-08"}`)
		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(entry["status"]).To(Equal("pending"))

		path := fmt.Sprintf("/api/v1/timesheets/%d/approve", int64(entry["id"].(float64)))
		w, _ = call(http.MethodPost, path, aliceToken, "")
		Expect(w.Code).To(Equal(http.StatusForbidden))

		w, approved := call(http.MethodPost, path, bossToken, "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(approved["status"]).To(Equal("approved"))

		w, body := call(http.MethodGet, "/api/v1/notifications?unread=true", aliceToken, "")
		Expect(w.Code).To(Equal(http.StatusOK))
		types := []string{}
		for _, n := range body["notifications"].([]interface{}) {
			types = append(types, n.(map[string]interface{})["type"].(string))
		}
		Expect(types).To(ConsistOf("project_assigned", "timesheet_approved"))
	})
})
