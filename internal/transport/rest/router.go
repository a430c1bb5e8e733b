package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/api"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/account"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/auth"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/dashboard"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/notification"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/project"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/timesheet"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/transport/middleware"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/transport/swagger"
)

// Handlers bundles every feature handler mounted under /api/v1. A nil
// handler leaves its routes unmounted.
type Handlers struct {
	Health       *HealthHandler
	Auth         *auth.Handler
	Account      *account.Handler
	Project      *project.Handler
	Timesheet    *timesheet.Handler
	Notification *notification.Handler
	Dashboard    *dashboard.Handler
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, cfg internal.Config, logger *slog.Logger) {
	rbac := auth.NewRBACAuthorization(logger)

	router.Use(middleware.CORS(cfg.Server.Origins()))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	if cfg.Observability.Metrics.Enabled {
		router.Use(middleware.Metrics)
		router.Handle(cfg.Observability.Metrics.Path, promhttp.Handler())
	}

	router.Get(swagger.DocumentPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.Document())
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.Health)
			r.Get("/ping", h.Health.Ping)
		}

		if h.Auth == nil {
			return
		}
		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/signup", h.Auth.Signup)
			ar.Post("/login", h.Auth.Login)
			ar.Post("/refresh", h.Auth.RefreshToken)
			ar.Post("/logout", h.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.Account != nil {
				pr.Get("/accounts/me", h.Account.GetMe)
				pr.Patch("/accounts/me", h.Account.UpdateMe)
				pr.Get("/accounts", h.Account.Directory)
			}

			if h.Project != nil {
				pr.Route("/projects", func(p chi.Router) {
					p.Get("/", h.Project.ListProjects)
					p.Get("/mine", h.Project.ListMine)
					p.Get("/{id}", h.Project.GetProject)
					p.Get("/{id}/heads", h.Project.ListHeads)
					p.Get("/{id}/assignments", h.Project.ListAssignments)

					p.Group(func(ap chi.Router) {
						ap.Use(rbac.RequireAdmin())
						ap.Post("/", h.Project.CreateProject)
						ap.Patch("/{id}", h.Project.UpdateProject)
						ap.Post("/{id}/assignments", h.Project.Assign)
						ap.Delete("/{id}/assignments/{accountID}", h.Project.Unassign)
						ap.Post("/{id}/heads", h.Project.AddHead)
						ap.Put("/{id}/heads", h.Project.ReplaceHeads)
						ap.Delete("/{id}/heads/{accountID}", h.Project.RemoveHead)
					})
				})
			}

			if h.Timesheet != nil {
				pr.Route("/timesheets", func(t chi.Router) {
					t.Get("/", h.Timesheet.List)
					t.Post("/", h.Timesheet.CreateEntry)
					t.Get("/review", h.Timesheet.ListReviewable)
					t.Post("/weeks", h.Timesheet.SubmitWeek)
					t.Get("/drafts/{weekStart}", h.Timesheet.GetDraft)
					t.Put("/drafts/{weekStart}", h.Timesheet.SaveDraft)
					t.Delete("/drafts/{weekStart}", h.Timesheet.DeleteDraft)
					t.Get("/{id}", h.Timesheet.Get)
					t.Patch("/{id}", h.Timesheet.Update)
					t.Delete("/{id}", h.Timesheet.Delete)
					t.Post("/{id}/approve", h.Timesheet.Approve)
					t.Post("/{id}/reject", h.Timesheet.Reject)
					t.Post("/{id}/reopen", h.Timesheet.Reopen)
				})
			}

			if h.Notification != nil {
				pr.Get("/notifications", h.Notification.List)
				pr.Get("/notifications/unread-count", h.Notification.UnreadCount)
				pr.Post("/notifications/read-all", h.Notification.MarkAllRead)
				pr.Patch("/notifications/{id}/read", h.Notification.MarkRead)
			}

			if h.Dashboard != nil {
				pr.Get("/dashboard", h.Dashboard.GetSummary)
			}

			pr.Route("/admin", func(ad chi.Router) {
				ad.Use(rbac.RequireAdmin())
				if h.Account != nil {
					ad.Get("/accounts", h.Account.ListAll)
					ad.Post("/accounts", h.Account.CreateAccount)
					ad.Post("/accounts/{id}/role", h.Account.UpdateRole)
					ad.Post("/accounts/{id}/password", h.Account.UpdatePassword)
					ad.Post("/accounts/{id}/employee-id", h.Account.UpdateEmployeeID)
					ad.Delete("/accounts/{id}", h.Account.DeleteAccount)
				}
				if h.Notification != nil {
					ad.Post("/notifications/missing-employee-id", h.Notification.NotifyMissingEmployeeCode)
				}
			})
		})
	})
}
