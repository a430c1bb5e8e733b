package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/api"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/account"
	accountPostgres "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/account/postgres"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/auth"
	authPostgres "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/auth/postgres"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/events"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/dashboard"
	dashboardPostgres "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/dashboard/postgres"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/notification"
	notificationPostgres "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/notification/postgres"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/project"
	projectPostgres "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/project/postgres"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/timesheet"
	timesheetPostgres "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/timesheet/postgres"
	timesheetRedis "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/timesheet/redis"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/transport"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/transport/rest"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Gorm   *gorm.DB
	Redis  goredis.UniversalClient
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer deps.Close()

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		timeout := deps.Config.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("server failed to start", "error", err)
			deps.Close()
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func setupRoutes(deps *Dependencies) {
	lg := deps.Logger
	cfg := deps.Config
	base := transport.NewBaseHandler(lg)
	bus := events.NewEventBus(lg)

	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.JWTAccessSecret,
		cfg.Security.JWTRefreshSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authPostgres.NewRepository(deps.Gorm), tokens, cfg.Security.BCryptCost, lg)

	notificationService := notification.NewService(notificationPostgres.NewNotificationRepository(deps.Gorm), lg)
	notification.NewEventHandler(notificationService, lg).RegisterEventHandlers(bus)

	projectService := project.NewService(projectPostgres.NewProjectRepository(deps.Gorm), bus, lg)

	health := rest.NewHealthHandler(deps.DB)
	var drafts timesheet.DraftStore = timesheet.NewMemoryDraftStore()
	if deps.Redis != nil {
		drafts = timesheetRedis.NewDraftStore(deps.Redis, cfg.Redis.DraftTTL)
		health.WithCheck("redis", func(ctx context.Context) error {
			return deps.Redis.Ping(ctx).Err()
		})
	}
	timesheetService := timesheet.NewService(timesheetPostgres.NewTimesheetRepository(deps.Gorm), projectService,
		drafts, bus, cfg.Approval, lg)

	accountService := account.NewService(accountPostgres.NewAccountRepository(deps.Gorm), authService, bus, lg)
	dashboardService := dashboard.NewService(dashboardPostgres.NewDashboardRepository(deps.DB), cfg.Dashboard, lg)

	rest.RegisterAllRoutes(deps.Router, rest.Handlers{
		Health:       health,
		Auth:         auth.NewHandler(base, authService),
		Account:      account.NewHandler(base, accountService),
		Project:      project.NewHandler(base, projectService),
		Timesheet:    timesheet.NewHandler(base, timesheetService),
		Notification: notification.NewHandler(base, notificationService),
		Dashboard:    dashboard.NewHandler(base, dashboardService),
	}, *cfg, lg)
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	cfg, lg, err := setup()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// the served document must parse before any route is mounted
	if _, err := api.Load(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}

	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	deps := &Dependencies{
		Config: cfg,
		DB:     db,
		Gorm:   gdb,
		Router: chi.NewRouter(),
		Logger: lg,
	}

	if cfg.Redis.Enabled {
		client, err := timesheetRedis.NewClient(ctx, cfg.Redis)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		deps.Redis = client
		lg.Info("weekly drafts stored in redis", "addr", cfg.Redis.Addr)
	}

	return deps, nil
}

func (d *Dependencies) Close() {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("redis close error", "error", err)
		}
		d.Redis = nil
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			d.Logger.Error("database close error", "error", err)
		}
		d.DB = nil
	}
}

// initDB opens the pgx pool shared by sqlx and gorm.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
}
