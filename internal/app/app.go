// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zapmanager/zapmanager/internal/config"
	"github.com/zapmanager/zapmanager/internal/email"
	"github.com/zapmanager/zapmanager/internal/lifecycle"
	lifecyclepostgres "github.com/zapmanager/zapmanager/internal/lifecycle/postgres"
	"github.com/zapmanager/zapmanager/internal/pkg/ctxlog"
	"github.com/zapmanager/zapmanager/internal/pkg/httputil"
	"github.com/zapmanager/zapmanager/internal/pkg/metrics"
	"github.com/zapmanager/zapmanager/internal/pkg/postgres"
	"github.com/zapmanager/zapmanager/internal/plans"
	planspostgres "github.com/zapmanager/zapmanager/internal/plans/postgres"
	"github.com/zapmanager/zapmanager/internal/settings"
	settingspostgres "github.com/zapmanager/zapmanager/internal/settings/postgres"
	"github.com/zapmanager/zapmanager/internal/suspension"
	suspensionpostgres "github.com/zapmanager/zapmanager/internal/suspension/postgres"
	"github.com/zapmanager/zapmanager/internal/version"
)

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	db            *pgxpool.Pool
	server        *http.Server
	metricsServer *http.Server
	metricsCancel context.CancelFunc
	scheduler     *lifecycle.Scheduler
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	logger := initLogger(cfg.Log)

	connectCtx, connectCancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer connectCancel()

	db, err := postgres.Connect(connectCtx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if cfg.Database.MigrationsPath != "" {
		if err := postgres.Migrate(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	metricsCtx, metricsCancel := context.WithCancel(context.Background())

	app := &App{
		config:        cfg,
		logger:        logger,
		db:            db,
		metricsCancel: metricsCancel,
	}

	go func() {
		metrics.RecordDBPoolMetrics(db)
		metrics.CollectDBPoolMetrics(metricsCtx, db, 15*time.Second)
	}()

	router, scheduler, err := app.setupRouter(metricsCtx)
	if err != nil {
		db.Close()
		metricsCancel()
		return nil, fmt.Errorf("setup router: %w", err)
	}

	app.scheduler = scheduler

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Metrics server on separate port
	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app, nil
}

// Run starts the HTTP servers.
func (a *App) Run() error {
	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
	)

	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	a.metricsCancel()

	// Stop the scheduler before the servers so no sweep starts mid-shutdown
	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := a.server.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
			mu.Unlock()
		}
	}()

	go func() {
		defer wg.Done()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown metrics server: %w", err))
			mu.Unlock()
		}
	}()

	wg.Wait()

	a.db.Close()

	return errors.Join(errs...)
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

func (a *App) setupRouter(ctx context.Context) (*chi.Mux, *lifecycle.Scheduler, error) {
	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	// CORS must be early to handle preflight requests before other middleware
	r.Use(httputil.CORSMiddleware(a.config.CORS.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", a.healthzHandler)
	r.Get("/readyz", a.readyzHandler)
	r.Get("/version", a.versionHandler)

	loc, err := time.LoadLocation(a.config.Lifecycle.Timezone)
	if err != nil {
		return nil, nil, fmt.Errorf("load timezone %s: %w", a.config.Lifecycle.Timezone, err)
	}

	lifecycleRepo := lifecyclepostgres.NewRepository(a.db)
	settingsRepo := settingspostgres.NewRepository(a.db)
	suspensionRepo := suspensionpostgres.NewRepository(a.db)

	plansRepo := planspostgres.NewRepository(a.db)
	plansService := plans.NewService(plansRepo, a.config.Lifecycle.PlanCacheTTL)

	ledger := suspension.NewLedger(suspensionRepo, suspensionRepo)
	suspensionService := suspension.NewService(suspensionRepo, ledger)
	suspensionHandler := suspension.NewHandler(suspensionService)

	senderFor := email.Factory(a.config.Lifecycle.SendRatePerSecond)

	runner := lifecycle.NewRunner(lifecycle.RunnerConfig{
		Location:       loc,
		GraceWindow:    a.config.Lifecycle.GraceWindow,
		SuspendOnBlock: a.config.Lifecycle.SuspendOnBlock,
	}, lifecycleRepo, lifecycleRepo, lifecycleRepo, settingsRepo, plansService, ledger, senderFor, nil)

	lifecycleHandler := lifecycle.NewHandler(runner, senderFor)
	settingsHandler := settings.NewHandler(settingsRepo)

	var scheduler *lifecycle.Scheduler
	if a.config.Scheduler.Enabled {
		scheduler = lifecycle.NewScheduler(a.config.Scheduler.Interval, runner)
		scheduler.Start(ctx)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(httputil.SchedulerOrAdminAuth(a.config.Scheduler.Token, a.config.JWT.SecretKey))
			lifecycleHandler.RegisterRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(httputil.AdminAuth(a.config.JWT.SecretKey))
			settingsHandler.RegisterRoutes(r)
			suspensionHandler.RegisterRoutes(r)
		})
	})

	return r, scheduler, nil
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, version.Get())
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
