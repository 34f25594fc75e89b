package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/medika/medika/internal/activity"
	"github.com/medika/medika/internal/app"
	"github.com/medika/medika/internal/appointments"
	"github.com/medika/medika/internal/auth"
	"github.com/medika/medika/internal/authz"
	"github.com/medika/medika/internal/catalog"
	"github.com/medika/medika/internal/dashboard"
	"github.com/medika/medika/internal/invoices"
	"github.com/medika/medika/internal/observability"
	"github.com/medika/medika/internal/patients"
	"github.com/medika/medika/internal/platform/cache"
	"github.com/medika/medika/internal/platform/db"
	"github.com/medika/medika/internal/rbac"
	"github.com/medika/medika/internal/records"
	"github.com/medika/medika/internal/settings"
	"github.com/medika/medika/internal/shared"
	"github.com/medika/medika/internal/templates"
	"github.com/medika/medika/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	loc, err := cfg.Location()
	if err != nil {
		logger.Error("clinic timezone", slog.Any("error", err))
		os.Exit(1)
	}

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "medika_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	metrics := observability.NewMetrics()
	resolver := authz.New(authz.WithLogger(logger), authz.WithObserver(metrics))
	rbacMiddleware := rbac.Middleware{
		Resolver: resolver,
		Loader:   rbac.NewPrincipalLoader(rbac.NewAccountStore(dbpool)),
		Logger:   logger,
	}

	activityService := activity.NewService(activity.NewRepository(dbpool), logger)

	authService := auth.NewService(auth.NewRepository(dbpool))
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager, cfg.LoginLimitPerMinute)

	patientService := patients.NewService(patients.NewRepository(dbpool), resolver, activityService)
	templateService := templates.NewService(templates.NewRepository(dbpool), resolver, activityService)
	recordService := records.NewService(records.NewRepository(dbpool), resolver, patientService, templateService, activityService)
	appointmentService := appointments.NewService(appointments.NewRepository(dbpool), resolver, activityService)
	invoiceService := invoices.NewService(invoices.NewRepository(dbpool), resolver, activityService)
	serviceCatalog := catalog.NewCatalog(catalog.NewRepository(dbpool), resolver, activityService)
	userService := users.NewService(users.NewRepository(dbpool), resolver, activityService)
	settingsService := settings.NewService(settings.NewRepository(dbpool), resolver, activityService, map[string]string{
		settings.KeyClinicName: cfg.ClinicName,
		settings.KeyTimezone:   cfg.ClinicTimezone,
	})
	dashboardService := dashboard.NewService(dashboard.NewRepository(dbpool), resolver, loc)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		SessionManager:      sessionManager,
		CSRFManager:         csrfManager,
		RBACMiddleware:      rbacMiddleware,
		Metrics:             metrics,
		AuthHandler:         authHandler,
		PermissionsHandler:  rbac.NewPermissionsHandler(rbacMiddleware),
		DashboardHandler:    dashboard.NewHandler(dashboardService, rbacMiddleware),
		PatientsHandler:     patients.NewHandler(logger, patientService, rbacMiddleware),
		RecordsHandler:      records.NewHandler(recordService, rbacMiddleware),
		AppointmentsHandler: appointments.NewHandler(logger, appointmentService, rbacMiddleware),
		InvoicesHandler:     invoices.NewHandler(logger, invoiceService, rbacMiddleware),
		TemplatesHandler:    templates.NewHandler(templateService, rbacMiddleware),
		CatalogHandler:      catalog.NewHandler(serviceCatalog, rbacMiddleware),
		SettingsHandler:     settings.NewHandler(settingsService),
		UsersHandler:        users.NewHandler(logger, userService, rbacMiddleware),
		ActivityHandler:     activity.NewHandler(activityService, rbacMiddleware),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
