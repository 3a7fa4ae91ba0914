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

	"github.com/concordance/api/internal/config"
	"github.com/concordance/api/internal/database"
	"github.com/concordance/api/internal/handler"
	"github.com/concordance/api/internal/memstore"
	"github.com/concordance/api/internal/middleware"
	"github.com/concordance/api/internal/model"
	"github.com/concordance/api/internal/repository"
	"github.com/concordance/api/internal/service"
	"github.com/concordance/api/internal/telemetry"
)

// platform bundles the stores the panelist flow runs on
type platform struct {
	identities   service.IdentityStore
	enrollments  service.EnrollmentStore
	roles        service.RoleStore
	panelists    service.PanelistStore
	concordances service.ConcordanceStore
	settings     service.SystemRoleSource
	pinger       handler.Pinger
	close        func() error
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTELEndpoint)
	if err != nil {
		slog.Error("failed to set up tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	p, err := openPlatform(ctx, cfg)
	if err != nil {
		slog.Error("failed to open platform store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = p.close() }()

	var systemRole service.SystemRoleSource = p.settings
	if cfg.Panelists.RoleSource == config.RoleSourceEnv {
		systemRole = service.StaticSystemRole(cfg.Panelists.SystemRole)
	}

	reg := telemetry.NewRegistry()

	manager := service.NewPanelistManager(service.PanelistManagerConfig{
		Identities:   p.identities,
		Enrollments:  p.enrollments,
		Roles:        p.roles,
		Panelists:    p.panelists,
		Concordances: p.concordances,
		SystemRole:   systemRole,
		HashCost:     cfg.Panelists.HashCost,
		PromRegistry: reg,
	})
	panelistService := service.NewPanelistService(service.PanelistServiceConfig{
		Panelists:    p.panelists,
		Concordances: p.concordances,
		Lifecycle:    manager,
		Logger:       logger,
	})

	mux := http.NewServeMux()
	handler.NewHealthHandler(p.pinger, logger).RegisterRoutes(mux)
	handler.NewPanelistHandler(panelistService, logger).RegisterRoutes(mux)
	if cfg.Telemetry.MetricsEnabled {
		mux.Handle("GET /metrics", telemetry.MetricsHandler(reg))
	}

	runCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()

	idempotencyStore := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{})
	go idempotencyStore.Run(runCtx)

	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.Idempotency(idempotencyStore),
		middleware.Metrics(reg),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
			slog.String("db_driver", cfg.Database.Driver),
			slog.String("system_role_source", cfg.Panelists.RoleSource),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("failed to flush traces", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}

// openPlatform connects the store selected by DB_DRIVER
func openPlatform(ctx context.Context, cfg *config.Config) (*platform, error) {
	if cfg.Database.Driver == config.DriverMemory {
		store := memstore.New()
		seedDemo(store)
		slog.Warn("using in-memory store; data is lost on exit")
		return &platform{
			identities:   store.Users(),
			enrollments:  store.Enrollments(),
			roles:        store.Roles(),
			panelists:    store.Panelists(),
			concordances: store.Concordances(),
			settings:     store.Settings(),
			close:        func() error { return nil },
		}, nil
	}

	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})
	if err := db.Connect(ctx); err != nil {
		return nil, err
	}

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)

	return &platform{
		identities:   repository.NewUserRepository(db),
		enrollments:  repository.NewEnrollmentRepository(db),
		roles:        repository.NewRoleRepository(db),
		panelists:    repository.NewPanelistRepository(db),
		concordances: repository.NewConcordanceRepository(db),
		settings:     repository.NewSettingsRepository(db),
		pinger:       db,
		close:        db.Close,
	}, nil
}

// seedDemo mirrors migrations/seed.surql for local in-memory runs
func seedDemo(store *memstore.Store) {
	course := &model.Course{ID: "course:demo", Shortname: "DEMO", Fullname: "Demo course"}
	store.CreateCourse(course)
	generated := &model.Course{ID: "course:demo_panel", Shortname: "DEMO-PANEL", Fullname: "Demo course panelists"}
	store.CreateCourse(generated)
	store.CreateConcordance(&model.Concordance{
		ID:              "concordance:demo",
		Name:            "Demo concordance",
		CourseID:        course.ID,
		CourseGenerated: generated.ID,
	})
}
