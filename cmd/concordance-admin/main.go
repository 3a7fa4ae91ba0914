package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/concordance/api/internal/config"
	"github.com/concordance/api/internal/database"
	"github.com/concordance/api/internal/repository"
	"github.com/concordance/api/internal/service"
)

const programName = "concordance-admin"

var globalFlags = struct {
	debug bool
}{}

func main() {
	root := newRootCommand(openSurreal)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func commonRun() {
	level := slog.LevelWarn
	if globalFlags.debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// openSurreal connects to the configured SurrealDB platform store
func openSurreal(ctx context.Context) (*adminStores, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Database.Driver != config.DriverSurrealDB {
		return nil, errors.New("the admin tool needs DB_DRIVER=surrealdb; the memory store lives inside the server process")
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
		return nil, fmt.Errorf("connect: %w", err)
	}

	users := repository.NewUserRepository(db)
	roles := repository.NewRoleRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	settings := repository.NewSettingsRepository(db)

	return &adminStores{
		settings: settings,
		roles:    roles,
		lifecycle: service.NewPanelistManager(service.PanelistManagerConfig{
			Identities:   users,
			Enrollments:  enrollments,
			Roles:        roles,
			Panelists:    repository.NewPanelistRepository(db),
			Concordances: repository.NewConcordanceRepository(db),
			SystemRole:   settings,
		}),
		close: db.Close,
	}, nil
}
