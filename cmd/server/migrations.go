package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/relay-api/internal/platform/migrate"
)

// errNoMigrations is returned for backends without a SQL schema.
var errNoMigrations = errors.New("the configured database does not use SQL migrations")

// runMigrations executes a goose command against an opened SQL backend.
func runMigrations(ctx context.Context, backend *taskBackend, command string, logger *slog.Logger) error {
	if backend.DB == nil {
		return errNoMigrations
	}
	if err := migrate.Run(ctx, backend.DB, backend.Dialect, backend.Migrations, command, logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// runMigrationCommand handles the --migrate flag: it opens the configured
// database, runs one command, and closes it again.
func runMigrationCommand(ctx context.Context, configFile, command string) error {
	cfg, err := loadAppConfig(configFile)
	if err != nil {
		return err
	}
	logger, err := setupAppLogger(cfg)
	if err != nil {
		return err
	}

	backend, err := openTaskBackend(ctx, cfg.Database.URL, logger)
	if err != nil {
		return fmt.Errorf("failed to open task store: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("Error closing database connection", "error", err)
		}
	}()

	logger.Info("Executing migrations", "command", command)
	return runMigrations(ctx, backend, command, logger)
}
