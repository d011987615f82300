package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/relay-api/internal/platform/migrate"
	"github.com/phrazzld/relay-api/internal/platform/mongo"
	"github.com/phrazzld/relay-api/internal/platform/postgres"
	"github.com/phrazzld/relay-api/internal/platform/sqlite"
	"github.com/phrazzld/relay-api/internal/redact"
	"github.com/phrazzld/relay-api/internal/store"
	"github.com/sethvargo/go-retry"
)

// Connection retry policy for servers that may still be starting.
const (
	connectRetryBase = 500 * time.Millisecond
	connectRetries   = 5
)

// taskBackend is an opened task store plus what is needed to migrate and
// close it. DB is nil for document stores.
type taskBackend struct {
	Store      store.TaskStore
	DB         *sql.DB
	Dialect    string
	Migrations fs.FS
	Close      func() error
}

// splitDatabaseURL returns the scheme and the remainder of a database URL.
// A value without a scheme is a sqlite path, and a "file:" URI names a
// sqlite file.
func splitDatabaseURL(raw string) (string, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", errors.New("database URL is empty")
	}

	if scheme, rest, ok := strings.Cut(raw, "://"); ok {
		if scheme == "" || rest == "" {
			return "", "", fmt.Errorf("invalid database URL %q: expected <scheme>://...", redact.DatabaseURL(raw))
		}
		return strings.ToLower(scheme), rest, nil
	}

	if len(raw) > len("file:") && strings.EqualFold(raw[:len("file:")], "file:") {
		return "file", raw[len("file:"):], nil
	}

	return "sqlite", raw, nil
}

// openTaskBackend connects to the backend named by the URL scheme without
// applying migrations.
func openTaskBackend(ctx context.Context, databaseURL string, logger *slog.Logger) (*taskBackend, error) {
	scheme, rest, err := splitDatabaseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	switch scheme {
	case "sqlite", "sqlite3", "file":
		path, _, _ := strings.Cut(rest, "?")
		db, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		return &taskBackend{
			Store:      sqlite.NewTaskStore(db),
			DB:         db,
			Dialect:    sqlite.Dialect,
			Migrations: sqlite.Migrations(),
			Close:      db.Close,
		}, nil

	case "postgres", "postgresql":
		db, err := postgres.Open(databaseURL)
		if err != nil {
			return nil, err
		}
		if err := withConnectRetry(ctx, logger, db.PingContext); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		return &taskBackend{
			Store:      postgres.NewPostgresTaskStore(db),
			DB:         db,
			Dialect:    postgres.Dialect,
			Migrations: postgres.Migrations(),
			Close:      db.Close,
		}, nil

	case "mongodb", "mongodb+srv":
		var backend *taskBackend
		err := withConnectRetry(ctx, logger, func(ctx context.Context) error {
			client, database, err := mongo.Connect(ctx, databaseURL)
			if err != nil {
				return err
			}
			col, err := mongo.TasksCollection(ctx, client, database)
			if err != nil {
				_ = mongo.Disconnect(client)
				return err
			}
			backend = &taskBackend{
				Store: mongo.NewTaskStore(col),
				Close: func() error { return mongo.Disconnect(client) },
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return backend, nil

	default:
		return nil, fmt.Errorf("unsupported database scheme %q (expected sqlite, postgres, or mongodb)", scheme)
	}
}

// setupTaskStore opens the configured backend and brings its schema up to date.
func setupTaskStore(ctx context.Context, databaseURL string, logger *slog.Logger) (*taskBackend, error) {
	backend, err := openTaskBackend(ctx, databaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open task store: %w", err)
	}

	if backend.DB != nil {
		if err := runMigrations(ctx, backend, migrate.CommandUp, logger); err != nil {
			_ = backend.Close()
			return nil, err
		}
	}

	logger.Info("Task store ready", "database", redact.DatabaseURL(databaseURL))
	return backend, nil
}

// withConnectRetry retries connect with exponential backoff until it
// succeeds, the retry budget is spent, or ctx is done.
func withConnectRetry(ctx context.Context, logger *slog.Logger, connect func(context.Context) error) error {
	backoff := retry.WithMaxRetries(connectRetries, retry.NewExponential(connectRetryBase))
	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := connect(ctx); err != nil {
			logger.Warn("database not ready", "attempt", attempt, "error", redact.Error(err))
			return retry.RetryableError(err)
		}
		return nil
	})
}
