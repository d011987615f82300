package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/relay-api/internal/config"
	"github.com/phrazzld/relay-api/internal/fetch"
	"github.com/phrazzld/relay-api/internal/relay"
	"github.com/phrazzld/relay-api/internal/service"
	"github.com/phrazzld/relay-api/internal/store"
	"github.com/phrazzld/relay-api/internal/task"
)

// closer is a named shutdown step.
type closer struct {
	name string
	fn   func() error
}

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	taskStore store.TaskStore
	sender    relay.Sender

	uploadService service.UploadService
	taskRunner    *task.TaskRunner

	closers []closer
}

// newApplication wires the upload pipeline around an opened task store and a
// messaging sender and starts the task runner. A nil httpClient uses a pooled
// client for downloads.
func newApplication(
	cfg *config.Config,
	logger *slog.Logger,
	taskStore store.TaskStore,
	sender relay.Sender,
	httpClient *http.Client,
) (*application, error) {
	app := &application{
		config:    cfg,
		logger:    logger,
		taskStore: taskStore,
		sender:    sender,
	}

	fetcher := fetch.NewFetcher(httpClient, cfg.Fetch.TempDir, logger)
	uploader := relay.NewUploader(sender, logger)

	taskFactory := task.NewUploadTaskFactory(taskStore, fetcher, uploader, logger)

	var err error
	app.taskRunner, err = setupTaskRunner(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to setup task runner: %w", err)
	}

	app.uploadService, err = service.NewUploadService(taskStore, app.taskRunner, taskFactory, logger)
	if err != nil {
		app.taskRunner.Stop()
		return nil, fmt.Errorf("failed to create upload service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// setupTaskRunner creates and starts the background upload workers.
func setupTaskRunner(cfg *config.Config, logger *slog.Logger) (*task.TaskRunner, error) {
	runnerConfig := task.DefaultTaskRunnerConfig()
	if cfg.Task.QueueSize > 0 {
		runnerConfig.QueueSize = cfg.Task.QueueSize
	}
	if cfg.Task.WorkerCount > 0 {
		runnerConfig.WorkerCount = cfg.Task.WorkerCount
	}
	taskRunner := task.NewTaskRunner(runnerConfig, logger)

	if err := taskRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	return taskRunner, nil
}

// addCloser registers a resource to release during cleanup, after the task
// runner has stopped. Closers run in reverse registration order.
func (app *application) addCloser(name string, fn func() error) {
	app.closers = append(app.closers, closer{name: name, fn: fn})
}

// Run serves HTTP until ctx is done, then shuts everything down.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	for i := len(app.closers) - 1; i >= 0; i-- {
		c := app.closers[i]
		if err := c.fn(); err != nil {
			app.logger.Error("Error during shutdown", "resource", c.name, "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
