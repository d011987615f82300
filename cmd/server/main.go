// Package main implements the entry point for the relay API server, which
// accepts file URLs over HTTP and relays the files to a Telegram channel in
// the background.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/relay-api/internal/platform/telegram"
	"github.com/spf13/pflag"
)

// main parses flags, wires dependencies, and serves until SIGINT or SIGTERM.
func main() {
	flags := pflag.NewFlagSet("relay-server", pflag.ExitOnError)
	configFile := flags.StringP("config", "c", "", "path to a config file (default: ./config.yaml when present)")
	migrateCmd := flags.String("migrate", "", "run a migration command (up, down, status, version) and exit")
	_ = flags.Parse(os.Args[1:])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *migrateCmd != "" {
		if err := runMigrationCommand(ctx, *configFile, *migrateCmd); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		return
	}

	if err := run(ctx, *configFile); err != nil {
		log.Fatalf("Relay server failed: %v", err)
	}
}

// run executes the startup sequence: config, logger, task store, messaging
// session, task runner, then the HTTP server. It blocks until ctx is done.
func run(ctx context.Context, configFile string) error {
	cfg, err := loadAppConfig(configFile)
	if err != nil {
		return err
	}

	logger, err := setupAppLogger(cfg)
	if err != nil {
		return err
	}

	backend, err := setupTaskStore(ctx, cfg.Database.URL, logger)
	if err != nil {
		return err
	}

	session := telegram.NewSession(cfg.Telegram, nil, logger)
	if err := session.Start(ctx); err != nil {
		// The API stays up so tasks can still be inspected; uploads fail with
		// a not-validated error and /health reports 503 until a restart.
		logger.Error("messaging session failed to start",
			"error", err,
			"channel_id", cfg.Telegram.ChannelID)
	}

	app, err := newApplication(cfg, logger, backend.Store, session, nil)
	if err != nil {
		_ = session.Close()
		_ = backend.Close()
		return err
	}
	app.addCloser("telegram session", session.Close)
	app.addCloser("task store", backend.Close)

	return app.Run(ctx)
}
