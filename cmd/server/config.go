package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/relay-api/internal/config"
	"github.com/phrazzld/relay-api/internal/platform/logger"
	"github.com/phrazzld/relay-api/internal/redact"
)

// loadAppConfig loads the application configuration from environment variables
// and the optional config file.
func loadAppConfig(configFile string) (*config.Config, error) {
	cfg, err := config.LoadWithOptions(config.Options{ConfigFile: configFile})
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// setupAppLogger configures the process logger from the server settings and
// logs the effective configuration without secrets.
func setupAppLogger(cfg *config.Config) (*slog.Logger, error) {
	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("Server configuration loaded",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"database", redact.DatabaseURL(cfg.Database.URL),
		"worker_count", cfg.Task.WorkerCount,
		"queue_size", cfg.Task.QueueSize)
	l.Debug("Telegram configuration",
		"app_id", cfg.Telegram.AppID,
		"channel_id", cfg.Telegram.ChannelID,
		"session_dir", cfg.Telegram.SessionDir,
		"password_present", cfg.Telegram.Password != "")

	return l, nil
}
