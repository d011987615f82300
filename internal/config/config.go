package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Telegram TelegramConfig `mapstructure:"telegram" validate:"required"`
	Task     TaskConfig     `mapstructure:"task"     validate:"required"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Host     string `mapstructure:"host"      validate:"required"`
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains the task store connection string.
// The scheme selects the backend: sqlite (default), postgres, or mongodb.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// TelegramConfig contains the credentials for the messaging session and the
// destination channel.
type TelegramConfig struct {
	AppID    int    `mapstructure:"app_id"   validate:"required,gt=0"`
	AppHash  string `mapstructure:"app_hash" validate:"required"`
	Phone    string `mapstructure:"phone"    validate:"required"`
	Password string `mapstructure:"password"`
	// ChannelID accepts both the bare channel ID and the -100 prefixed form.
	ChannelID  int64  `mapstructure:"channel_id"  validate:"required,ne=0"`
	SessionDir string `mapstructure:"session_dir" validate:"required"`
}

// TaskConfig contains settings for the background upload runner.
type TaskConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0"`
	QueueSize   int `mapstructure:"queue_size"   validate:"required,gt=0"`
}

// FetchConfig contains settings for downloading source files.
type FetchConfig struct {
	// TempDir is where downloads are staged; empty means the OS temp dir.
	TempDir string `mapstructure:"temp_dir"`
}
