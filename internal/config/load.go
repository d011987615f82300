package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "RELAY"

// Error is returned when configuration cannot be loaded or fails validation.
// Missing credentials surface here and are fatal at startup.
type Error struct {
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %v", e.Message, e.Err)
	}
	return "config: " + e.Message
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Options tunes where Load looks for configuration.
type Options struct {
	// ConfigFile is an explicit config file path. When empty, Load looks for
	// an optional config.yaml in the working directory.
	ConfigFile string
}

// Load configuration from environment variables and optionally a config file.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadWithOptions(Options{})
}

// LoadWithOptions is Load with an explicit config file location.
func LoadWithOptions(opts Options) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, &Error{Message: "failed to read config file", Err: err}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only applies to keys viper already knows about; bind the
	// keys without defaults explicitly so Unmarshal sees them.
	for _, key := range []string{
		"telegram.app_id",
		"telegram.app_hash",
		"telegram.phone",
		"telegram.password",
		"telegram.channel_id",
		"fetch.temp_dir",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, &Error{Message: "failed to bind environment variable", Err: err}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &Error{Message: "failed to unmarshal config", Err: err}
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, &Error{Message: "validation failed", Err: err}
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("database.url", "sqlite://data/relay.db")
	v.SetDefault("telegram.session_dir", "data")
	v.SetDefault("task.worker_count", 2)
	v.SetDefault("task.queue_size", 100)
}
