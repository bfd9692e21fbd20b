// Package config loads service configuration from a config file, NETINV_*
// environment variables and command-line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. NETINV_SERVER_ADDR.
const EnvPrefix = "NETINV"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Logging   LoggingConfig   `mapstructure:"log"`
	Events    EventsConfig    `mapstructure:"events"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address (default: :5000)
	Addr string `mapstructure:"addr"`

	// ReadTimeout bounds reading the request including the upload body (default: 30s)
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// RequestTimeout is the per-request context deadline (default: 5m)
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// ShutdownTimeout is how long to wait for in-flight requests on exit (default: 30s)
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig selects the storage backend.
type DatabaseConfig struct {
	// Driver is sqlite3 or pgx (default: sqlite3)
	Driver string `mapstructure:"driver"`

	// DSN is a SQLite file path or a PostgreSQL connection string (default: database.db)
	DSN string `mapstructure:"dsn"`

	// MaxOpenConns caps the PostgreSQL pool; SQLite always uses one connection (default: 10)
	MaxOpenConns int `mapstructure:"max_open_conns"`
}

// UploadConfig holds spreadsheet upload limits.
type UploadConfig struct {
	// MaxFileSize is the largest accepted request body in bytes (default: 32MiB)
	MaxFileSize int64 `mapstructure:"max_file_size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is debug, info, warn or error (default: info)
	Level string `mapstructure:"level"`

	// Format is text or json (default: text)
	Format string `mapstructure:"format"`
}

// EventsConfig enables publishing device events to RabbitMQ.
type EventsConfig struct {
	AMQPURL  string `mapstructure:"amqp_url"`
	Exchange string `mapstructure:"exchange"`
}

// Enabled reports whether an AMQP URL was configured.
func (c EventsConfig) Enabled() bool { return c.AMQPURL != "" }

// DiscoveryConfig controls mDNS advertisement of the HTTP service.
type DiscoveryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Instance string `mapstructure:"instance"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 5*time.Minute)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "database.db")
	v.SetDefault("database.max_open_conns", 10)

	v.SetDefault("upload.max_file_size", int64(32<<20))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("events.amqp_url", "")
	v.SetDefault("events.exchange", "netinventory.events")

	v.SetDefault("discovery.enabled", false)
	v.SetDefault("discovery.instance", "")
}

// Init prepares v: loads .env, reads cfgFile (or config.yaml from the
// search path when cfgFile is empty) and enables NETINV_* overrides.
// A missing config file is not an error.
func Init(v *viper.Viper, cfgFile string) error {
	// .env only fills variables that are not already set in the environment.
	_ = godotenv.Load()

	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/netinventory/")
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	return nil
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Addr == "" {
		errs = append(errs, "server.addr is required")
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "server.read_timeout must be non-negative")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "server.request_timeout must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "server.shutdown_timeout must be positive")
	}

	switch c.Database.Driver {
	case "sqlite3", "pgx":
	default:
		errs = append(errs, fmt.Sprintf("database.driver (%q) must be one of: sqlite3, pgx", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, "database.dsn is required")
	}
	if c.Database.MaxOpenConns <= 0 {
		errs = append(errs, "database.max_open_conns must be positive")
	}

	if c.Upload.MaxFileSize <= 0 {
		errs = append(errs, "upload.max_file_size must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("log.level (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("log.format (%q) must be one of: text, json", c.Logging.Format))
	}

	if c.Events.Enabled() && c.Events.Exchange == "" {
		errs = append(errs, "events.exchange is required when events.amqp_url is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
