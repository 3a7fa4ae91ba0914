package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"
)

// Database drivers
const (
	DriverSurrealDB = "surrealdb"
	DriverMemory    = "memory"
)

// Sources of the panelist system role
const (
	RoleSourceEnv      = "env"
	RoleSourceSettings = "settings"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Panelists PanelistsConfig
	Telemetry TelemetryConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string        `env:"SERVER_PORT" envDefault:"8080"`
	Env             string        `env:"SERVER_ENV" envDefault:"development"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// DatabaseConfig holds storage settings. Driver "memory" keeps everything
// in process and ignores the connection fields.
type DatabaseConfig struct {
	Driver    string `env:"DB_DRIVER" envDefault:"surrealdb"`
	Host      string `env:"DB_HOST" envDefault:"localhost"`
	Port      string `env:"DB_PORT" envDefault:"8000"`
	Namespace string `env:"DB_NAMESPACE" envDefault:"concordance"`
	Database  string `env:"DB_DATABASE" envDefault:"main"`
	User      string `env:"DB_USER" envDefault:"root"`
	Password  string `env:"DB_PASSWORD" envDefault:"root"`
}

// PanelistsConfig holds panelist account provisioning settings
type PanelistsConfig struct {
	// SystemRole is the role ID granted at system level when RoleSource is
	// "env". Empty or "0" grants none.
	SystemRole string `env:"PANELISTS_SYSTEM_ROLE"`
	RoleSource string `env:"PANELISTS_ROLE_SOURCE" envDefault:"settings"`
	HashCost   int    `env:"PANELISTS_HASH_COST" envDefault:"10"`
}

// TelemetryConfig holds tracing and metrics settings
type TelemetryConfig struct {
	// OTELEndpoint is the OTLP/HTTP collector address; empty disables export
	OTELEndpoint   string `env:"OTEL_ENDPOINT"`
	ServiceName    string `env:"OTEL_SERVICE_NAME" envDefault:"concordance-api"`
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}

	// Database validation
	switch c.Database.Driver {
	case DriverSurrealDB:
		if c.Database.Host == "" {
			errs = append(errs, errors.New("DB_HOST is required"))
		}
		if c.Database.Port == "" {
			errs = append(errs, errors.New("DB_PORT is required"))
		}
		if c.Database.Namespace == "" {
			errs = append(errs, errors.New("DB_NAMESPACE is required"))
		}
		if c.Database.Database == "" {
			errs = append(errs, errors.New("DB_DATABASE is required"))
		}
	case DriverMemory:
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_DRIVER 'memory' is not allowed in production"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be 'surrealdb' or 'memory', got '%s'", c.Database.Driver))
	}

	// Panelist provisioning validation
	if c.Panelists.RoleSource != RoleSourceEnv && c.Panelists.RoleSource != RoleSourceSettings {
		errs = append(errs, fmt.Errorf("PANELISTS_ROLE_SOURCE must be 'env' or 'settings', got '%s'", c.Panelists.RoleSource))
	}
	if c.Panelists.HashCost < bcrypt.MinCost || c.Panelists.HashCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("PANELISTS_HASH_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}

	if c.Telemetry.ServiceName == "" {
		errs = append(errs, errors.New("OTEL_SERVICE_NAME is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
