package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	Matching  MatchingConfig  `mapstructure:"matching" validate:"required"`
	Sessions  SessionsConfig  `mapstructure:"sessions" validate:"required"`
	Sweep     SweepConfig     `mapstructure:"sweep" validate:"required"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
}

// ShutdownTimeout is the grace period for in-flight requests on shutdown.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DatabaseConfig contains all database-related configuration settings.
// URL is required by the postgres driver only.
type DatabaseConfig struct {
	Driver                 string `mapstructure:"driver" validate:"required,oneof=postgres memory"`
	URL                    string `mapstructure:"url" validate:"omitempty,url"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" validate:"gte=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// MatchingConfig bounds match queries.
type MatchingConfig struct {
	MaxLimit int `mapstructure:"max_limit" validate:"required,gt=0"`
}

// SessionsConfig holds the first-session defaults used when a request is
// accepted without a proposal.
type SessionsConfig struct {
	DefaultLeadTimeHours   int    `mapstructure:"default_lead_time_hours" validate:"gte=0"`
	DefaultDurationMinutes int    `mapstructure:"default_duration_minutes" validate:"required,gt=0"`
	DefaultLocation        string `mapstructure:"default_location" validate:"required"`
}

// SweepConfig controls the background completion sweep.
type SweepConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalSeconds int  `mapstructure:"interval_seconds" validate:"required,gt=0"`
	BatchSize       int  `mapstructure:"batch_size" validate:"required,gt=0"`
}

// Interval is the time between sweeps.
func (c SweepConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// RateLimitConfig is the per-user request budget of the API.
type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute" validate:"required,gt=0"`
	Burst             int `mapstructure:"burst" validate:"required,gt=0"`
}
