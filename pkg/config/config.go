package config

import (
	"fmt"
	"time"

	"github.com/antagonist-oracle/oracle-bot/internal/card"
	redispkg "github.com/antagonist-oracle/oracle-bot/pkg/redis"
)

// Config holds runtime configuration for the oracle bot.
type Config struct {
	AppEnv string

	Bot       BotConfig       `mapstructure:"bot"`
	Server    ServerConfig    `mapstructure:"server"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Redis     redispkg.Config `mapstructure:"redis"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Deck      DeckConfig      `mapstructure:"deck"`
	Reveal    card.Pacing     `mapstructure:"reveal"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
}

// BotConfig configures the Telegram connection.
type BotConfig struct {
	Token   string        `mapstructure:"token" validate:"required"`
	Mode    string        `mapstructure:"mode" validate:"oneof=long_poll webhook"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ServerConfig configures the ops HTTP server (metrics and health).
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggerConfig configures slog output.
type LoggerConfig struct {
	Level  string        `mapstructure:"level"`
	Format string        `mapstructure:"format" validate:"omitempty,oneof=json text"`
	File   LogFileConfig `mapstructure:"file"`
}

// LogFileConfig enables rotated file output when Path is set.
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// DatabaseConfig selects and configures the profile store backend.
type DatabaseConfig struct {
	Driver        string         `mapstructure:"driver" validate:"oneof=bolt postgres"`
	DataDir       string         `mapstructure:"data_dir"`
	MigrationsDir string         `mapstructure:"migrations_dir"`
	Postgres      PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// DSN returns a PostgreSQL connection string based on config values.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
	)
}

// DeckConfig points at the strategies file.
type DeckConfig struct {
	Path        string `mapstructure:"path" validate:"required"`
	MaxLines    int    `mapstructure:"max_lines" validate:"min=0"`
	WatchReload bool   `mapstructure:"watch_reload"`
}

// RateLimitRule is a limit over a window expressed as a duration string.
type RateLimitRule struct {
	Limit  int    `mapstructure:"limit"`
	Window string `mapstructure:"window"`
}

// RateLimitCommands holds per-command rules.
type RateLimitCommands struct {
	Draw RateLimitRule `mapstructure:"draw"`
}

// RateLimitConfig configures the sliding-window limiter. Backend selects
// where windows live: "redis" (shared, default) or "memory" (per-process).
type RateLimitConfig struct {
	Enabled   bool              `mapstructure:"enabled"`
	Backend   string            `mapstructure:"backend" validate:"omitempty,oneof=redis memory"`
	PerUser   RateLimitRule     `mapstructure:"per_user"`
	Global    RateLimitRule     `mapstructure:"global"`
	Commands  RateLimitCommands `mapstructure:"commands"`
	Whitelist []int64           `mapstructure:"whitelist"`
}

// JobsConfig configures the asynq worker and scheduler.
type JobsConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Concurrency   int    `mapstructure:"concurrency"`
	DailyCardCron string `mapstructure:"daily_card_cron"`
}

// SentryConfig configures error reporting.
type SentryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}
