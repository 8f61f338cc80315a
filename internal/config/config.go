// Package config loads application configuration from file and environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix is stripped from environment variables before mapping them onto
// config keys. Double underscore separates nesting levels so that keys with
// underscores survive, e.g. ZAPMANAGER_DATABASE__MAX_OPEN_CONNS ->
// database.max_open_conns.
const envPrefix = "ZAPMANAGER_"

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Log       LogConfig       `koanf:"log"`
	JWT       JWTConfig       `koanf:"jwt"`
	CORS      CORSConfig      `koanf:"cors"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Lifecycle LifecycleConfig `koanf:"lifecycle"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port" validate:"required"`
	MetricsPort       string        `koanf:"metrics_port" validate:"required,nefield=Port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
}

// DatabaseConfig contains PostgreSQL settings.
type DatabaseConfig struct {
	URL             string        `koanf:"url" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"min=1"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	ConnectAttempts int           `koanf:"connect_attempts" validate:"min=1"`
	MigrationsPath  string        `koanf:"migrations_path"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// JWTConfig contains admin token settings.
type JWTConfig struct {
	SecretKey string `koanf:"secret_key" validate:"required,min=32"`
}

// CORSConfig contains CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// SchedulerConfig controls the internal hourly trigger and the shared token
// accepted from an external cron caller.
type SchedulerConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Token    string        `koanf:"token"`
	Interval time.Duration `koanf:"interval" validate:"min=1m"`
}

// LifecycleConfig tunes the access-lifecycle engine.
type LifecycleConfig struct {
	// Timezone anchors the hour gates and calendar-day comparisons.
	Timezone string `koanf:"timezone" validate:"required"`
	// GraceWindow is how long an EXPIRED subscription keeps access
	// before being blocked.
	GraceWindow time.Duration `koanf:"grace_window" validate:"min=1h"`
	// SuspendOnBlock makes the scheduled blockage sweep suspend the
	// user's automation resources, same as a manual admin block.
	SuspendOnBlock bool `koanf:"suspend_on_block"`
	// SendRatePerSecond throttles outgoing SMTP sends within a sweep.
	SendRatePerSecond float64 `koanf:"send_rate_per_second" validate:"gt=0"`
	// PlanCacheTTL bounds staleness of per-plan label lookups.
	PlanCacheTTL time.Duration `koanf:"plan_cache_ttl" validate:"min=1s"`
}

// Default returns the configuration defaults applied before file and
// environment overrides.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              "8080",
			MetricsPort:       "9090",
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
			ConnectTimeout:  30 * time.Second,
			ConnectAttempts: 5,
			MigrationsPath:  "migrations",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{},
		},
		Scheduler: SchedulerConfig{
			Enabled:  true,
			Interval: time.Hour,
		},
		Lifecycle: LifecycleConfig{
			Timezone:          "America/Sao_Paulo",
			GraceWindow:       24 * time.Hour,
			SuspendOnBlock:    true,
			SendRatePerSecond: 5,
			PlanCacheTTL:      5 * time.Minute,
		},
	}
}

// Load reads configuration from an optional YAML file and the environment,
// applies defaults and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
