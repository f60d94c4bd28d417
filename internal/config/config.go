// Package config loads server configuration from the environment.
package config

import (
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/calistree/progression-api/internal/errors"
)

// Config holds all server settings. Every field has an environment
// override; the port can additionally be set with a flag.
type Config struct {
	// GRPCPort is where the health/reflection surface listens
	GRPCPort int `env:"GRPC_PORT" envDefault:"50051"`

	// RedisAddr is the document store endpoint
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`

	// UserID selects the static auth identity. Empty runs the server in
	// guest mode with no persistence.
	UserID string `env:"PROGRESSION_USER_ID"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// LogFile enables rotating file output when set; empty logs to stdout
	LogFile       string `env:"LOG_FILE"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"50"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`
}

// Load parses configuration from the environment
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges after parsing
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.GRPCPort <= 0 || c.GRPCPort > 65535 {
		vb.Field("GRPC_PORT", "must be between 1 and 65535")
	}
	if c.RedisAddr == "" {
		vb.RequiredField("REDIS_ADDR")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		vb.Field("LOG_LEVEL", "must be one of debug, info, warn, error")
	}

	return vb.Build()
}

// SlogLevel maps the configured level onto slog
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
