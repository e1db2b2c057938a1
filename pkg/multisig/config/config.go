package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"

	"github.com/coinbase/cb-multisig-go/pkg/multisig"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/coordinator"
	"github.com/coinbase/cb-multisig-go/pkg/multisig/logging"
)

// Config holds process-level settings. Backends left empty are disabled:
// no SQLitePath means an in-memory key store and no RedisAddr means events
// stay in memory.
type Config struct {
	ExpiryWindow            uint64             `env:"MULTISIG_EXPIRY_WINDOW"             envDefault:"10"`
	Threshold               multisig.Threshold `env:"MULTISIG_THRESHOLD"                 envDefault:"2/3"`
	RequireAuthorizedCaller bool               `env:"MULTISIG_REQUIRE_AUTHORIZED_CALLER"`
	SQLitePath              string             `env:"MULTISIG_SQLITE_PATH"`
	RedisAddr               string             `env:"MULTISIG_REDIS_ADDR"`
	RedisStream             string             `env:"MULTISIG_REDIS_STREAM"              envDefault:"multisig:events"`
	LogLevel                string             `env:"MULTISIG_LOG_LEVEL"                 envDefault:"info"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges the parser cannot.
func (c Config) Validate() error {
	if c.ExpiryWindow == 0 {
		return errors.New("config: MULTISIG_EXPIRY_WINDOW must be positive")
	}
	if err := c.Threshold.Validate(); err != nil {
		return fmt.Errorf("config: MULTISIG_THRESHOLD: %w", err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: MULTISIG_LOG_LEVEL: %w", err)
	}
	return nil
}

// SlogLevel returns the configured log level.
func (c Config) SlogLevel() slog.Level {
	level, _ := logging.ParseLevel(c.LogLevel)
	return level
}

// CoordinatorOptions maps the configuration onto coordinator options.
func (c Config) CoordinatorOptions(logger logging.Logger) *coordinator.Options {
	return &coordinator.Options{
		DefaultThreshold:        c.Threshold,
		ExpiryWindow:            c.ExpiryWindow,
		RequireAuthorizedCaller: c.RequireAuthorizedCaller,
		Logger:                  logger,
	}
}
