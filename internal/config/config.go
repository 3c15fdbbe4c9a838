// Package config loads runtime settings from the environment.
//
// A .env file in the working directory is loaded first when present;
// variables already set in the process environment win.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrInvalidConfig indicates a setting is out of range.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds every tunable of the CLI and HTTP server.
type Config struct {
	// TimeStep is the TOTP window in seconds.
	TimeStep int64 `env:"TOTP_TIME_STEP" envDefault:"30"`
	// BatchWorkers bounds concurrent evaluation of batch lines.
	BatchWorkers int `env:"TOTP_BATCH_WORKERS" envDefault:"8"`
	// RefreshInterval is the tick of the watch loop.
	RefreshInterval time.Duration `env:"TOTP_REFRESH_INTERVAL" envDefault:"1s"`
	// VerifySkew is the number of steps accepted on either side when verifying.
	VerifySkew uint `env:"TOTP_VERIFY_SKEW" envDefault:"1"`

	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	HTTPReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`

	Env      string `env:"APP_ENV" envDefault:"dev"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads .env (if any) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Parse reads configuration from the given variables only.
func Parse(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.TimeStep <= 0 {
		return fmt.Errorf("%w: TOTP_TIME_STEP must be greater than zero", ErrInvalidConfig)
	}
	if c.BatchWorkers < 1 {
		return fmt.Errorf("%w: TOTP_BATCH_WORKERS must be at least 1", ErrInvalidConfig)
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("%w: TOTP_REFRESH_INTERVAL must be positive", ErrInvalidConfig)
	}
	if c.HTTPReadTimeout <= 0 {
		return fmt.Errorf("%w: HTTP_READ_TIMEOUT must be positive", ErrInvalidConfig)
	}
	return nil
}
