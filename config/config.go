package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env  string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port string `env:"PORT" envDefault:"8080" validate:"required"`

	DatabaseURL  string        `env:"DATABASE_URL,required" validate:"required"`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" envDefault:"2s"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	// Signing secrets are distinct per token family so one can never
	// verify as the other.
	AccessTokenSecret  string        `env:"ACCESS_TOKEN_SECRET,required"  validate:"required,min=32"`
	AccessTokenTTL     time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenSecret string        `env:"REFRESH_TOKEN_SECRET,required" validate:"required,min=32"`
	RefreshTokenTTL    time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"720h"`

	VerifyEmailTokenTTL   time.Duration `env:"VERIFY_EMAIL_TOKEN_TTL" envDefault:"24h"`
	ResetPasswordTokenTTL time.Duration `env:"RESET_PASSWORD_TOKEN_TTL" envDefault:"1h"`

	ResendAPIKey  string `env:"RESEND_API_KEY"      validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom    string `env:"RESEND_FROM"         validate:"required_if=Env production,required_if=Env staging"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL"     envDefault:"http://localhost:8080"`

	SweepSchedule string `env:"SWEEP_SCHEDULE" envDefault:"@every 10m"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

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
