package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"medical-decision/backend/internal/circuit"
)

// Config is the process configuration read from the environment.
type Config struct {
	Port           string   `env:"PORT" envDefault:"2000"`
	DBPath         string   `env:"DECISION_DB_PATH" envDefault:"data/decisions.db"`
	History        bool     `env:"DECISION_HISTORY" envDefault:"true"`
	SilentDB       bool     `env:"DECISION_DB_SILENT" envDefault:"true"`
	Mode           string   `env:"DECISION_MODE" envDefault:"exact"`
	Shots          int      `env:"DECISION_SHOTS" envDefault:"2000"`
	Seed           uint64   `env:"DECISION_SEED" envDefault:"0"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file and parses the environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil {
		logrus.Debug("no .env file found, using process environment")
	}
	return Parse()
}

// Parse reads the configuration from the process environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values the environment parser cannot.
func (c Config) Validate() error {
	switch c.Mode {
	case circuit.ModeExact, circuit.ModeSampled:
	default:
		return fmt.Errorf("DECISION_MODE must be %q or %q, got %q", circuit.ModeExact, circuit.ModeSampled, c.Mode)
	}
	if c.Shots <= 0 {
		return errors.New("DECISION_SHOTS must be positive")
	}
	if strings.TrimSpace(c.Port) == "" {
		return errors.New("PORT is required")
	}
	return nil
}

// Level returns the configured log level, falling back to info.
func (c Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
