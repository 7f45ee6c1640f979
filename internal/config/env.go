// Package config reads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Env holds environment overrides. Empty values fall back to the user's
// settings and OS defaults.
type Env struct {
	ConfigDir       string        `env:"TIMETRACKER_CONFIG_DIR"`
	DBPath          string        `env:"TIMETRACKER_DB_PATH"`
	RefreshInterval time.Duration `env:"TIMETRACKER_REFRESH_INTERVAL"`
	Headless        bool          `env:"TIMETRACKER_HEADLESS" envDefault:"false"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadEnv parses Env from the process environment.
func LoadEnv() (Env, error) {
	var cfg Env
	if err := ParseEnv(&cfg); err != nil {
		return Env{}, err
	}
	return cfg, nil
}
