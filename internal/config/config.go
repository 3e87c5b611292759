// Package config reads the generator's settings from KINFORGE_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/talgya/kinforge/internal/family"
)

// Config is the CLI configuration. Zero Seed means a fresh crypto seed.
type Config struct {
	Seed          int64  `env:"SEED"`
	Template      string `env:"TEMPLATE"`
	NamesDir      string `env:"NAMES_DIR" envDefault:"names"`
	DBPath        string `env:"DB"`
	Depth         int    `env:"DEPTH" envDefault:"1"`
	ImmediateOnly bool   `env:"IMMEDIATE_ONLY"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	Count         int    `env:"COUNT" envDefault:"1"`

	// HTTP API; Port 0 runs the one-shot CLI instead.
	Port        int      `env:"PORT"`
	AdminKey    string   `env:"ADMIN_KEY"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`
	MaxDepth    int      `env:"MAX_DEPTH" envDefault:"4"`

	Decay            float64 `env:"DECAY" envDefault:"0.75"`
	ConventionChance float64 `env:"CONVENTION_CHANCE" envDefault:"25"`
	TwinChance       float64 `env:"TWIN_CHANCE" envDefault:"3"`
	TwinDecay        float64 `env:"TWIN_DECAY" envDefault:"0.1"`
	ExChildChance    float64 `env:"EX_CHILD_CHANCE" envDefault:"50"`
	MajorityAge      int     `env:"MAJORITY_AGE" envDefault:"18"`
	MaxAge           int     `env:"MAX_AGE" envDefault:"110"`
}

// Prefix is prepended to every variable name.
const Prefix = "KINFORGE_"

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: Prefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the generator cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Depth < 0:
		return fmt.Errorf("%sDEPTH must be >= 0, got %d", Prefix, c.Depth)
	case c.Port < 0 || c.Port > 65535:
		return fmt.Errorf("%sPORT out of range: %d", Prefix, c.Port)
	case c.Depth > c.MaxDepth:
		return fmt.Errorf("%sDEPTH %d exceeds %sMAX_DEPTH %d", Prefix, c.Depth, Prefix, c.MaxDepth)
	case c.Count < 1:
		return fmt.Errorf("%sCOUNT must be >= 1, got %d", Prefix, c.Count)
	case c.Decay <= 0 || c.Decay > 1:
		return fmt.Errorf("%sDECAY must be in (0,1], got %g", Prefix, c.Decay)
	case c.MaxAge <= c.MajorityAge:
		return fmt.Errorf("%sMAX_AGE must exceed %sMAJORITY_AGE", Prefix, Prefix)
	}
	return nil
}

// Settings maps the tunables onto the generator's settings.
func (c Config) Settings() family.Settings {
	return family.Settings{
		Decay:            c.Decay,
		ConventionChance: c.ConventionChance,
		TwinChance:       c.TwinChance,
		TwinDecay:        c.TwinDecay,
		ExChildChance:    c.ExChildChance,
		MajorityAge:      c.MajorityAge,
		MaxAge:           c.MaxAge,
	}
}

// Level parses LogLevel, defaulting to info.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return l
}
