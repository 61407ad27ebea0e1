// Package config loads application settings from, in order of precedence:
// command-line flags, FLASHCARDS_* environment variables and an optional
// YAML config file. Flag defaults double as the application defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "FLASHCARDS_"

// Config holds all application settings.
type Config struct {
	DB       string `koanf:"db" validate:"required"`
	Listen   string `koanf:"listen" validate:"required,hostname_port"`
	LogLevel string `koanf:"log-level" validate:"required,oneof=debug info warn error"`
	Export   string `koanf:"export" validate:"required"`
}

// Flags returns the flag set the application accepts. The defaults here are
// the application defaults.
func Flags() *pflag.FlagSet {
	f := pflag.NewFlagSet("flashcards", pflag.ContinueOnError)
	f.String("config", "", "Path to an optional YAML config file")
	f.String("db", "flashcards.db", "Path to the SQLite database file")
	f.String("listen", "127.0.0.1:8517", "Address the web UI listens on")
	f.String("log-level", "info", "Log level: debug, info, warn or error")
	f.String("export", "cards.csv", "Default path for CSV export")
	return f
}

// Load merges the config file (if any), environment and flags into a
// validated Config.
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path, _ := f.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// FLASHCARDS_LOG_LEVEL becomes the "log-level" key, and so on.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", "-")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
