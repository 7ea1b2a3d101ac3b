// Package config reads run settings from the environment, after loading
// any .env file found.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/cottand/qualinfer/internal/log"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	EnvHierarchy = "QUALINFER_HIERARCHY"
	EnvDegraded  = "QUALINFER_DEGRADED"
	EnvLogLevel  = "QUALINFER_LOG_LEVEL"
	EnvSections  = "QUALINFER_LOG_SECTIONS"
	EnvOutput    = "QUALINFER_OUTPUT"
)

type Config struct {
	// Hierarchy is the file the qualifier hierarchy is loaded from.
	// Empty selects the interning hierarchy.
	Hierarchy string
	// Degraded turns unrecoverable input inconsistencies into warnings
	Degraded bool
	LogLevel slog.Level
	// Sections are the log sections printed below warn level
	Sections []string
	// Output is where inference writes the problem. Empty means stdout.
	Output string
}

// Load reads files, .env by default, into the environment without
// overriding variables already set, then reads the configuration.
// Missing files are not an error.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, errors.Wrapf(err, "loading %s", f)
		}
	}

	cfg := &Config{
		Hierarchy: strings.TrimSpace(os.Getenv(EnvHierarchy)),
		Output:    strings.TrimSpace(os.Getenv(EnvOutput)),
		LogLevel:  slog.LevelInfo,
	}
	if raw := strings.TrimSpace(os.Getenv(EnvDegraded)); raw != "" {
		degraded, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", EnvDegraded)
		}
		cfg.Degraded = degraded
	}
	if raw := strings.TrimSpace(os.Getenv(EnvLogLevel)); raw != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			return nil, errors.Wrapf(err, "parsing %s", EnvLogLevel)
		}
	}
	if raw := strings.TrimSpace(os.Getenv(EnvSections)); raw != "" {
		for _, section := range strings.Split(raw, ",") {
			if section = strings.TrimSpace(section); section != "" {
				cfg.Sections = append(cfg.Sections, section)
			}
		}
	}
	return cfg, nil
}

// Apply configures logging for cfg
func (cfg *Config) Apply() {
	log.SetLevel(cfg.LogLevel)
	if cfg.Sections != nil {
		log.SetSections(cfg.Sections...)
	}
	if cfg.Degraded {
		log.DefaultLogger.Warn("degraded mode is on: inconsistent input is skipped instead of failing the run")
	}
}
