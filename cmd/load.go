package cmd

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cottand/qualinfer/frontend/ast"
	"github.com/cottand/qualinfer/frontend/qual"
	"github.com/cottand/qualinfer/frontend/typefactory"
	"github.com/cottand/qualinfer/internal/config"
	"github.com/cottand/qualinfer/qualinfer"
	"github.com/spf13/cobra"
)

// runFlags are shared by check and infer. Set flags take precedence over
// the environment.
type runFlags struct {
	hierarchy string
	degraded  bool
	logLevel  int
}

func (f *runFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&f.hierarchy, "hierarchy", "", "qualifier hierarchy file (.yaml or .go); the interning hierarchy when empty")
	c.Flags().BoolVar(&f.degraded, "degraded", false, "skip inconsistent input with a warning instead of failing")
	c.Flags().IntVarP(&f.logLevel, "log-level", "l", int(slog.LevelWarn), "log level")
}

func (f *runFlags) config(c *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("could not load configuration: %w", err)
	}
	if c.Flags().Changed("hierarchy") {
		cfg.Hierarchy = f.hierarchy
	}
	if c.Flags().Changed("degraded") {
		cfg.Degraded = f.degraded
	}
	if c.Flags().Changed("log-level") || os.Getenv(config.EnvLogLevel) == "" {
		cfg.LogLevel = slog.Level(f.logLevel)
	}
	cfg.Apply()
	return cfg, nil
}

// settings loads the configured hierarchy, if any, into run settings
func settings(cfg *config.Config, mode typefactory.Mode) (qualinfer.Settings, error) {
	s := qualinfer.Settings{Mode: mode, Degraded: cfg.Degraded}
	if cfg.Hierarchy != "" {
		h, err := qual.LoadFile(cfg.Hierarchy)
		if err != nil {
			return s, fmt.Errorf("could not load hierarchy: %w", err)
		}
		s.Hierarchy = h
	}
	return s, nil
}

// loadTarget reads the program in a folder, or in the folder of a file
func loadTarget(arg string) (*ast.Program, error) {
	target, err := filepath.Abs(arg)
	if err != nil {
		return nil, fmt.Errorf("could not get absolute path of target: %w", err)
	}
	stat, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("could not stat target: %w", err)
	}

	if !stat.IsDir() {
		src, err := os.ReadFile(target)
		if err != nil {
			return nil, err
		}
		return qualinfer.ParseProgram(src)
	}
	var folderFS fs.FS = os.DirFS(target)
	return qualinfer.LoadProgram(folderFS, ".")
}
