package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{EnvHierarchy, EnvDegraded, EnvLogLevel, EnvSections, EnvOutput} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, &Config{LogLevel: slog.LevelInfo}, cfg)
}

func TestEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvHierarchy, "nullness.yaml")
	t.Setenv(EnvDegraded, "true")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvSections, "registry, traversal,")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "nullness.yaml", cfg.Hierarchy)
	assert.True(t, cfg.Degraded)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, []string{"registry", "traversal"}, cfg.Sections)
}

func TestDotEnvDoesNotOverride(t *testing.T) {
	clearEnv(t)
	dotenv := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte("QUALINFER_OUTPUT=problem.yaml\nQUALINFER_HIERARCHY=from-file.yaml\n"), 0o600))
	t.Setenv(EnvHierarchy, "from-env.yaml")

	cfg, err := Load(dotenv)
	require.NoError(t, err)
	assert.Equal(t, "problem.yaml", cfg.Output)
	assert.Equal(t, "from-env.yaml", cfg.Hierarchy)
}

func TestInvalidValues(t *testing.T) {
	tests := map[string]string{
		EnvDegraded: "sometimes",
		EnvLogLevel: "loud",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.ErrorContains(t, err, key)
		})
	}
}
