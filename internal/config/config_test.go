package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "./data/bolsillito.db", cfg.Database.Path)
	assert.Equal(t, 100, cfg.Batching.CacheQuiescenceMs)
	assert.Equal(t, 250, cfg.Batching.SaveWindowMs)
}

func TestLoad_YamlFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "application.yaml")
	yaml := "listen: \":9090\"\ndb:\n  path: \"/tmp/test.db\"\nbatching:\n  savewindowms: 500\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "/tmp/test.db", cfg.Database.Path)
	assert.Equal(t, 500, cfg.Batching.SaveWindowMs)
	// Untouched keys keep their defaults.
	assert.Equal(t, 100, cfg.Batching.CacheQuiescenceMs)
}

func TestLoad_EnvOverridesEverything(t *testing.T) {
	path := filepath.Join(t.TempDir(), "application.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: \":9090\"\n"), 0644))
	t.Setenv("BOLSILLITO_LISTEN", ":7070")
	t.Setenv("BOLSILLITO_LOGLEVEL", "debug")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Listen)
	assert.Equal(t, "debug", cfg.LogLevel)
}
