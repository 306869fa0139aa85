package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "./archboard.db", cfg.Database.Path)
	assert.Equal(t, 50, cfg.History.Limit)
	assert.Equal(t, 400*time.Millisecond, cfg.Animate.Duration.Duration())
	assert.Equal(t, 16*time.Millisecond, cfg.Animate.FrameInterval.Duration())
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: ":9090"
database:
  path: /tmp/boards.db
history:
  limit: 10
animate:
  duration: 250ms
layout:
  horizontal_spacing: 300
cors:
  allowed_origins:
    - https://app.example.com
`), 0644))

	cfg, loadedFrom, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, path, loadedFrom)
	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "/tmp/boards.db", cfg.Database.Path)
	assert.Equal(t, 10, cfg.History.Limit)
	assert.Equal(t, 250*time.Millisecond, cfg.Animate.Duration.Duration())
	assert.Equal(t, 300.0, cfg.Layout.HorizontalSpacing)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORS.AllowedOrigins)

	// Unset fields still fall back to defaults.
	assert.Equal(t, 16*time.Millisecond, cfg.Animate.FrameInterval.Duration())
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromPathRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unclosed"), 0644))

	_, _, err := LoadFromPath(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Listen = ":7000"
	cfg.History.Limit = 5
	require.NoError(t, cfg.Save(path))

	loaded, _, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestFindConfigPathEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: \":1234\"\n"), 0644))
	t.Setenv(EnvConfigPath, path)

	assert.Equal(t, path, FindConfigPath())
}
