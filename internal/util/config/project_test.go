package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProjectConfig_DefaultsWhenAbsent(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SYSOP_OS_TAG", "")
	t.Setenv("SYSOP_PLAYBACK_DELAY_MS", "")

	cfg, err := LoadProjectConfig()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.True(t, cfg.Watch())
	assert.False(t, ProjectConfigExists())
}

func TestSaveAndLoad_MergesOverDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SYSOP_MATCHER", "")

	off := false
	require.NoError(t, SaveProjectConfig(&ProjectConfig{Matcher: "containment", WatchCatalogue: &off}))
	assert.True(t, ProjectConfigExists())

	cfg, err := LoadProjectConfig()
	require.NoError(t, err)
	assert.Equal(t, "containment", cfg.Matcher)
	assert.False(t, cfg.Watch())
	assert.Equal(t, "snowball", cfg.Lemmatizer)
	assert.Equal(t, 500*time.Millisecond, cfg.PlaybackDelay())
}

func TestLoadProjectConfig_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.MkdirAll(Dir(), 0o755))
	require.NoError(t, os.WriteFile(GetProjectEnvPath(), []byte("SYSOP_PLAYBACK_DELAY_MS=0\n"), 0o600))
	t.Setenv("SYSOP_OS_TAG", "win")
	t.Setenv("SYSOP_PLAYBACK_DELAY_MS", "")
	t.Setenv("SYSOP_WATCH_CATALOGUE", "false")

	cfg, err := LoadProjectConfig()
	require.NoError(t, err)
	assert.Equal(t, "win", cfg.OSTag)
	assert.Equal(t, time.Duration(0), cfg.PlaybackDelay())
	assert.False(t, cfg.Watch())
}

func TestLoadProjectConfig_InvalidValues(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("SYSOP_PLAYBACK_DELAY_MS", "soon")
	_, err := LoadProjectConfig()
	assert.Error(t, err)

	t.Setenv("SYSOP_PLAYBACK_DELAY_MS", "")
	require.NoError(t, os.MkdirAll(Dir(), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(Dir(), "config.json"), []byte("{broken"), 0o644))
	_, err = LoadProjectConfig()
	assert.Error(t, err)
}

func TestSet(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Set("os_tag", "win"))
	require.NoError(t, cfg.Set("playback_delay_ms", "250"))
	require.NoError(t, cfg.Set("watch_catalogue", "false"))
	assert.Equal(t, "win", cfg.OSTag)
	assert.Equal(t, 250*time.Millisecond, cfg.PlaybackDelay())
	assert.False(t, cfg.Watch())

	assert.Error(t, cfg.Set("playback_delay_ms", "-1"))
	assert.Error(t, cfg.Set("nope", "x"))
}
