package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withHome(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("USERPROFILE", dir)
}

func TestLoadConfig_MissingYieldsDefaults(t *testing.T) {
	withHome(t)
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, cfg.GetSessionTTL())
}

func TestSaveLoadConfig(t *testing.T) {
	withHome(t)
	require.NoError(t, SaveConfig(&Config{DefaultUser: "alice", SessionTTL: "2h"}))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.DefaultUser)
	assert.Equal(t, 2*time.Hour, cfg.GetSessionTTL())

	bad := &Config{SessionTTL: "forever"}
	assert.Equal(t, 30*time.Minute, bad.GetSessionTTL())
}

func TestSessionLifecycle(t *testing.T) {
	withHome(t)

	assert.False(t, HasSession())
	_, err := LoadSession()
	assert.Error(t, err)

	require.NoError(t, SaveSession([]byte("sealed")))
	assert.True(t, HasSession())
	data, err := LoadSession()
	require.NoError(t, err)
	assert.Equal(t, []byte("sealed"), data)

	require.NoError(t, DeleteSession())
	require.NoError(t, DeleteSession())
	assert.False(t, HasSession())
}
