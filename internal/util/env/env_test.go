package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKeyFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\n\nSYSOP_OS_TAG=win\nexport SYSOP_MATCHER=\"containment\"\nSYSOP_EMPTY=\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	assert.Equal(t, "win", LoadKeyFromEnvFile(path, "SYSOP_OS_TAG"))
	assert.Equal(t, "containment", LoadKeyFromEnvFile(path, "SYSOP_MATCHER"))
	assert.Equal(t, "", LoadKeyFromEnvFile(path, "SYSOP_EMPTY"))
	assert.Equal(t, "", LoadKeyFromEnvFile(path, "SYSOP_MISSING"))
	assert.Equal(t, "", LoadKeyFromEnvFile(filepath.Join(t.TempDir(), "nope"), "SYSOP_OS_TAG"))
}

func TestSaveKeyToEnvFile_PreservesLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", ".env")
	require.NoError(t, SaveKeyToEnvFile(path, "SYSOP_OS_TAG", "linux"))
	require.NoError(t, SaveKeyToEnvFile(path, "SYSOP_MATCHER", "fuzzy"))
	require.NoError(t, SaveKeyToEnvFile(path, "SYSOP_OS_TAG", "win"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "SYSOP_OS_TAG=win\n\nSYSOP_MATCHER=fuzzy\n", string(data))
}

func TestLookup_EnvironmentWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("SYSOP_OS_TAG=win\n"), 0600))

	orig := DefaultEnvFile
	DefaultEnvFile = path
	t.Cleanup(func() { DefaultEnvFile = orig })

	t.Setenv("SYSOP_OS_TAG", "")
	assert.Equal(t, "win", LookupSetting("os_tag"))

	t.Setenv("SYSOP_OS_TAG", "linux")
	assert.Equal(t, "linux", LookupSetting("os_tag"))
}
