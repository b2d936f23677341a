package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(path, []byte("  from-file \n"), 0o600))

	got, err := Load(Source{Name: "api key", Value: "inline", File: path})
	require.NoError(t, err)
	assert.Equal(t, "from-file", got)
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(path, []byte("\n"), 0o600))

	_, err := Load(Source{Name: "api key", File: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is empty")
}

func TestLoadFallsBackToEnv(t *testing.T) {
	t.Setenv("SMART_APPLY_TEST_KEY", " env-secret ")

	got, err := Load(Source{Env: "SMART_APPLY_TEST_KEY"})
	require.NoError(t, err)
	assert.Equal(t, "env-secret", got)

	got, err = Load(Source{Value: "inline", Env: "SMART_APPLY_TEST_KEY"})
	require.NoError(t, err)
	assert.Equal(t, "inline", got)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(Source{Name: "gemini api key"})
	require.EqualError(t, err, "gemini api key is not configured")

	_, err = Load(Source{Env: "SMART_APPLY_DEFINITELY_UNSET"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "$SMART_APPLY_DEFINITELY_UNSET")
}
