package storage_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synvya/merchant-connect/internal/storage"
)

func TestFileStorage_MissingFile(t *testing.T) {
	fs, err := storage.Open(filepath.Join(t.TempDir(), "state.yaml"))
	require.NoError(t, err)
	_, ok := fs.Get("access_token")
	assert.False(t, ok)
	assert.Empty(t, fs.Keys())
}

func TestFileStorage_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "state.yaml")

	fs, err := storage.Open(path)
	require.NoError(t, err)
	require.NoError(t, fs.Set("access_token", "abc123"))
	require.NoError(t, fs.Set("merchant_id", "M1"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := storage.Open(path)
	require.NoError(t, err)
	v, ok := reopened.Get("access_token")
	assert.True(t, ok)
	assert.Equal(t, "abc123", v)
	assert.Equal(t, []string{"access_token", "merchant_id"}, reopened.Keys())
}

func TestFileStorage_Remove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	fs, err := storage.Open(path)
	require.NoError(t, err)
	require.NoError(t, fs.Set("a", "1"))
	require.NoError(t, fs.Set("b", "2"))

	require.NoError(t, fs.Remove("a", "missing"))

	reopened, err := storage.Open(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, reopened.Keys())
}

func TestFileStorage_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{{"), 0o600))
	_, err := storage.Open(path)
	assert.Error(t, err)
}

func TestMemory(t *testing.T) {
	m := storage.NewMemory(map[string]string{"x": "1"})
	require.NoError(t, m.Set("y", "2"))
	require.NoError(t, m.Remove("x"))
	assert.Equal(t, map[string]string{"y": "2"}, m.Snapshot())
}
