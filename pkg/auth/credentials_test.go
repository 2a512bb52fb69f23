package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCredentialsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "host.key")
	require.NoError(t, (&Credentials{Hostname: "web1", Key: "k-123"}).Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	creds, err := LoadCredentials(path)
	require.NoError(t, err)
	require.Equal(t, &Credentials{Hostname: "web1", Key: "k-123"}, creds)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary file must not be left behind")
}

func TestSaveRejectsEmptyKey(t *testing.T) {
	require.Error(t, (&Credentials{Hostname: "web1"}).Save(filepath.Join(t.TempDir(), "host.key")))
}

func TestLoadCredentialsErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadCredentials(filepath.Join(dir, "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad")
	require.NoError(t, os.WriteFile(bad, []byte("not json"), 0o600))
	_, err = LoadCredentials(bad)
	require.Error(t, err)

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, []byte(`{"key":""}`), 0o600))
	_, err = LoadCredentials(empty)
	require.Error(t, err)
}

func TestResolveKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "host.key")

	key, err := ResolveKey("explicit", path, "web1")
	require.NoError(t, err)
	require.Equal(t, "explicit", key)

	key, err = ResolveKey("", path, "web1")
	require.NoError(t, err)
	require.Empty(t, key, "missing file means anonymous")

	require.NoError(t, (&Credentials{Hostname: "web1", Key: "stored"}).Save(path))
	key, err = ResolveKey("", path, "web1")
	require.NoError(t, err)
	require.Equal(t, "stored", key)

	_, err = ResolveKey("", path, "web2")
	require.Error(t, err)
}
