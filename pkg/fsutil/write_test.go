package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nginx.conf")

	err := WriteFileAtomic(path, []byte("server_tokens off;\n"), 0o644)
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "server_tokens off;\n", string(got))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestEnsureFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "sshd_config")
	content := []byte("PermitRootLogin no\n")

	changed, err := EnsureFile(path, content, 0o644)
	require.NoError(t, err)
	assert.True(t, changed, "first write should report changed")

	changed, err = EnsureFile(path, content, 0o644)
	require.NoError(t, err)
	assert.False(t, changed, "identical rewrite should report unchanged")

	// Second run must be byte-identical to the first.
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	changed, err = EnsureFile(path, []byte("PermitRootLogin prohibit-password\n"), 0o644)
	require.NoError(t, err)
	assert.True(t, changed, "content drift should report changed")
}

func TestEnsureFileFixesMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cred")
	content := []byte("secret")

	_, err := EnsureFile(path, content, 0o644)
	require.NoError(t, err)

	changed, err := EnsureFile(path, content, 0o600)
	require.NoError(t, err)
	assert.True(t, changed, "mode drift should report changed")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestEnsureDir(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a", "b")

	created, err := EnsureDir(target, 0o755)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = EnsureDir(target, 0o755)
	require.NoError(t, err)
	assert.False(t, created)

	file := filepath.Join(dir, "plain")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = EnsureDir(file, 0o755)
	assert.Error(t, err)
}
