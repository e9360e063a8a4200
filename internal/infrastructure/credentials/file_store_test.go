package credentials

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "access_token")
	store := NewFileStore(path)

	// Empty store: absent, not an error.
	tok, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, tok)

	require.NoError(t, store.Save(ctx, "tok-123"))
	tok, ok, err = store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-123", tok)

	// Save replaces.
	require.NoError(t, store.Save(ctx, "tok-456"))
	tok, _, _ = store.Load(ctx)
	assert.Equal(t, "tok-456", tok)

	require.NoError(t, store.Clear(ctx))
	_, ok, err = store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// Clearing twice is a no-op.
	require.NoError(t, store.Clear(ctx))
}

func TestFileStore_Permissions(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "access_token")
	store := NewFileStore(path)
	require.NoError(t, store.Save(ctx, "secret"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestEncryptedFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "access_token")
	store := NewEncryptedFileStore(path, "hunter2")

	require.NoError(t, store.Save(ctx, "bearer-opaque-token"))

	// The raw file must not contain the token.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "bearer-opaque-token")

	tok, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bearer-opaque-token", tok)
}

func TestEncryptedFileStore_WrongPassphrase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "access_token")
	require.NoError(t, NewEncryptedFileStore(path, "right").Save(ctx, "tok"))

	_, _, err := NewEncryptedFileStore(path, "wrong").Load(ctx)
	assert.Error(t, err)
}
