package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_UploadAndDelete(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(LocalStorageConfig{BasePath: base, BaseURL: "http://localhost:5000/uploads/"})
	require.NoError(t, err)
	assert.Equal(t, "local", store.GetProviderName())

	ctx := context.Background()
	url, err := store.UploadFile(ctx, strings.NewReader("image-bytes"), 11, "avatars/u1/me.png", "image/png")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000/uploads/avatars/u1/me.png", url)

	data, err := os.ReadFile(filepath.Join(base, "avatars", "u1", "me.png"))
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(data))

	require.NoError(t, store.DeleteFile(ctx, "avatars/u1/me.png"))
	_, err = os.Stat(filepath.Join(base, "avatars"))
	assert.True(t, os.IsNotExist(err), "empty directories are removed")

	assert.NoError(t, store.DeleteFile(ctx, "avatars/u1/me.png"), "deleting a missing file is not an error")
}

func TestLocalStorage_RejectsEscapingPaths(t *testing.T) {
	store, err := NewLocalStorage(LocalStorageConfig{BasePath: t.TempDir(), BaseURL: "/uploads"})
	require.NoError(t, err)

	_, err = store.UploadFile(context.Background(), strings.NewReader("x"), 1, "../outside.txt", "text/plain")
	assert.Error(t, err)

	assert.Error(t, store.DeleteFile(context.Background(), "avatars/../../etc/passwd"))
}
