package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestFilesystemStore(t *testing.T) *FilesystemBlobStore {
	t.Helper()
	store, err := NewFilesystemBlobStore(filepath.Join(t.TempDir(), "anexos"), "/files/", zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewFilesystemBlobStore(t *testing.T) {
	_, err := NewFilesystemBlobStore("", "/files", nil)
	require.Error(t, err)

	dir := filepath.Join(t.TempDir(), "nested", "anexos")
	store, err := NewFilesystemBlobStore(dir, "/files", nil)
	require.NoError(t, err)
	defer store.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, dir, store.Dir())
}

func TestFilesystemBlobStore_Upload(t *testing.T) {
	store := newTestFilesystemStore(t)
	ctx := context.Background()

	key := "solicitud_42/1760693400000_abc12345_acta_de_descargos.pdf"
	url, err := store.Upload(ctx, key, strings.NewReader("%PDF-1.4"), 8, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "/files/"+key, url)

	data, err := os.ReadFile(filepath.Join(store.Dir(), filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	t.Run("existing key is not overwritten", func(t *testing.T) {
		_, err := store.Upload(ctx, key, strings.NewReader("otro"), 4, "text/plain")
		require.Error(t, err)
	})

	t.Run("size mismatch removes the partial blob", func(t *testing.T) {
		short := "solicitud_42/short.txt"
		_, err := store.Upload(ctx, short, strings.NewReader("abc"), 10, "text/plain")
		require.Error(t, err)
		_, statErr := os.Stat(filepath.Join(store.Dir(), "solicitud_42", "short.txt"))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("keys cannot escape the directory", func(t *testing.T) {
		_, err := store.Upload(ctx, "../fuera.txt", strings.NewReader("x"), 1, "text/plain")
		require.Error(t, err)
		_, err = store.Upload(ctx, "", strings.NewReader("x"), 1, "text/plain")
		require.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := store.Upload(cctx, "solicitud_42/late.txt", strings.NewReader("x"), 1, "text/plain")
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestFilesystemBlobStore_Remove(t *testing.T) {
	store := newTestFilesystemStore(t)
	ctx := context.Background()

	_, err := store.Upload(ctx, "solicitud_1/a.png", strings.NewReader("png"), 3, "image/png")
	require.NoError(t, err)
	_, err = store.Upload(ctx, "solicitud_1/b.png", strings.NewReader("png"), 3, "image/png")
	require.NoError(t, err)

	err = store.Remove(ctx, []string{"solicitud_1/a.png", "solicitud_1/missing.png", "solicitud_1/b.png"})
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(store.Dir(), "solicitud_1"))
	require.NoError(t, err)
	assert.Empty(t, entries)

	err = store.Remove(ctx, []string{"../etc/passwd"})
	require.Error(t, err)
}

func TestFilesystemBlobStore_PublicURL(t *testing.T) {
	store := newTestFilesystemStore(t)
	assert.Equal(t, "/files/solicitud_1/foto%201.jpg", store.PublicURL("solicitud_1/foto 1.jpg"))
}
