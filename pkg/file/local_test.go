package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/koskit/pkg/file"
)

func TestLocalStorage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "proofs", "o1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "proofs", "o1", "a.png"), []byte("png"), 0o600))

	s, err := file.NewLocalStorage(dir, "/files")
	require.NoError(t, err)

	obj, err := s.Stat(ctx, "proofs/o1/a.png")
	require.NoError(t, err)
	assert.Equal(t, "proofs/o1/a.png", obj.Key)
	assert.Equal(t, int64(3), obj.Size)
	assert.Equal(t, "image/png", obj.ContentType)

	ok, err := file.Exists(ctx, s, "proofs/o1/a.png")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = file.Exists(ctx, s, "proofs/o1/missing.png")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = file.Exists(ctx, s, "proofs/o1")
	require.NoError(t, err)
	assert.False(t, ok, "directories are not objects")

	assert.Equal(t, "/files/proofs/o1/a.png", s.URL("proofs/o1/a.png"))
	assert.Equal(t, "/files/a.png", s.URL("../../a.png"))
	assert.Empty(t, s.URL(""))
}

func TestLocalStorage_Confinement(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "secret.txt"), []byte("x"), 0o600))

	s, err := file.NewLocalStorage(filepath.Join(root, "uploads"), "")
	require.NoError(t, err)

	_, err = s.Stat(ctx, "../secret.txt")
	assert.ErrorIs(t, err, file.ErrFileNotFound, "traversal is clamped to the root")

	_, err = s.Stat(ctx, "")
	assert.ErrorIs(t, err, file.ErrInvalidPath)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.Stat(cancelled, "a.png")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, err := file.NewFromConfig(ctx, file.Config{Driver: file.DriverNone})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = file.NewFromConfig(ctx, file.Config{Driver: file.DriverLocal, LocalDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &file.LocalStorage{}, s)

	_, err = file.NewFromConfig(ctx, file.Config{Driver: file.DriverS3})
	assert.ErrorIs(t, err, file.ErrInvalidConfig)

	_, err = file.NewFromConfig(ctx, file.Config{Driver: "ftp"})
	assert.ErrorIs(t, err, file.ErrInvalidConfig)
}
