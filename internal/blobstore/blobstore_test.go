package blobstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageWritesFileWithOriginalExtension(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	id, err := s.Stage("photo.png", []byte("fake-png-bytes"))
	require.NoError(t, err)

	info, err := s.Info(id)
	require.NoError(t, err)
	assert.Equal(t, "photo.png", info.OriginalFilename)
	assert.Equal(t, ".png", filepath.Ext(info.TempPath))

	data, err := os.ReadFile(info.TempPath)
	require.NoError(t, err)
	assert.Equal(t, "fake-png-bytes", string(data))
}

func TestInfoUnknownIDReturnsErrNotFound(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.Info("nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveDeletesFileAndMapping(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	id, err := s.Stage("data.bin", []byte("x"))
	require.NoError(t, err)

	assert.True(t, s.Remove(id))
	_, err = s.Info(id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveUnknownIDReturnsFalse(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	assert.False(t, s.Remove("nope"))
}

func TestCleanupRemovesEverything(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.Stage("a.txt", []byte("1"))
	require.NoError(t, err)
	_, err = s.Stage("b.txt", []byte("2"))
	require.NoError(t, err)

	s.Cleanup()
	assert.Empty(t, s.All())
}
