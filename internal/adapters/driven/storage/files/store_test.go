package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSavePathDeleteRoundTrip(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	path, err := store.Save("abc123", "250211_재직증명서_센싱플러스.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(content))

	resolved, ok := store.Path("abc123")
	require.True(t, ok)
	assert.Equal(t, path, resolved)

	require.NoError(t, store.Delete("abc123"))
	_, ok = store.Path("abc123")
	assert.False(t, ok)

	require.NoError(t, store.Delete("abc123"), "deleting a missing file is not an error")
}

func TestSaveReplacesPreviousFile(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	first, err := store.Save("abc123", "old.pdf", []byte("old"))
	require.NoError(t, err)
	second, err := store.Save("abc123", "new.pdf", []byte("new"))
	require.NoError(t, err)

	_, statErr := os.Stat(first)
	assert.True(t, os.IsNotExist(statErr), "previous file must be removed")

	content, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))
}

func TestSaveSanitisesTraversal(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	require.NoError(t, err)

	path, err := store.Save("abc123", "../../etc/passwd", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
}
