package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndLoad(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	key, err := store.Save("projects/prj-1/ver-1.json", []byte(`{"ok":true}`))
	require.NoError(t, err)
	assert.Equal(t, "projects/prj-1/ver-1.json", key)

	data, err := store.Load(key)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))
}

func TestLocalStorageResolveContainsTraversal(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(base)
	require.NoError(t, err)

	outside := filepath.Join(filepath.Dir(base), "escape.txt")
	require.NoError(t, os.WriteFile(outside, []byte("outside"), 0o644))

	for _, key := range []string{
		"../escape.txt",
		"nested/../../escape.txt",
		"/etc/passwd",
	} {
		resolved := store.Path(key)
		rel, err := filepath.Rel(base, resolved)
		require.NoError(t, err, "key %q", key)
		assert.False(t, strings.HasPrefix(rel, ".."), "key %q resolved outside base: %s", key, resolved)
	}

	// A traversal key reads a base-relative path, never the outside file.
	_, err = store.Load("../escape.txt")
	require.Error(t, err)
}

func TestLocalStorageDeleteMissingIsNoop(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Delete("never/written.json"))
}
