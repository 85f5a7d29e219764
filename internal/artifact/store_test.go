package artifact

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSave(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	art, err := s.Save([]byte("audio-bytes"))
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^audio-\d+\.webm$`), art.Name)
	assert.Equal(t, URLPrefix+art.Name, art.URL)

	data, err := os.ReadFile(art.Path)
	require.NoError(t, err)
	assert.Equal(t, "audio-bytes", string(data))
	assert.True(t, s.Exists(art.URL))
}

func TestStoreSaveUniqueNames(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	a, err := s.Save([]byte("one"))
	require.NoError(t, err)
	b, err := s.Save([]byte("two"))
	require.NoError(t, err)

	assert.NotEqual(t, a.Name, b.Name)
}

func TestStoreDelete(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	art, err := s.Save([]byte("bytes"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(art.URL))
	assert.False(t, s.Exists(art.URL))

	// Deleting again is fine.
	assert.NoError(t, s.Delete(art.URL))
}

func TestStoreDeleteIgnoresForeignPaths(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	outside := filepath.Join(dir, "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	assert.NoError(t, s.Delete("/elsewhere/keep.txt"))
	assert.NoError(t, s.Delete(URLPrefix+"../keep.txt"))

	_, err = os.Stat(outside)
	assert.NoError(t, err, "files outside the artifact namespace must not be touched")
}

func TestNewStoreCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	_, err := NewStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
