package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/r-baldridge/jules-aero-researcher/internal/feed"
)

func TestJSONStoreRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seen.json")
	now := time.Now().UTC()

	s := NewJSONStore(path)
	require.NoError(t, s.Load())
	require.False(t, s.Contains("ntrs:1"))

	s.MarkSeen("ntrs:1", now)
	s.MarkSeen("fedreg:2024-001", now)
	require.NoError(t, s.Persist())

	// A fresh store in a "new process" observes every id marked before
	// Persist returned.
	reloaded := NewJSONStore(path)
	require.NoError(t, reloaded.Load())
	require.True(t, reloaded.Contains("ntrs:1"))
	require.True(t, reloaded.Contains("fedreg:2024-001"))
	require.False(t, reloaded.Contains("ntrs:99"))
}

func TestJSONStoreMarkSeenIdempotent(t *testing.T) {
	t.Parallel()

	s := NewJSONStore(filepath.Join(t.TempDir(), "seen.json"))
	require.NoError(t, s.Load())

	first := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s.MarkSeen("ntrs:1", first)
	s.MarkSeen("ntrs:1", first.Add(time.Hour))
	require.Equal(t, 1, s.Len())
}

func TestJSONStoreMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	s := NewJSONStore(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, s.Load())
	require.Equal(t, 0, s.Len())
}

func TestJSONStoreCorruptFileIsFatal(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seen.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s := NewJSONStore(path)
	err := s.Load()
	require.ErrorIs(t, err, feed.ErrStateCorrupt)
}

func TestJSONStoreLegacyListFormat(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seen.json")
	require.NoError(t, os.WriteFile(path, []byte(`["https://a.example/x", "ntrs:7"]`), 0o600))

	s := NewJSONStore(path)
	require.NoError(t, s.Load())
	require.True(t, s.Contains("https://a.example/x"))
	require.True(t, s.Contains("ntrs:7"))
}

func TestJSONStorePersistIsAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "seen.json")

	s := NewJSONStore(path)
	require.NoError(t, s.Load())
	s.MarkSeen("ntrs:1", time.Now())
	require.NoError(t, s.Persist())

	// No temp files left behind after a successful persist.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
