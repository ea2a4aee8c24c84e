// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/refharvest/pkg/types"
)

func entry(doi, path string, at time.Time, kind types.SourceKind) types.HistoryEntry {
	return types.HistoryEntry{DOI: doi, FilePath: path, DownloadedAt: at, SourceKind: kind}
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	base := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	store, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, store.Record(entry("10.1000/a", "main/a.pdf", base, types.SourceDirect)))
	require.NoError(t, store.Record(entry("10.1000/b", "ref1/b.pdf", base.Add(time.Minute), types.SourceOpenAccess)))
	want := store.Entries()
	require.NoError(t, store.Close())

	// Reopening loads the same entries back.
	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, 2, store.Len())
	assert.Equal(t, want, store.Entries())

	got, ok := store.Get("10.1000/a")
	require.True(t, ok)
	assert.Equal(t, "main/a.pdf", got.FilePath)
	assert.Equal(t, types.SourceDirect, got.SourceKind)
	assert.True(t, got.DownloadedAt.Equal(base))
}

func TestStoreReplacesOnConflict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Record(entry("10.1000/a", "main/a.pdf", base, types.SourceDirect)))
	require.NoError(t, store.Record(entry("10.1000/a", "cited/a.pdf", base.Add(time.Hour), types.SourceCited)))

	assert.Equal(t, 1, store.Len())
	got, ok := store.Get("10.1000/a")
	require.True(t, ok)
	assert.Equal(t, "cited/a.pdf", got.FilePath)
	assert.Equal(t, types.SourceCited, got.SourceKind)
}

func TestStoreContains(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	assert.False(t, store.Contains("10.1000/a"))
	require.NoError(t, store.Record(entry("10.1000/a", "a.pdf", time.Now().UTC(), types.SourceMirror)))
	assert.True(t, store.Contains("10.1000/a"))
}

func TestStoreEntriesOrdered(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Record(entry("10.1000/late", "l.pdf", base.Add(time.Hour), types.SourceDirect)))
	require.NoError(t, store.Record(entry("10.1000/b", "b.pdf", base, types.SourceDirect)))
	require.NoError(t, store.Record(entry("10.1000/a", "a.pdf", base, types.SourceDirect)))

	entries := store.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "10.1000/a", entries[0].DOI)
	assert.Equal(t, "10.1000/b", entries[1].DOI)
	assert.Equal(t, "10.1000/late", entries[2].DOI)
}
