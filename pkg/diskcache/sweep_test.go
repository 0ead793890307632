package diskcache

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSweepEntry drops one raw entry file with the given size and expiry marker.
func writeSweepEntry(t *testing.T, root, name string, size int, expireAt time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(root, 0o755))
	path := filepath.Join(root, name)
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("x"), size), 0o644))
	require.NoError(t, os.Chtimes(path, expireAt, expireAt))
}

// remainingNames lists the regular files left under the root.
func remainingNames(t *testing.T, root string) []string {
	t.Helper()
	entries, err := ScanRoot(root)
	require.NoError(t, err)
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name
	}
	return names
}

func TestRunSweep_RemovesExpiredUnconditionally(t *testing.T) {
	root := t.TempDir()
	now := time.Now()
	writeSweepEntry(t, root, "expired1", 10, now.Add(-time.Hour))
	writeSweepEntry(t, root, "expired2", 10, now.Add(-time.Second))
	writeSweepEntry(t, root, "live", 10, now.Add(time.Hour))

	stats, err := runSweep(root, 0 /*maxSize*/, NewestFirst, now)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.scanned)
	assert.Equal(t, 2, stats.expired)
	assert.Equal(t, 0, stats.evicted)
	assert.ElementsMatch(t, []string{"live"}, remainingNames(t, root))
}

func TestRunSweep_EvictsNewestFirstToHalfBudget(t *testing.T) {
	// Five live entries of 300 bytes each (1500 total) against a 1000 byte budget.
	// The sweep must evict newest-expiry-first until usage drops under 500, leaving
	// exactly the entry with the oldest expiry marker.
	root := t.TempDir()
	now := time.Now()
	for i, name := range []string{"oldest", "older", "middle", "newer", "newest"} {
		writeSweepEntry(t, root, name, 300, now.Add(time.Duration(i+1)*time.Hour))
	}

	stats, err := runSweep(root, 1000 /*maxSize*/, NewestFirst, now)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.expired)
	assert.Equal(t, 4, stats.evicted)
	assert.Equal(t, int64(300), stats.liveBytesAfter)
	assert.Less(t, stats.liveBytesAfter, int64(500), "Usage must end under maxSize/2")
	assert.Equal(t, []string{"oldest"}, remainingNames(t, root),
		"Newest-first eviction must leave the oldest expiry marker standing")
}

func TestRunSweep_EvictsOldestFirstWhenConfigured(t *testing.T) {
	root := t.TempDir()
	now := time.Now()
	for i, name := range []string{"oldest", "older", "middle", "newer", "newest"} {
		writeSweepEntry(t, root, name, 300, now.Add(time.Duration(i+1)*time.Hour))
	}

	stats, err := runSweep(root, 1000 /*maxSize*/, OldestFirst, now)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.evicted)
	assert.Equal(t, []string{"newest"}, remainingNames(t, root),
		"Oldest-first eviction must leave the newest expiry marker standing")
}

func TestRunSweep_WithinBudgetEvictsNothing(t *testing.T) {
	root := t.TempDir()
	now := time.Now()
	writeSweepEntry(t, root, "a", 300, now.Add(time.Hour))
	writeSweepEntry(t, root, "b", 300, now.Add(2*time.Hour))

	stats, err := runSweep(root, 1000 /*maxSize*/, NewestFirst, now)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.evicted)
	assert.Len(t, remainingNames(t, root), 2)
}

func TestRunSweep_UnboundedNeverEvicts(t *testing.T) {
	root := t.TempDir()
	now := time.Now()
	for _, name := range []string{"a", "b", "c"} {
		writeSweepEntry(t, root, name, 10_000, now.Add(time.Hour))
	}

	stats, err := runSweep(root, 0 /*maxSize*/, NewestFirst, now)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.evicted)
	assert.Len(t, remainingNames(t, root), 3)
}

func TestRunSweep_SkipsHiddenFilesAndSubdirectories(t *testing.T) {
	root := t.TempDir()
	now := time.Now()
	writeSweepEntry(t, root, ".hidden", 10, now.Add(-time.Hour))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "subdir"), 0o755))
	writeSweepEntry(t, root, "expired", 10, now.Add(-time.Hour))

	stats, err := runSweep(root, 0 /*maxSize*/, NewestFirst, now)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.scanned, "Hidden files and subdirectories are not entries")
	assert.Equal(t, 1, stats.expired)

	_, statErr := os.Stat(filepath.Join(root, ".hidden"))
	assert.NoError(t, statErr, "Hidden files must never be touched")
	_, statErr = os.Stat(filepath.Join(root, "subdir"))
	assert.NoError(t, statErr, "Subdirectories must never be touched")
}

func TestRunSweep_MissingRootIsEmpty(t *testing.T) {
	stats, err := runSweep(filepath.Join(t.TempDir(), "never-created"), 1000, NewestFirst, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.scanned)
}

func TestScanRoot_AbortsOnEnumerationFailure(t *testing.T) {
	// A regular file in place of the root directory fails enumeration outright.
	notADir := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(notADir, []byte("x"), 0o644))
	_, err := ScanRoot(notADir)
	assert.Error(t, err)
}
