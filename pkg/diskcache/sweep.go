// The sweep is the only place expiry is enforced. One write-lane pass enumerates the
// root, deletes every expired entry unconditionally, and, when the live total exceeds the
// size budget, evicts live entries in the configured order until usage falls under half
// the budget. Aiming for maxSize/2 instead of maxSize is deliberate hysteresis: a sweep
// that removed just barely enough would re-trigger eviction on the very next pass.

package diskcache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// EvictionOrder selects which live entries go first once the size budget is exceeded.
type EvictionOrder int

const (
	// NewestFirst deletes the entries with the most recent expiry markers first, so the
	// oldest entries survive. This is the engine's historical behavior and the default;
	// it is the inverse of a recency-based policy and is kept as an explicit, named
	// choice rather than silently corrected.
	NewestFirst EvictionOrder = iota
	// OldestFirst deletes the entries closest to expiring first.
	OldestFirst
)

func (o EvictionOrder) String() string {
	switch o {
	case NewestFirst:
		return "newest_first"
	case OldestFirst:
		return "oldest_first"
	default:
		return fmt.Sprintf("eviction_order(%d)", int(o))
	}
}

// EntryInfo describes one stored entry as seen on disk: its hashed filename, allocated
// size, and the expiry instant carried by its modification time.
type EntryInfo struct {
	Name      string
	Size      int64
	ExpiresAt time.Time
}

// ScanRoot enumerates all entries under a cache root, skipping subdirectories and hidden
// files. A missing root is an empty cache, not an error. Any other enumeration failure
// aborts the whole scan; callers must not act on a partial listing.
func ScanRoot(root string) ([]EntryInfo, error) {
	dirEntries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to enumerate cache root %s: %w", root, err)
	}

	entries := make([]EntryInfo, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() || strings.HasPrefix(dirEntry.Name(), ".") {
			continue
		}
		info, err := dirEntry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) { // The file vanished between listing and stat.
				continue
			}
			return nil, fmt.Errorf("failed to stat cache entry %s: %w", dirEntry.Name(), err)
		}
		entries = append(entries, EntryInfo{Name: info.Name(), Size: info.Size(), ExpiresAt: info.ModTime()})
	}
	return entries, nil
}

// sweepStats summarizes one clearExpired pass.
type sweepStats struct {
	scanned        int
	expired        int
	evicted        int
	expiredBytes   int64
	evictedBytes   int64
	liveBytesAfter int64
}

// runSweep performs the scan + evict pass. maxSize <= 0 disables the eviction step.
// Failures deleting individual files do not stop the pass; they are joined into the
// returned error while the stats reflect what was actually removed.
func runSweep(root string, maxSize int64, order EvictionOrder, now time.Time) (sweepStats, error) {
	var stats sweepStats
	entries, err := ScanRoot(root)
	if err != nil {
		return stats, err
	}
	stats.scanned = len(entries)

	// Partition into expired and live. Expired entries are deleted unconditionally,
	// regardless of the size budget.
	var deleteErrs error
	live := make([]EntryInfo, 0, len(entries))
	var totalSize int64
	for _, entry := range entries {
		if entry.ExpiresAt.After(now) {
			live = append(live, entry)
			totalSize += entry.Size
			continue
		}
		if err := os.Remove(filepath.Join(root, entry.Name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			deleteErrs = errors.Join(deleteErrs, fmt.Errorf("failed to delete expired entry %s: %w", entry.Name, err))
			continue
		}
		stats.expired++
		stats.expiredBytes += entry.Size
	}

	// Evict live entries while usage exceeds the budget, stopping at the hysteresis
	// floor of half the budget.
	if maxSize > 0 && totalSize > maxSize {
		sort.Slice(live, func(i, j int) bool {
			if order == OldestFirst {
				return live[i].ExpiresAt.Before(live[j].ExpiresAt)
			}
			return live[i].ExpiresAt.After(live[j].ExpiresAt)
		})
		for _, entry := range live {
			if totalSize < maxSize/2 {
				break
			}
			if err := os.Remove(filepath.Join(root, entry.Name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
				deleteErrs = errors.Join(deleteErrs, fmt.Errorf("failed to evict entry %s: %w", entry.Name, err))
				continue
			}
			totalSize -= entry.Size
			stats.evicted++
			stats.evictedBytes += entry.Size
		}
	}

	stats.liveBytesAfter = totalSize
	removedMetric.WithLabelValues(reasonExpired).Add(float64(stats.expired))
	removedMetric.WithLabelValues(reasonEvicted).Add(float64(stats.evicted))
	reclaimedMetric.WithLabelValues(reasonExpired).Add(float64(stats.expiredBytes))
	reclaimedMetric.WithLabelValues(reasonEvicted).Add(float64(stats.evictedBytes))
	return stats, deleteErrs
}
