// A per-instance bloom filter over stored filenames lets reads answer a definite miss
// without touching disk. The filter is seeded from a directory scan at construction and
// fed by every add; deletions never clear bits, so a stale positive only costs one wasted
// file read. The invariant that matters is the other direction: a name that was ever
// stored must always test positive, otherwise a present entry would be reported as a miss.

package diskcache

import (
	"flag"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

var (
	filterExpectedEntries = flag.Uint("filter_expected_entries", 100_000,
		"Expected number of live cache entries used to size the bloom miss filter.")
	filterFalsePositiveRate = flag.Float64("filter_false_positive_rate", 0.01,
		"Target false positive rate of the bloom miss filter.")
)

// missFilter is a thread-safe bloom filter over entry filenames. A disabled filter
// (seeding failed, so its contents can't be trusted) reports every name as possibly
// present, which degrades reads to plain disk lookups.
type missFilter struct {
	mux      sync.RWMutex
	filter   *bloom.BloomFilter
	disabled bool
}

func newMissFilter() *missFilter {
	return &missFilter{filter: bloom.NewWithEstimates(*filterExpectedEntries, *filterFalsePositiveRate)}
}

// seed marks every given filename as present. Called once at construction with the
// names found on disk.
func (f *missFilter) seed(names []string) {
	f.mux.Lock()
	defer f.mux.Unlock()
	for _, name := range names {
		f.filter.AddString(name)
	}
}

// disable turns the filter into a pass-through. Used when the construction-time scan
// failed and the set of on-disk names is unknown.
func (f *missFilter) disable() {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.disabled = true
}

// add records a freshly written filename.
func (f *missFilter) add(name string) {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.filter.AddString(name)
}

// mightContain reports whether the name may be stored. False means definitely absent.
func (f *missFilter) mightContain(name string) bool {
	f.mux.RLock()
	defer f.mux.RUnlock()
	return f.disabled || f.filter.TestString(name)
}

// reset empties the filter after the whole directory has been cleared.
func (f *missFilter) reset() {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.filter.ClearAll()
	f.disabled = false
}
