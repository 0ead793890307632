// Package diskcache implements a persistent, disk-backed key-value cache. Every entry is
// one file under a root directory, named by a one-way hash of its key, holding the
// codec-encoded payload with the expiry instant stored in the file's modification time.
//
// All public operations are asynchronous: they enqueue work on one of two per-instance
// lanes (serial writes, concurrent reads) and signal completion through a callback.
// Expiry is lazy: reads return whatever is on disk, and entries past their expiry are
// only removed by RemoveIfExpired or by the ClearExpired sweep, which also enforces the
// aggregate size budget.
//
// Concurrent access to one root directory from multiple processes is unsynchronized and
// unsupported; the lanes only coordinate goroutines within a single instance.

package diskcache

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rrichc/Cache/pkg/codec"
	"github.com/rrichc/Cache/pkg/utils"
)

// domainPrefix namespaces default cache roots under the platform user-cache directory.
const domainPrefix = "com.rrichc.cache"

var maxConcurrentReads = flag.Int64("max_concurrent_reads", 16,
	"Maximum number of cache reads executing in parallel per instance.")

// Metric label values for the public operations.
const (
	opAdd             = "add"
	opGet             = "get"
	opCacheEntry      = "cache_entry"
	opRemove          = "remove"
	opRemoveIfExpired = "remove_if_expired"
	opClear           = "clear"
	opClearExpired    = "clear_expired"
)

var (
	// ErrCacheClosed completes every operation that reaches a closed instance. The
	// operation performed no I/O.
	ErrCacheClosed = errors.New("cache is closed")
	// ErrDirectoryUnavailable wraps a failure to resolve the default cache directory at
	// construction time. Supplying an explicit RootPath avoids it entirely.
	ErrDirectoryUnavailable = errors.New("cache directory unavailable")
)

// Config carries the instance-level settings of one cache. It is copied at construction
// and immutable afterwards.
type Config struct {
	// Name namespaces the default root directory. Required unless RootPath is set.
	Name string
	// RootPath, when set, is used as the cache root directly and bypasses the default
	// user-cache location lookup.
	RootPath string
	// MaxSize is the aggregate size budget in bytes enforced by ClearExpired.
	// Zero means unbounded.
	MaxSize int64
	// Protection is the at-rest protection tier applied to stored files.
	Protection Protection
	// EvictionOrder selects which live entries the sweep deletes first once MaxSize is
	// exceeded. Defaults to NewestFirst, the engine's historical order.
	EvictionOrder EvictionOrder
}

// Entry pairs a decoded value with its resolved expiry instant. Entries exist only as
// read results; they are never persisted as a distinct structure.
type Entry[T any] struct {
	Value     T
	ExpiresAt time.Time
}

// Cache is one disk-backed cache instance. The type parameter is the decoded value type;
// the injected codec owns the value <-> bytes contract.
type Cache[T any] struct {
	cfg    Config
	root   string
	codec  codec.Codec[T]
	store  *entryStore
	filter *missFilter
	sched  *scheduler
}

// New constructs a cache instance. When cfg.RootPath is empty the root resolves to
// <user cache dir>/<domain prefix>/<cfg.Name>; failure to resolve that location returns
// an error wrapping ErrDirectoryUnavailable rather than aborting the process, so callers
// can fall back to an explicit path. The root directory itself is created lazily by the
// first add.
func New[T any](cfg Config, valueCodec codec.Codec[T]) (*Cache[T], error) {
	if valueCodec == nil {
		return nil, errors.New("a value codec is required")
	}

	root := cfg.RootPath
	if root == "" {
		if cfg.Name == "" {
			return nil, errors.New("either a cache name or an explicit root path is required")
		}
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
		}
		root = filepath.Join(base, domainPrefix, cfg.Name)
	}

	c := &Cache[T]{
		cfg:    cfg,
		root:   root,
		codec:  valueCodec,
		store:  &entryStore{root: root, protection: cfg.Protection},
		filter: newMissFilter(),
		sched:  newScheduler(*maxConcurrentReads),
	}

	// Seed the miss filter from whatever is already on disk. If the scan fails the
	// filter contents can't be trusted, so it degrades to a pass-through.
	if entries, err := ScanRoot(root); err != nil {
		slog.Warn("Failed to scan cache root, disabling the miss filter.", "root", root, "error", err)
		c.filter.disable()
	} else {
		names := make([]string, len(entries))
		for i, entry := range entries {
			names[i] = entry.Name
		}
		c.filter.seed(names)
	}

	slog.Debug("Opened disk cache.", "root", root, "maxSize", cfg.MaxSize,
		"protection", cfg.Protection, "evictionOrder", cfg.EvictionOrder)
	return c, nil
}

// Root returns the resolved root directory of this instance.
func (c *Cache[T]) Root() string {
	return c.root
}

// Add encodes the value and persists it under the key, fully overwriting any previous
// entry, then stamps the expiry marker and protection level. Runs on the serial write
// lane. `done` may be nil; when set it receives the outcome exactly once.
func (c *Cache[T]) Add(key string, value T, expiry Expiry, done func(error)) {
	name := fileNameForKey(key)
	c.sched.submitWrite(func(closed bool) {
		if closed {
			c.completeWrite(opAdd, done, ErrCacheClosed)
			return
		}
		payload, err := c.codec.Encode(value)
		if err == nil {
			err = c.store.write(name, payload, expiry.Resolved())
		}
		if err == nil {
			c.filter.add(name)
		}
		c.completeWrite(opAdd, done, err)
	})
}

// Get retrieves the value stored under the key. A missing file, an undecodable payload,
// or an unreadable expiry marker all yield a miss with a nil error; only unexpected I/O
// failures surface as errors. An expired-but-not-yet-swept entry is still a hit. Runs on
// the concurrent read lane.
func (c *Cache[T]) Get(key string, onResult func(value T, found bool, err error)) {
	if onResult == nil {
		utils.RaiseInvariant("diskcache", "nil_get_callback", "Get called without a result callback.")
		return
	}
	c.readEntry(opGet, key, func(entry *Entry[T], err error) {
		if entry == nil {
			var zero T
			onResult(zero, false, err)
			return
		}
		onResult(entry.Value, true, err)
	})
}

// CacheEntry is Get with the resolved expiry instant attached; a nil entry is a miss.
func (c *Cache[T]) CacheEntry(key string, onResult func(entry *Entry[T], err error)) {
	if onResult == nil {
		utils.RaiseInvariant("diskcache", "nil_entry_callback", "CacheEntry called without a result callback.")
		return
	}
	c.readEntry(opCacheEntry, key, onResult)
}

// readEntry is the shared read-lane path behind Get and CacheEntry.
func (c *Cache[T]) readEntry(op, key string, onResult func(entry *Entry[T], err error)) {
	name := fileNameForKey(key)
	c.sched.submitRead(func(closed bool) {
		if closed {
			opsMetric.WithLabelValues(op, outcomeError).Inc()
			onResult(nil, ErrCacheClosed)
			return
		}
		if !c.filter.mightContain(name) {
			filterSkipsMetric.Inc()
			opsMetric.WithLabelValues(op, outcomeMiss).Inc()
			onResult(nil, nil)
			return
		}

		payload, expireAt, found, err := c.store.read(name)
		if err != nil || !found {
			if err != nil {
				opsMetric.WithLabelValues(op, outcomeError).Inc()
			} else {
				opsMetric.WithLabelValues(op, outcomeMiss).Inc()
			}
			onResult(nil, err)
			return
		}

		value, decodeErr := c.codec.Decode(payload)
		if decodeErr != nil { // An undecodable payload is a miss, not an error.
			slog.Debug("Failed to decode cache entry, treating as a miss.", "key", key, "error", decodeErr)
			opsMetric.WithLabelValues(op, outcomeMiss).Inc()
			onResult(nil, nil)
			return
		}
		opsMetric.WithLabelValues(op, outcomeHit).Inc()
		onResult(&Entry[T]{Value: value, ExpiresAt: expireAt}, nil)
	})
}

// Remove deletes the entry stored under the key. Removing an absent key completes
// successfully. Runs on the write lane.
func (c *Cache[T]) Remove(key string, done func(error)) {
	name := fileNameForKey(key)
	c.sched.submitWrite(func(closed bool) {
		if closed {
			c.completeWrite(opRemove, done, ErrCacheClosed)
			return
		}
		c.completeWrite(opRemove, done, c.store.remove(name))
	})
}

// RemoveIfExpired deletes the entry only when its expiry marker is at or before the time
// of the check on the write lane. A live entry, an absent file, or an unreadable marker
// all leave the cache untouched.
func (c *Cache[T]) RemoveIfExpired(key string, done func(error)) {
	name := fileNameForKey(key)
	c.sched.submitWrite(func(closed bool) {
		if closed {
			c.completeWrite(opRemoveIfExpired, done, ErrCacheClosed)
			return
		}
		c.completeWrite(opRemoveIfExpired, done, c.store.removeIfExpired(name, time.Now()))
	})
}

// Clear deletes the whole cache directory. Subsequent adds recreate it.
func (c *Cache[T]) Clear(done func(error)) {
	c.sched.submitWrite(func(closed bool) {
		if closed {
			c.completeWrite(opClear, done, ErrCacheClosed)
			return
		}
		err := os.RemoveAll(c.root)
		if err == nil {
			c.filter.reset()
		}
		c.completeWrite(opClear, done, err)
	})
}

// ClearExpired runs one sweep pass: every entry past its expiry is deleted, and when the
// remaining live size exceeds MaxSize, live entries are evicted in the configured order
// until usage falls under MaxSize/2. An enumeration failure aborts the pass with no
// partial effect beyond the completion.
func (c *Cache[T]) ClearExpired(done func(error)) {
	c.sched.submitWrite(func(closed bool) {
		if closed {
			c.completeWrite(opClearExpired, done, ErrCacheClosed)
			return
		}
		stats, err := runSweep(c.root, c.cfg.MaxSize, c.cfg.EvictionOrder, time.Now())
		slog.Info("Swept cache root.", "root", c.root, "scanned", stats.scanned,
			"expired", stats.expired, "evicted", stats.evicted,
			"liveBytes", stats.liveBytesAfter, "error", err)
		c.completeWrite(opClearExpired, done, err)
	})
}

// Close shuts both lanes down and waits for them to wind down. Operations still queued,
// and any submitted afterwards, complete with ErrCacheClosed without touching disk.
func (c *Cache[T]) Close() {
	c.sched.shutdown()
	slog.Debug("Closed disk cache.", "root", c.root)
}

// completeWrite records the operation metric and fires the optional completion callback.
func (c *Cache[T]) completeWrite(op string, done func(error), err error) {
	opsMetric.WithLabelValues(op, outcomeForErr(err)).Inc()
	if done != nil {
		done(err)
	}
}
