// Each entry is one regular file under the cache root: the file content is the encoded
// payload and the file's modification time is repurposed to hold the entry's expiry
// instant. The mtime written by add is the sole source of truth for expiry; nothing else
// in the engine touches it. All structural mutation goes through the write lane, so the
// store itself needs no locking.

package diskcache

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Protection is the at-rest protection tier applied to stored files. The levels mirror
// the data-protection classes of hosts that support them; on plain POSIX filesystems any
// level above ProtectionNone tightens the file mode to owner-only access. The semantics
// beyond the mode bits are owned by the host filesystem and passed through opaquely.
type Protection int

const (
	ProtectionNone Protection = iota
	ProtectionComplete
	ProtectionCompleteUnlessOpen
	ProtectionCompleteUntilFirstAuth
)

// fileMode maps the protection tier to the mode bits stored files are created with.
func (p Protection) fileMode() os.FileMode {
	if p == ProtectionNone {
		return 0o644
	}
	return 0o600
}

func (p Protection) String() string {
	switch p {
	case ProtectionNone:
		return "none"
	case ProtectionComplete:
		return "complete"
	case ProtectionCompleteUnlessOpen:
		return "complete_unless_open"
	case ProtectionCompleteUntilFirstAuth:
		return "complete_until_first_auth"
	default:
		return fmt.Sprintf("protection(%d)", int(p))
	}
}

// entryStore reads and writes a single entry's payload and expiry marker on disk.
type entryStore struct {
	root       string
	protection Protection
}

// write persists the payload under `name`, fully overwriting any prior content, then
// stamps the expiry marker and the protection mode. The root directory is (re)created
// on every write; a concurrent "already exists" outcome is not an error.
func (s *entryStore) write(name string, payload []byte, expireAt time.Time) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("failed to create cache root %s: %w", s.root, err)
	}

	filePath := filepath.Join(s.root, name)
	mode := s.protection.fileMode()
	if err := os.WriteFile(filePath, payload, mode); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	// WriteFile only applies the mode on creation; a pre-existing file keeps its old bits,
	// so the protection tier is re-applied explicitly.
	if err := os.Chmod(filePath, mode); err != nil {
		return fmt.Errorf("failed to apply protection level %s: %w", s.protection, err)
	}
	if err := os.Chtimes(filePath, expireAt, expireAt); err != nil {
		return fmt.Errorf("failed to stamp expiry marker: %w", err)
	}
	return nil
}

// read returns the payload bytes and expiry marker for `name`. An absent file is a miss
// (found=false, nil error), as is a file whose marker cannot be read back: payload bytes
// without a marker are treated as corrupt metadata. The marker's instant is NOT compared
// against the clock here; expiry is enforced only by the sweep operations.
func (s *entryStore) read(name string) (payload []byte, expireAt time.Time, found bool, err error) {
	filePath := filepath.Join(s.root, name)
	payload, err = os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, time.Time{}, false, nil
		}
		return nil, time.Time{}, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	info, err := os.Stat(filePath)
	if err != nil {
		slog.Debug("Cache entry has an unreadable expiry marker, treating as a miss.",
			"path", filePath, "error", err)
		return nil, time.Time{}, false, nil
	}
	return payload, info.ModTime(), true, nil
}

// remove deletes the entry file. Removing an absent entry is a successful no-op.
func (s *entryStore) remove(name string) error {
	if err := os.Remove(filepath.Join(s.root, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove cache entry: %w", err)
	}
	return nil
}

// removeIfExpired deletes the entry only when its expiry marker is at or before `now` at
// the moment of the check. An absent file or an unreadable marker results in no action.
func (s *entryStore) removeIfExpired(name string, now time.Time) error {
	filePath := filepath.Join(s.root, name)
	info, err := os.Stat(filePath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Debug("Skipping expiry check for entry with unreadable marker.",
				"path", filePath, "error", err)
		}
		return nil
	}
	if info.ModTime().After(now) {
		return nil
	}
	return s.remove(name)
}
