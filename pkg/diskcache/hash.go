// Keys are mapped to filenames through a one-way hash so arbitrary key strings (URLs,
// composite IDs, user input) never reach the filesystem directly. The mapping is pure:
// it can be computed before any scheduling happens, so both lanes agree on the target
// file without coordination.

package diskcache

import (
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
)

// fileNameForKey returns the on-disk filename for a key. Identical keys always produce
// identical names; distinct keys collide only at the birthday bound of a 128-bit digest.
// Two independent 64-bit xxhash sums are concatenated: one over the key itself and one
// over the key under a domain-separation prefix, giving a 32-character hex name. The
// filename alone does not recover the key.
func fileNameForKey(key string) string {
	var digest [16]byte
	lo := xxhash.Sum64String(key)
	hi := xxhash.New()
	_, _ = hi.WriteString("\x00cache\x00") // Never fails per hash.Hash contract.
	_, _ = hi.WriteString(key)
	for i, sum := 0, hi.Sum64(); i < 8; i++ {
		digest[i] = byte(sum >> (56 - 8*i))
	}
	for i := 0; i < 8; i++ {
		digest[8+i] = byte(lo >> (56 - 8*i))
	}
	return hex.EncodeToString(digest[:])
}
