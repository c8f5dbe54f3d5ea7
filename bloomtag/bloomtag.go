// Package bloomtag implements the per-bucket 16-bit Bloom tag used by
// jointable's directory to shortcut a probe miss without touching the
// tuple array. This is a small fixed-width bit-packing scheme specific
// to the directory's layout, not a general-purpose Bloom filter, so it
// is hand-rolled rather than built on an external filter library (see
// the design ledger for why holiman/bloomfilter and similar libraries
// don't fit: they size filters for a target false-positive rate over a
// whole set, not a fixed 16 bits per hash-table bucket).
package bloomtag

// Tag is a 16-bit Bloom summary stored alongside one directory slot. It
// never produces a false negative: if a key was added, MayContain for
// that key's hash always reports true.
type Tag uint16

const (
	numBits  = 16
	bitsUsed = 4 // 4 bits probed per key
)

// positions extracts 4 distinct-ish 4-bit fields from hash, each used
// to select one of the 16 bit positions of the tag.
func positions(hash uint64) [bitsUsed]uint8 {
	var p [bitsUsed]uint8
	for i := 0; i < bitsUsed; i++ {
		p[i] = uint8((hash >> (i * 12)) & 0xF)
	}
	return p
}

// FromHash computes the tag value for a single key's hash: the OR of 4
// bits at 4 positions derived from distinct slices of the hash.
func FromHash(hash uint64) Tag {
	var t Tag
	for _, pos := range positions(hash) {
		t |= 1 << pos
	}
	return t
}

// Add folds hash's tag into t, returning the updated tag. Used when
// accumulating the Bloom summary for every key that scatters into one
// directory slot.
func (t Tag) Add(hash uint64) Tag {
	return t | FromHash(hash)
}

// MayContain reports whether hash could belong to the set summarized by
// t. A false result is a guaranteed miss; a true result still requires
// the caller to scan the slot's tuples to confirm.
func (t Tag) MayContain(hash uint64) bool {
	want := FromHash(hash)
	return t&want == want
}
