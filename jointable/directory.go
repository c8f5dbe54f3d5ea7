// Package jointable implements the unchained hash table the probe
// operator builds from one join node's build side: a fixed directory of
// end-offset slots over a flat, contiguous tuple array, with a 16-bit
// Bloom tag per slot letting a probe miss short-circuit before it ever
// touches the tuple array.
//
// Directory is generic over the join key type: the fast path
// instantiates it over int32, and the VARCHAR path instantiates it over
// uint64 (a colpage.PackedRef's raw bit pattern), both of which are
// comparable and hashable to a uint64 via the hash field.
package jointable

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/coldb/joinengine/bloomtag"
	"github.com/coldb/joinengine/internal/mathutil"
)

const (
	minDirSize     = 1 << 10
	maxDirSize     = 1 << 18
	defaultPerSlot = 8
)

// Entry is one tuple stored in a Directory's flat tuple array: a join
// key plus the row id it came from in its source table.
type Entry[K comparable] struct {
	Key   K
	RowID uint32
}

// Directory is an unchained hash table directory over keys of type K.
type Directory[K comparable] struct {
	dirSize uint64
	dirMask uint64
	shift   uint

	offsets []uint32 // end offset per slot, length dirSize
	blooms  []bloomtag.Tag
	tuples  []Entry[K]

	hash func(K) uint64
}

// sizeDirectory picks a power-of-two directory size targeting
// targetPerSlot tuples per slot on average, clamped to
// [minDirSize,maxDirSize]. targetPerSlot <= 0 falls back to
// defaultPerSlot.
func sizeDirectory(numTuples, targetPerSlot int) uint64 {
	if targetPerSlot <= 0 {
		targetPerSlot = defaultPerSlot
	}
	desired := numTuples / targetPerSlot
	if desired < minDirSize {
		desired = minDirSize
	}
	desired = mathutil.NextPow2(desired)
	if desired > maxDirSize {
		desired = maxDirSize
	}
	return uint64(desired)
}

func newDirectory[K comparable](numTuples, targetPerSlot int, hash func(K) uint64) *Directory[K] {
	dirSize := sizeDirectory(numTuples, targetPerSlot)
	bits := mathutil.Log2Floor(int(dirSize))
	return &Directory[K]{
		dirSize: dirSize,
		dirMask: dirSize - 1,
		shift:   uint(64 - bits),
		offsets: make([]uint32, dirSize),
		blooms:  make([]bloomtag.Tag, dirSize),
		hash:    hash,
	}
}

func (d *Directory[K]) slotOf(h uint64) uint64 {
	return (h >> d.shift) & d.dirMask
}

// NumSlots returns the directory's slot count.
func (d *Directory[K]) NumSlots() int { return int(d.dirSize) }

// NumTuples returns the total number of tuples stored across all slots.
func (d *Directory[K]) NumTuples() int { return len(d.tuples) }

// slotBounds returns the [start,end) index range into tuples for slot.
func (d *Directory[K]) slotBounds(slot uint64) (int, int) {
	end := int(d.offsets[slot])
	start := 0
	if slot > 0 {
		start = int(d.offsets[slot-1])
	}
	return start, end
}

// Probe finds every tuple matching key: it first checks the slot's
// Bloom tag (an O(1) rejection with no false negatives), and only scans
// the slot's tuples if the tag says the key may be present.
func (d *Directory[K]) Probe(key K) []Entry[K] {
	h := d.hash(key)
	slot := d.slotOf(h)
	if !d.blooms[slot].MayContain(h) {
		return nil
	}
	start, end := d.slotBounds(slot)
	var matches []Entry[K]
	for i := start; i < end; i++ {
		if d.tuples[i].Key == key {
			matches = append(matches, d.tuples[i])
		}
	}
	return matches
}

// ProbeInto appends every tuple matching key to dst and returns the
// extended slice, avoiding a per-probe allocation in the hot path.
func (d *Directory[K]) ProbeInto(key K, dst []Entry[K]) []Entry[K] {
	h := d.hash(key)
	slot := d.slotOf(h)
	if !d.blooms[slot].MayContain(h) {
		return dst
	}
	start, end := d.slotBounds(slot)
	for i := start; i < end; i++ {
		if d.tuples[i].Key == key {
			dst = append(dst, d.tuples[i])
		}
	}
	return dst
}

// HashI32 hashes a 32-bit join key. It is the default hasher for the
// int32 fast path. The key is sign-extended to 64 bits before hashing
// so its encoding width matches the VARCHAR path's uint64 key.
func HashI32(k int32) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(int64(k)))
	return xxhash.Sum64(buf[:])
}

// HashPackedRef hashes a 64-bit packed string reference by raw value,
// which is what gives packed-reference equality its O(1) compare: two
// references hash and compare equal iff they address the same bytes.
func HashPackedRef(k uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], k)
	return xxhash.Sum64(buf[:])
}
