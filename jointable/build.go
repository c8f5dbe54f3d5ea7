package jointable

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/coldb/joinengine/bloomtag"
	"github.com/coldb/joinengine/slab"
)

// partitionedBuildMinRows is the row-count threshold below which a
// single-threaded build is cheaper than paying for goroutine fan-out
// and partition-arena setup.
const partitionedBuildMinRows = 2048

// Build constructs a Directory from entries, using a partition-parallel
// build when entries is large enough and numWorkers > 1, and a plain
// single-threaded build otherwise. hash must be deterministic and
// side-effect free; it is called concurrently during a parallel build.
func Build[K comparable](ctx context.Context, entries []Entry[K], hash func(K) uint64, numWorkers, targetBucketLoad int) (*Directory[K], error) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if len(entries) < partitionedBuildMinRows || numWorkers == 1 {
		return buildSequential(entries, hash, targetBucketLoad), nil
	}
	return buildPartitionedParallel(ctx, entries, hash, numWorkers, targetBucketLoad)
}

// buildSequential is the single-threaded count/prefix-sum/scatter build:
// count tuples per slot, turn the counts into end-offset prefix sums,
// then scatter each entry into its slot's span of the flat tuple array.
func buildSequential[K comparable](entries []Entry[K], hash func(K) uint64, targetBucketLoad int) *Directory[K] {
	d := newDirectory(len(entries), targetBucketLoad, hash)
	if len(entries) == 0 {
		return d
	}

	counts := make([]uint32, d.dirSize)
	hashes := make([]uint64, len(entries))
	for i, e := range entries {
		h := hash(e.Key)
		hashes[i] = h
		slot := d.slotOf(h)
		counts[slot]++
		d.blooms[slot] = d.blooms[slot].Add(h)
	}

	var cumulative uint32
	for i := range counts {
		cumulative += counts[i]
		d.offsets[i] = cumulative
	}

	d.tuples = make([]Entry[K], cumulative)
	writePtr := make([]uint32, d.dirSize)
	for i := uint64(1); i < d.dirSize; i++ {
		writePtr[i] = d.offsets[i-1]
	}
	for i, e := range entries {
		slot := d.slotOf(hashes[i])
		pos := writePtr[slot]
		writePtr[slot]++
		d.tuples[pos] = e
	}
	return d
}

type taggedEntry[K comparable] struct {
	entry Entry[K]
	tag   bloomtag.Tag
}

// buildPartitionedParallel runs the four-phase parallel build: (A) each
// worker partitions its share of entries into per-slot tuple lists
// backed by its own PartitionArena, (B) workers round-robin over slots
// summing counts and Bloom tags across every worker's partition of that
// slot, (C) one prefix sum over the summed counts, (D) workers
// round-robin over slots again, scatter-copying tuples into their final
// contiguous span. Phases B and D both assign slots round-robin by
// worker id so the same worker touches the same slot's cross-partition
// data in both passes, keeping the scatter cache-local.
func buildPartitionedParallel[K comparable](ctx context.Context, entries []Entry[K], hash func(K) uint64, numWorkers, targetBucketLoad int) (*Directory[K], error) {
	d := newDirectory(len(entries), targetBucketLoad, hash)
	if len(entries) == 0 {
		return d, nil
	}

	global := slab.NewGlobalArena[taggedEntry[K]](4096)
	threadArenas := make([]*slab.ThreadArena[taggedEntry[K]], numWorkers)
	partitions := make([][]*slab.PartitionArena[taggedEntry[K]], numWorkers)
	for w := 0; w < numWorkers; w++ {
		threadArenas[w] = slab.NewThreadArena(global)
		partitions[w] = make([]*slab.PartitionArena[taggedEntry[K]], d.dirSize)
		for s := range partitions[w] {
			partitions[w][s] = slab.NewPartitionArena(threadArenas[w])
		}
	}
	defer func() {
		for _, ta := range threadArenas {
			ta.Rewind()
		}
	}()

	block := (len(entries) + numWorkers - 1) / numWorkers

	// Phase A: partition.
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < numWorkers; w++ {
		w := w
		begin := w * block
		end := begin + block
		if begin >= len(entries) {
			continue
		}
		if end > len(entries) {
			end = len(entries)
		}
		g.Go(func() error {
			for i := begin; i < end; i++ {
				if i%4096 == 0 {
					select {
					case <-gctx.Done():
						return gctx.Err()
					default:
					}
				}
				e := entries[i]
				h := hash(e.Key)
				slot := d.slotOf(h)
				partitions[w][slot].Push(taggedEntry[K]{entry: e, tag: bloomtag.FromHash(h)})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Phase B: per-slot counts and Bloom tags, round-robin over slots.
	counts := make([]uint32, d.dirSize)
	g, gctx = errgroup.WithContext(ctx)
	for w := 0; w < numWorkers; w++ {
		w := w
		g.Go(func() error {
			for slot := uint64(w); slot < d.dirSize; slot += uint64(numWorkers) {
				var c uint32
				var tag bloomtag.Tag
				for src := 0; src < numWorkers; src++ {
					partitions[src][slot].Each(func(te taggedEntry[K]) {
						c++
						tag |= te.tag
					})
				}
				counts[slot] = c
				d.blooms[slot] = tag
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Phase C: single-threaded prefix sum.
	var cumulative uint32
	for i := range counts {
		cumulative += counts[i]
		d.offsets[i] = cumulative
	}
	d.tuples = make([]Entry[K], cumulative)

	// Phase D: scatter-copy, round-robin over slots.
	g, gctx = errgroup.WithContext(ctx)
	for w := 0; w < numWorkers; w++ {
		w := w
		g.Go(func() error {
			for slot := uint64(w); slot < d.dirSize; slot += uint64(numWorkers) {
				start, _ := d.slotBounds(slot)
				pos := start
				for src := 0; src < numWorkers; src++ {
					partitions[src][slot].Each(func(te taggedEntry[K]) {
						d.tuples[pos] = te.entry
						pos++
					})
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

// DefaultWorkerCount returns a worker count derived from GOMAXPROCS, the
// same signal the work-stealing probe uses to size its thread pool.
func DefaultWorkerCount() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		return 1
	}
	return n
}
