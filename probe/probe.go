package probe

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/coldb/joinengine/colpage"
	"github.com/coldb/joinengine/jointable"
)

// Match is one matched (build row, probe row) pair produced by a probe.
type Match struct {
	BuildRow uint32
	ProbeRow uint32
}

// Result holds the per-worker match buffers from a parallel probe, in
// worker-id order. Callers that need a single slice call Flatten.
type Result struct {
	perWorker [][]Match
}

// Flatten concatenates every worker's matches in worker-id order, which
// is the engine's documented (if not row-sorted) output order.
func (r *Result) Flatten() []Match {
	total := 0
	for _, w := range r.perWorker {
		total += len(w)
	}
	out := make([]Match, 0, total)
	for _, w := range r.perWorker {
		out = append(out, w...)
	}
	return out
}

// I32Reader reads a probe-side int32 key at a row. Implementations that
// decode lazily from raw pages (a zero-copy column) are not expected to
// be safe for concurrent use by multiple workers; I32's newReader
// parameter exists precisely to hand each worker its own reader instance.
type I32Reader interface {
	I32(row int) (int32, bool)
}

// RefReader reads a probe-side packed string reference at a row.
type RefReader interface {
	Ref(row int) colpage.PackedRef
}

// I32 runs a parallel probe over [0,numRows) int32 keys against dir.
// newReader is called once per worker goroutine so a reader that
// maintains sequential-scan state (e.g. a zero-copy page cursor) gets
// its own private instance; a reader over already-materialized values
// may simply return the same shared instance every time, since
// concurrent indexed reads of immutable storage are safe.
func I32(ctx context.Context, numRows int, newReader func() I32Reader, dir *jointable.Directory[int32], numWorkers, minBlockSize, blocksPerWorker int) (*Result, error) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	stealer := NewWorkStealerConfig(numRows, numWorkers, minBlockSize, blocksPerWorker)
	res := &Result{perWorker: make([][]Match, numWorkers)}

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < numWorkers; w++ {
		w := w
		g.Go(func() error {
			reader := newReader()
			var out []Match
			for {
				start, end, ok := stealer.Steal()
				if !ok {
					break
				}
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				for row := start; row < end; row++ {
					key, valid := reader.I32(row)
					if !valid {
						continue
					}
					matches := dir.Probe(key)
					for _, m := range matches {
						out = append(out, Match{BuildRow: m.RowID, ProbeRow: uint32(row)})
					}
				}
			}
			res.perWorker[w] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// PackedRef runs a parallel probe over [0,numRows) packed-reference
// keys against dir, built over raw uint64 reference values.
func PackedRef(ctx context.Context, numRows int, newReader func() RefReader, dir *jointable.Directory[uint64], numWorkers, minBlockSize, blocksPerWorker int) (*Result, error) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	stealer := NewWorkStealerConfig(numRows, numWorkers, minBlockSize, blocksPerWorker)
	res := &Result{perWorker: make([][]Match, numWorkers)}

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < numWorkers; w++ {
		w := w
		g.Go(func() error {
			reader := newReader()
			var out []Match
			for {
				start, end, ok := stealer.Steal()
				if !ok {
					break
				}
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				for row := start; row < end; row++ {
					ref := reader.Ref(row)
					if ref.IsNull() {
						continue
					}
					matches := dir.Probe(uint64(ref))
					for _, m := range matches {
						out = append(out, Match{BuildRow: m.RowID, ProbeRow: uint32(row)})
					}
				}
			}
			res.perWorker[w] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}
