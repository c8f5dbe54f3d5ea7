package probe

import (
	"context"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/coldb/joinengine/jointable"
)

type sliceI32Reader struct {
	vals []int32
}

func (s *sliceI32Reader) I32(row int) (int32, bool) { return s.vals[row], true }

func buildDir(t *testing.T, keys []int32) *jointable.Directory[int32] {
	t.Helper()
	entries := make([]jointable.Entry[int32], len(keys))
	for i, k := range keys {
		entries[i] = jointable.Entry[int32]{Key: k, RowID: uint32(i)}
	}
	dir, err := jointable.Build(context.Background(), entries, jointable.HashI32, 4, 8)
	require.NoError(t, err)
	return dir
}

func TestI32ProbeFindsAllMatchesSingleWorker(t *testing.T) {
	dir := buildDir(t, []int32{1, 2, 3, 2})
	probeVals := []int32{2, 5, 2, 1}
	newReader := func() I32Reader { return &sliceI32Reader{vals: probeVals} }

	res, err := I32(context.Background(), len(probeVals), newReader, dir, 1, 256, 4)
	require.NoError(t, err)
	matches := res.Flatten()

	// probe row 0 (key 2) matches build rows 1 and 3; probe row 2 (key 2)
	// matches the same two build rows; probe row 3 (key 1) matches build
	// row 0; probe row 1 (key 5) matches nothing.
	require.Len(t, matches, 5)
}

func TestI32ProbeParallelAgreesWithSequential(t *testing.T) {
	const n = 5000
	keys := make([]int32, n)
	probeVals := make([]int32, n)
	for i := range keys {
		keys[i] = int32(i % 37)
		probeVals[i] = int32(i % 41)
	}
	dir := buildDir(t, keys)
	newReader := func() I32Reader { return &sliceI32Reader{vals: probeVals} }

	seq, err := I32(context.Background(), n, newReader, dir, 1, 256, 4)
	require.NoError(t, err)
	par, err := I32(context.Background(), n, newReader, dir, 8, 256, 4)
	require.NoError(t, err)

	seqMatches := seq.Flatten()
	parMatches := par.Flatten()
	require.Equal(t, len(seqMatches), len(parMatches))

	sortFn := func(m []Match) {
		sort.Slice(m, func(i, j int) bool {
			if m[i].ProbeRow != m[j].ProbeRow {
				return m[i].ProbeRow < m[j].ProbeRow
			}
			return m[i].BuildRow < m[j].BuildRow
		})
	}
	sortFn(seqMatches)
	sortFn(parMatches)
	if diff := cmp.Diff(seqMatches, parMatches); diff != "" {
		t.Fatalf("sequential vs parallel probe mismatch (-seq +par):\n%s", diff)
	}
}

func TestI32ProbeNewReaderCalledOncePerWorker(t *testing.T) {
	dir := buildDir(t, []int32{1, 2, 3})
	probeVals := []int32{1, 2, 3}
	var calls int
	newReader := func() I32Reader {
		calls++
		return &sliceI32Reader{vals: probeVals}
	}
	_, err := I32(context.Background(), len(probeVals), newReader, dir, 4, 256, 4)
	require.NoError(t, err)
	require.Equal(t, 4, calls)
}
