// Package colbuf provides the column-buffer abstraction the scan and
// probe operators read through: either a zero-copy view borrowed
// directly from a colpage.Column's pages, or a materialized buffer of
// decoded values, chosen per column at scan time.
package colbuf

import (
	"encoding/binary"
	"math"

	"github.com/coldb/joinengine/colpage"
)

// Kind distinguishes the two column buffer representations.
type Kind uint8

const (
	// Materialized buffers hold fully decoded values plus a validity
	// slice; every column type can be materialized.
	Materialized Kind = iota
	// ZeroCopy buffers borrow the underlying pages directly and decode
	// a value on demand; only I32 columns with an all-valid bitmap on
	// every page are eligible (see admitZeroCopy).
	ZeroCopy
)

// Buffer is a read-only view over one column's values, with either a
// materialized or zero-copy backing store.
type Buffer struct {
	kind Kind
	typ  colpage.DataType

	// materialized backing
	i32  []int32
	i64  []int64
	f64  []float64
	refs []colpage.PackedRef
	null []bool

	// zero-copy backing: pages plus a cumulative row-count index so
	// I32At(i) can locate the owning page in O(log pages), and a cursor
	// used by sequential scanners to avoid even that.
	pages      []colpage.Page
	pageStarts []int
	numRows    int
}

// Type returns the logical type of the buffered column.
func (b *Buffer) Type() colpage.DataType { return b.typ }

// Kind reports whether the buffer is materialized or zero-copy.
func (b *Buffer) Kind() Kind { return b.kind }

// Len returns the number of logical rows in the buffer.
func (b *Buffer) Len() int {
	if b.kind == ZeroCopy {
		return b.numRows
	}
	return len(b.null)
}

// admitZeroCopy reports whether col is eligible for a zero-copy buffer:
// I32 type, and every page's validity bitmap is entirely set (no nulls
// anywhere in the column), which lets I32At skip a validity check.
func admitZeroCopy(col colpage.Column) bool {
	if col.Type != colpage.I32 {
		return false
	}
	for _, p := range col.Pages {
		if !colpage.BitmapAllOnes(p) {
			return false
		}
	}
	return true
}

// Build constructs a Buffer from a decoded column, choosing the
// zero-copy representation when the column qualifies and materializing
// otherwise. tableIdx and colIdx identify the column's position in the
// plan's catalog and are only consulted for VARCHAR columns, whose
// materialized values are packed references back into the catalog.
func Build(tableIdx, colIdx uint8, col colpage.Column) *Buffer {
	if admitZeroCopy(col) {
		return buildZeroCopy(col)
	}
	return buildMaterialized(tableIdx, colIdx, col)
}

func buildZeroCopy(col colpage.Column) *Buffer {
	starts := make([]int, len(col.Pages))
	total := 0
	for i, p := range col.Pages {
		starts[i] = total
		total += int(colpage.RowCount(p))
	}
	return &Buffer{
		kind:       ZeroCopy,
		typ:        colpage.I32,
		pages:      col.Pages,
		pageStarts: starts,
		numRows:    total,
	}
}

func buildMaterialized(tableIdx, colIdx uint8, col colpage.Column) *Buffer {
	b := &Buffer{kind: Materialized, typ: col.Type}
	switch col.Type {
	case colpage.I32:
		for _, p := range col.Pages {
			n := int(colpage.RowCount(p))
			vals := colpage.I32Data(p)
			for i := 0; i < n; i++ {
				b.i32 = append(b.i32, vals[i])
				b.null = append(b.null, !colpage.IsValid(p, i))
			}
		}
	case colpage.I64, colpage.F64:
		for _, p := range col.Pages {
			n := int(colpage.RowCount(p))
			for i := 0; i < n; i++ {
				raw := decodeFixed64(p, i)
				if col.Type == colpage.I64 {
					b.i64 = append(b.i64, int64(raw))
				} else {
					b.f64 = append(b.f64, math.Float64frombits(raw))
				}
				b.null = append(b.null, !colpage.IsValid(p, i))
			}
		}
	case colpage.VARCHAR:
		buildVarcharRefs(b, tableIdx, colIdx, col)
	}
	return b
}

func decodeFixed64(p colpage.Page, i int) uint64 {
	return binary.LittleEndian.Uint64(p[2+8*i:])
}

// buildVarcharRefs packs one PackedRef per logical row of a VARCHAR
// column: a (page, offset) pair into the regular page for short
// strings, a (page, 0) pair with the long flag set pointing at the
// starter page for long strings, and NullRef for a null row.
func buildVarcharRefs(b *Buffer, tableIdx, colIdx uint8, col colpage.Column) {
	pageIdx := 0
	for pageIdx < len(col.Pages) {
		p := col.Pages[pageIdx]
		switch {
		case colpage.IsLongStarter(p):
			ref := colpage.PackRef(tableIdx, colIdx, uint32(pageIdx), 0, false, true)
			b.refs = append(b.refs, ref)
			b.null = append(b.null, false)
			pageIdx++
			for pageIdx < len(col.Pages) && colpage.IsLongContinuation(col.Pages[pageIdx]) {
				pageIdx++
			}
		case colpage.IsLongContinuation(p):
			// unreachable: continuation pages are consumed by their starter
			pageIdx++
		default:
			n := int(colpage.VarcharRowCount(p))
			for i := 0; i < n; i++ {
				_, _, nonNull := colpage.VarcharBounds(p, i)
				if nonNull {
					ref := colpage.PackRef(tableIdx, colIdx, uint32(pageIdx), uint32(i), false, false)
					b.refs = append(b.refs, ref)
					b.null = append(b.null, false)
				} else {
					b.refs = append(b.refs, colpage.NullRef)
					b.null = append(b.null, true)
				}
			}
			pageIdx++
		}
	}
}

// PageCursor tracks sequential progress through a zero-copy buffer so a
// probe worker scanning rows in increasing order pays for page lookup
// once per page instead of once per row.
type PageCursor struct {
	pageIdx int
}

// I32At reads the value at logical row i from a zero-copy buffer,
// advancing cur when i is the next sequential row; cur may be nil for
// random-access callers, at the cost of a page-boundary scan per call.
func (b *Buffer) I32At(i int, cur *PageCursor) int32 {
	if cur != nil && cur.pageIdx < len(b.pages) {
		local := i - b.pageStarts[cur.pageIdx]
		if local >= 0 && local < int(colpage.RowCount(b.pages[cur.pageIdx])) {
			return colpage.I32At(b.pages[cur.pageIdx], local)
		}
	}
	pageIdx := findPage(b.pageStarts, i)
	if cur != nil {
		cur.pageIdx = pageIdx
	}
	return colpage.I32At(b.pages[pageIdx], i-b.pageStarts[pageIdx])
}

func findPage(starts []int, row int) int {
	lo, hi := 0, len(starts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if starts[mid] <= row {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// GetI32 returns the materialized I32 value and validity at row i. It
// panics if the buffer is not a materialized I32 buffer; callers pick
// the right accessor via Kind()/Type().
func (b *Buffer) GetI32(i int) (int32, bool) { return b.i32[i], !b.null[i] }

// GetI64 returns the materialized I64 value and validity at row i.
func (b *Buffer) GetI64(i int) (int64, bool) { return b.i64[i], !b.null[i] }

// GetF64 returns the materialized F64 value and validity at row i.
func (b *Buffer) GetF64(i int) (float64, bool) { return b.f64[i], !b.null[i] }

// GetRef returns the packed string reference at row i of a materialized
// VARCHAR buffer.
func (b *Buffer) GetRef(i int) colpage.PackedRef { return b.refs[i] }
