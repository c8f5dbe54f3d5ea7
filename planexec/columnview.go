package planexec

import (
	"github.com/coldb/joinengine/colbuf"
	"github.com/coldb/joinengine/colpage"
	"github.com/coldb/joinengine/probe"
)

// ColumnView is the read interface every node's output column
// satisfies, whether it is a scan's colbuf.Buffer or a join's freshly
// materialized output column.
type ColumnView interface {
	Type() colpage.DataType
	Len() int
	I32(row int) (int32, bool)
	I64(row int) (int64, bool)
	F64(row int) (float64, bool)
	Ref(row int) colpage.PackedRef
}

// RowSet is one node's output: a dense set of row-aligned column views.
type RowSet struct {
	Columns []ColumnView
	numRows int
}

// NumRows returns the row count shared by every column in the set.
func (r *RowSet) NumRows() int { return r.numRows }

// scanColumn adapts a colbuf.Buffer to the ColumnView interface.
type scanColumn struct {
	buf *colbuf.Buffer
	cur colbuf.PageCursor
}

func (c *scanColumn) Type() colpage.DataType { return c.buf.Type() }
func (c *scanColumn) Len() int               { return c.buf.Len() }

func (c *scanColumn) I32(row int) (int32, bool) {
	if c.buf.Kind() == colbuf.ZeroCopy {
		return c.buf.I32At(row, &c.cur), true
	}
	return c.buf.GetI32(row)
}

func (c *scanColumn) I64(row int) (int64, bool)     { return c.buf.GetI64(row) }
func (c *scanColumn) F64(row int) (float64, bool)   { return c.buf.GetF64(row) }
func (c *scanColumn) Ref(row int) colpage.PackedRef { return c.buf.GetRef(row) }

// zeroCopyI32Reader is a single worker's private view into a zero-copy
// column: it owns its own page cursor, so concurrent workers probing
// the same scanColumn each get sequential-scan cursor behavior without
// racing on shared state.
type zeroCopyI32Reader struct {
	buf *colbuf.Buffer
	cur colbuf.PageCursor
}

func (r *zeroCopyI32Reader) I32(row int) (int32, bool) {
	return r.buf.I32At(row, &r.cur), true
}

// newI32Reader returns a reader constructor suitable for probe.I32's
// per-worker instantiation: a fresh cursor-owning reader for a
// zero-copy column, or the shared column itself when reads are O(1)
// and racing readers are safe.
func (c *scanColumn) newI32Reader() func() probe.I32Reader {
	if c.buf.Kind() == colbuf.ZeroCopy {
		buf := c.buf
		return func() probe.I32Reader { return &zeroCopyI32Reader{buf: buf} }
	}
	col := c
	return func() probe.I32Reader { return col }
}

// i32ReaderFactory returns the right per-worker I32Reader constructor
// for cv: scanColumn gets its zero-copy-aware factory, anything else
// (a materializedColumn, typically the output of a nested join) is
// already safe for concurrent indexed reads and is shared as-is.
func i32ReaderFactory(cv ColumnView) func() probe.I32Reader {
	if sc, ok := cv.(*scanColumn); ok {
		return sc.newI32Reader()
	}
	col := cv
	return func() probe.I32Reader { return col }
}

// refReaderFactory returns a per-worker RefReader constructor for cv.
// Packed references are always O(1) indexed reads, materialized or
// not, so the column is simply shared across workers.
func refReaderFactory(cv ColumnView) func() probe.RefReader {
	col := cv
	return func() probe.RefReader { return col }
}

// materializedColumn is a join output column built one matched row at a
// time; it backs whichever of the four value slices its Type selects.
type materializedColumn struct {
	typ  colpage.DataType
	i32  []int32
	i64  []int64
	f64  []float64
	refs []colpage.PackedRef
	null []bool
}

func newMaterializedColumn(typ colpage.DataType) *materializedColumn {
	return &materializedColumn{typ: typ}
}

func (c *materializedColumn) Type() colpage.DataType { return c.typ }
func (c *materializedColumn) Len() int               { return len(c.null) }

func (c *materializedColumn) I32(row int) (int32, bool) { return c.i32[row], !c.null[row] }
func (c *materializedColumn) I64(row int) (int64, bool) { return c.i64[row], !c.null[row] }
func (c *materializedColumn) F64(row int) (float64, bool) {
	return c.f64[row], !c.null[row]
}
func (c *materializedColumn) Ref(row int) colpage.PackedRef { return c.refs[row] }

// appendFrom copies row src of source into c as a new row.
func (c *materializedColumn) appendFrom(source ColumnView, src int) {
	switch c.typ {
	case colpage.I32:
		v, ok := source.I32(src)
		c.i32 = append(c.i32, v)
		c.null = append(c.null, !ok)
	case colpage.I64:
		v, ok := source.I64(src)
		c.i64 = append(c.i64, v)
		c.null = append(c.null, !ok)
	case colpage.F64:
		v, ok := source.F64(src)
		c.f64 = append(c.f64, v)
		c.null = append(c.null, !ok)
	case colpage.VARCHAR:
		ref := source.Ref(src)
		c.refs = append(c.refs, ref)
		c.null = append(c.null, ref.IsNull())
	}
}
