package colpage

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/coldb/joinengine/joinerr"
)

// Column is an ordered sequence of fixed-size pages sharing one type.
type Column struct {
	Type  DataType
	Pages []Page
}

// NumRows sums the row counts of every page in the column. Long-string
// continuation pages do not carry their own logical row and are not
// counted; a starter page counts as exactly one row.
func (c *Column) NumRows() int {
	total := 0
	for _, p := range c.Pages {
		if c.Type == VARCHAR && IsLongContinuation(p) {
			continue
		}
		if c.Type == VARCHAR && IsLongStarter(p) {
			total++
			continue
		}
		total += int(RowCount(p))
	}
	return total
}

// Table is an ordered sequence of columns sharing a common row count.
type Table struct {
	Columns []Column
}

// NumRows returns the row count of the table's first column, or 0 for a
// schema with no columns. Scan/finalize callers are responsible for
// maintaining the "every column has the same row count" invariant.
func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].NumRows()
}

// Catalog is the set of input tables addressable by table index, i.e.
// "the plan's inputs" that packed string references are relative to.
type Catalog struct {
	Tables []Table
}

// Resolve decodes the bytes a packed VARCHAR reference points at. For a
// regular page it returns a slice directly into that page (no copy).
// For a long string spanning a starter + continuation pages, it
// concatenates the fragments into scratch (growing it if needed) and
// returns a slice of scratch. A nil ref, or a ref with malformed
// addressing, is reported via joinerr.ErrBadReference.
func (c *Catalog) Resolve(ref PackedRef, scratch []byte) ([]byte, []byte, error) {
	if ref.IsNull() {
		return nil, scratch, errors.Wrap(joinerr.ErrBadReference, "resolve: null reference has no bytes")
	}

	tableIdx, colIdx, pageIdx, offset := int(ref.Table()), int(ref.Column()), int(ref.Page()), int(ref.Offset())

	if tableIdx < 0 || tableIdx >= len(c.Tables) {
		return nil, scratch, errors.Wrapf(joinerr.ErrBadReference, "resolve: table index %d out of range [0,%d)", tableIdx, len(c.Tables))
	}
	tbl := &c.Tables[tableIdx]
	if colIdx < 0 || colIdx >= len(tbl.Columns) {
		return nil, scratch, errors.Wrapf(joinerr.ErrBadReference, "resolve: column index %d out of range [0,%d)", colIdx, len(tbl.Columns))
	}
	col := &tbl.Columns[colIdx]
	if col.Type != VARCHAR {
		return nil, scratch, errors.Wrapf(joinerr.ErrBadReference, "resolve: column %d is not VARCHAR", colIdx)
	}
	if pageIdx < 0 || pageIdx >= len(col.Pages) {
		return nil, scratch, errors.Wrapf(joinerr.ErrBadReference, "resolve: page index %d out of range [0,%d)", pageIdx, len(col.Pages))
	}

	page := col.Pages[pageIdx]

	if ref.IsLong() {
		if !IsLongStarter(page) {
			return nil, scratch, errors.Wrapf(joinerr.ErrBadReference, "resolve: long ref points at page %d which is not a starter page", pageIdx)
		}
		scratch = scratch[:0]
		scratch = append(scratch, Fragment(page)...)
		pid := pageIdx + 1
		for pid < len(col.Pages) {
			next := col.Pages[pid]
			if !IsLongContinuation(next) {
				break
			}
			scratch = append(scratch, Fragment(next)...)
			pid++
		}
		return scratch, scratch, nil
	}

	if IsLongStarter(page) || IsLongContinuation(page) {
		return nil, scratch, errors.Wrapf(joinerr.ErrBadReference, "resolve: non-long ref points at a long-string page %d", pageIdx)
	}

	rowCount := int(VarcharRowCount(page))
	if offset < 0 || offset >= rowCount {
		return nil, scratch, errors.Wrapf(joinerr.ErrBadReference, "resolve: row %d out of range [0,%d) in page %d", offset, rowCount, pageIdx)
	}
	start, end, nonNull := VarcharBounds(page, offset)
	if !nonNull {
		return nil, scratch, errors.Wrapf(joinerr.ErrBadReference, "resolve: row %d in page %d is null", offset, pageIdx)
	}
	dataStart := VarcharDataStart(page)
	if start > end || dataStart+end > len(page) {
		return nil, scratch, errors.Wrapf(joinerr.ErrBadReference, "resolve: decoded byte range [%d,%d) invalid in page %d", start, end, pageIdx)
	}
	return page[dataStart+start : dataStart+end], scratch, nil
}

// Describe is a small debug helper used by tests and the CLI to print a
// reference's decoded fields.
func (r PackedRef) Describe() string {
	return fmt.Sprintf("ref{table=%d col=%d page=%d off=%d null=%v long=%v}",
		r.Table(), r.Column(), r.Page(), r.Offset(), r.IsNull(), r.IsLong())
}
