package planexec

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/coldb/joinengine/colpage"
)

// pageStride is the row count every output page holds, except possibly
// the last page of a column.
const pageStride = 1024

// Finalize converts a node's output RowSet into the engine's externally
// visible columnar table: I32/I64/F64 columns are copied into
// fixed-width pages with validity bitmaps, and VARCHAR columns are
// resolved row by row (through the catalog, following long-string
// fragment chains when necessary) into freshly built string pages.
func (e *Engine) Finalize(rows *RowSet) (colpage.Table, error) {
	cols := make([]colpage.Column, len(rows.Columns))
	for i, cv := range rows.Columns {
		col, err := e.finalizeColumn(cv)
		if err != nil {
			return colpage.Table{}, errors.Wrapf(err, "finalize: column %d", i)
		}
		cols[i] = col
	}
	return colpage.Table{Columns: cols}, nil
}

func (e *Engine) finalizeColumn(cv ColumnView) (colpage.Column, error) {
	switch cv.Type() {
	case colpage.I32:
		return finalizeFixed(cv, colpage.I32, 4, func(buf []byte, off int, row int) bool {
			v, ok := cv.I32(row)
			binary.LittleEndian.PutUint32(buf[off:], uint32(v))
			return ok
		}), nil
	case colpage.I64:
		return finalizeFixed(cv, colpage.I64, 8, func(buf []byte, off int, row int) bool {
			v, ok := cv.I64(row)
			binary.LittleEndian.PutUint64(buf[off:], uint64(v))
			return ok
		}), nil
	case colpage.F64:
		return finalizeFixed(cv, colpage.F64, 8, func(buf []byte, off int, row int) bool {
			v, ok := cv.F64(row)
			binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(v))
			return ok
		}), nil
	case colpage.VARCHAR:
		return e.finalizeVarchar(cv)
	default:
		return colpage.Column{}, errors.Errorf("finalize: unsupported column type %s", cv.Type())
	}
}

func finalizeFixed(cv ColumnView, typ colpage.DataType, width int, write func(buf []byte, off int, row int) bool) colpage.Column {
	n := cv.Len()
	var pages []colpage.Page
	for start := 0; start < n || (n == 0 && len(pages) == 0); start += pageStride {
		end := start + pageStride
		if end > n {
			end = n
		}
		count := end - start
		payload := make([]byte, 2+width*count)
		binary.LittleEndian.PutUint16(payload[0:2], uint16(count))
		nb := (count + 7) / 8
		bm := make([]byte, nb)
		for i := 0; i < count; i++ {
			valid := write(payload, 2+width*i, start+i)
			if valid {
				bm[i/8] |= 1 << uint(i%8)
			}
		}
		page := append(payload, bm...)
		pages = append(pages, colpage.Page(page))
		if n == 0 {
			break
		}
	}
	return colpage.Column{Type: typ, Pages: pages}
}

// finalizeVarchar resolves every row's packed reference through the
// catalog and packs the results into regular VARCHAR pages of
// pageStride rows each.
func (e *Engine) finalizeVarchar(cv ColumnView) (colpage.Column, error) {
	n := cv.Len()
	var pages []colpage.Page
	var scratch []byte
	for start := 0; start < n || (n == 0 && len(pages) == 0); start += pageStride {
		end := start + pageStride
		if end > n {
			end = n
		}
		count := end - start
		values := make([][]byte, count)
		nonNull := 0
		for i := 0; i < count; i++ {
			ref := cv.Ref(start + i)
			if ref.IsNull() {
				continue
			}
			var bytes []byte
			var err error
			bytes, scratch, err = e.catalog.Resolve(ref, scratch)
			if err != nil {
				return colpage.Column{}, errors.Wrapf(err, "finalize: resolve row %d", start+i)
			}
			v := make([]byte, len(bytes))
			copy(v, bytes)
			values[i] = v
			nonNull++
		}
		pages = append(pages, buildVarcharPage(values, nonNull))
		if n == 0 {
			break
		}
	}
	return colpage.Column{Type: colpage.VARCHAR, Pages: pages}, nil
}

func buildVarcharPage(values [][]byte, nonNull int) colpage.Page {
	n := len(values)
	header := make([]byte, 4+2*n)
	binary.LittleEndian.PutUint16(header[0:2], uint16(n))
	binary.LittleEndian.PutUint16(header[2:4], uint16(nonNull))
	var data []byte
	cum := uint16(0)
	for i, v := range values {
		if v != nil {
			cum += uint16(len(v))
			data = append(data, v...)
		}
		binary.LittleEndian.PutUint16(header[4+2*i:], cum)
	}
	return colpage.Page(append(header, data...))
}
