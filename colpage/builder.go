package colpage

import "encoding/binary"

// TableBuilder assembles Table fixtures a page at a time. It is meant
// for tests and for the CLI's fixture-generation path, not for the hot
// scan/probe loops, which operate on pages decoded elsewhere (fixture
// files, mmap'd column files).
type TableBuilder struct {
	cols []Column
}

// NewTableBuilder returns an empty builder.
func NewTableBuilder() *TableBuilder { return &TableBuilder{} }

// AddI32Column appends a fixed-width I32 column built from rows, where a
// nil entry marks a null row. All rows go into a single page.
func (b *TableBuilder) AddI32Column(rows []*int32) *TableBuilder {
	n := len(rows)
	payload := make([]byte, 2+4*n)
	binary.LittleEndian.PutUint16(payload[0:2], uint16(n))
	for i, v := range rows {
		if v != nil {
			binary.LittleEndian.PutUint32(payload[2+4*i:], uint32(*v))
		}
	}
	nb := bitmapBytes(n)
	bm := make([]byte, nb)
	for i, v := range rows {
		if v != nil {
			bm[i/8] |= 1 << uint(i%8)
		}
	}
	page := append(payload, bm...)
	b.cols = append(b.cols, Column{Type: I32, Pages: []Page{Page(page)}})
	return b
}

// AddVarcharColumn appends a single regular VARCHAR page built from
// rows, where a nil entry marks a null row. Values longer than fit on
// one short-string page (the long-string path) are built separately via
// AddLongVarcharPages; this helper is for the common short-string case
// exercised by most test fixtures.
func (b *TableBuilder) AddVarcharColumn(rows []*string) *TableBuilder {
	n := len(rows)
	m := 0
	for _, v := range rows {
		if v != nil {
			m++
		}
	}
	header := make([]byte, 4+2*n)
	binary.LittleEndian.PutUint16(header[0:2], uint16(n))
	binary.LittleEndian.PutUint16(header[2:4], uint16(m))
	var data []byte
	cum := uint16(0)
	for i, v := range rows {
		if v != nil {
			cum += uint16(len(*v))
			data = append(data, *v...)
		}
		binary.LittleEndian.PutUint16(header[4+2*i:], cum)
	}
	page := append(header, data...)
	b.cols = append(b.cols, Column{Type: VARCHAR, Pages: []Page{Page(page)}})
	return b
}

// AddLongVarcharPages appends a VARCHAR column consisting of exactly one
// logical row: a starter page followed by zero or more continuation
// pages, each carrying a fragment of the overall value. Splitting the
// value into fragment lengths is the caller's responsibility.
func (b *TableBuilder) AddLongVarcharPages(fragments [][]byte) *TableBuilder {
	pages := make([]Page, 0, len(fragments))
	for i, frag := range fragments {
		sentinel := uint16(longContinuationSentinel)
		if i == 0 {
			sentinel = longStarterSentinel
		}
		hdr := make([]byte, 4)
		binary.LittleEndian.PutUint16(hdr[0:2], sentinel)
		binary.LittleEndian.PutUint16(hdr[2:4], uint16(len(frag)))
		pages = append(pages, Page(append(hdr, frag...)))
	}
	b.cols = append(b.cols, Column{Type: VARCHAR, Pages: pages})
	return b
}

// Build finalizes the builder into a Table.
func (b *TableBuilder) Build() Table {
	return Table{Columns: b.cols}
}
