package colpage

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// ColumnFile is the on-disk layout a single column is persisted as:
//
//	[u8 type][u32 page_count][u32 page_len x page_count][page bytes concatenated]
//
// mmap'ing this file and slicing it per the offsets table gives every
// page a zero-copy view directly into the kernel page cache, which is
// what lets the zero-copy column buffer (colbuf) admit I32 columns
// without a decode pass.
type ColumnFile struct {
	handle mmap.MMap
	file   *os.File
}

// OpenColumnFile mmaps path read-only and decodes it into a Column. The
// returned ColumnFile must be closed to release the mapping; the Column
// it returns is only valid while the mapping is alive.
func OpenColumnFile(path string) (Column, *ColumnFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return Column{}, nil, errors.Wrapf(err, "colpage: open %s", path)
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return Column{}, nil, errors.Wrapf(err, "colpage: mmap %s", path)
	}
	cf := &ColumnFile{handle: m, file: f}

	col, err := decodeColumnFile([]byte(m))
	if err != nil {
		cf.Close()
		return Column{}, nil, errors.Wrapf(err, "colpage: decode %s", path)
	}
	return col, cf, nil
}

// Close unmaps the file and releases its descriptor.
func (c *ColumnFile) Close() error {
	var err error
	if c.handle != nil {
		err = c.handle.Unmap()
	}
	if c.file != nil {
		if cerr := c.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func decodeColumnFile(buf []byte) (Column, error) {
	if len(buf) < 5 {
		return Column{}, errors.New("column file truncated before header")
	}
	typ := DataType(buf[0])
	pageCount := int(binary.LittleEndian.Uint32(buf[1:5]))
	pos := 5
	if pos+4*pageCount > len(buf) {
		return Column{}, errors.New("column file truncated in page-length table")
	}
	lens := make([]int, pageCount)
	for i := 0; i < pageCount; i++ {
		lens[i] = int(binary.LittleEndian.Uint32(buf[pos+4*i:]))
	}
	pos += 4 * pageCount

	pages := make([]Page, pageCount)
	for i, l := range lens {
		if pos+l > len(buf) {
			return Column{}, errors.Errorf("column file truncated at page %d", i)
		}
		pages[i] = Page(buf[pos : pos+l])
		pos += l
	}
	return Column{Type: typ, Pages: pages}, nil
}

// WriteColumnFile serializes col to w in the ColumnFile layout; it is
// the inverse of OpenColumnFile and is used by tests that round-trip a
// built Column through disk.
func WriteColumnFile(w io.Writer, col Column) error {
	hdr := make([]byte, 5+4*len(col.Pages))
	hdr[0] = byte(col.Type)
	binary.LittleEndian.PutUint32(hdr[1:5], uint32(len(col.Pages)))
	for i, p := range col.Pages {
		binary.LittleEndian.PutUint32(hdr[5+4*i:], uint32(len(p)))
	}
	if _, err := w.Write(hdr); err != nil {
		return errors.Wrap(err, "colpage: write column header")
	}
	for i, p := range col.Pages {
		if _, err := w.Write(p); err != nil {
			return errors.Wrapf(err, "colpage: write page %d", i)
		}
	}
	return nil
}
