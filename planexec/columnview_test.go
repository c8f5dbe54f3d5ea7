package planexec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coldb/joinengine/colbuf"
	"github.com/coldb/joinengine/colpage"
)

func TestMaterializedColumnAppendFromPreservesNullness(t *testing.T) {
	src := newMaterializedColumn(colpage.I32)
	src.appendFrom(&constI32Column{val: 7, null: false}, 0)
	src.appendFrom(&constI32Column{val: 0, null: true}, 0)

	require.Equal(t, 2, src.Len())
	v, ok := src.I32(0)
	require.True(t, ok)
	require.Equal(t, int32(7), v)

	_, ok = src.I32(1)
	require.False(t, ok)
}

func TestI32ReaderFactorySharesMaterializedColumn(t *testing.T) {
	col := newMaterializedColumn(colpage.I32)
	col.i32 = []int32{1, 2, 3}
	col.null = []bool{false, false, false}

	factory := i32ReaderFactory(col)
	r1 := factory()
	r2 := factory()
	v1, _ := r1.I32(0)
	v2, _ := r2.I32(0)
	require.Equal(t, v1, v2)
}

func TestI32ReaderFactoryGivesZeroCopyColumnAPrivateCursorPerWorker(t *testing.T) {
	tbl := colpage.NewTableBuilder().AddI32Column([]*int32{i32p(10), i32p(20), i32p(30)}).Build()
	buf := colbuf.Build(0, 0, tbl.Columns[0])
	require.Equal(t, colbuf.ZeroCopy, buf.Kind())

	sc := &scanColumn{buf: buf}
	factory := i32ReaderFactory(sc)
	r1 := factory()
	r2 := factory()

	v, _ := r1.I32(2)
	require.Equal(t, int32(30), v)
	// r2 must still read correctly from row 0 onward despite r1 having
	// advanced its own cursor to the last page.
	v, _ = r2.I32(0)
	require.Equal(t, int32(10), v)
}

type constI32Column struct {
	val  int32
	null bool
}

func (c *constI32Column) Type() colpage.DataType    { return colpage.I32 }
func (c *constI32Column) Len() int                  { return 1 }
func (c *constI32Column) I32(int) (int32, bool)     { return c.val, !c.null }
func (c *constI32Column) I64(int) (int64, bool)     { return 0, false }
func (c *constI32Column) F64(int) (float64, bool)   { return 0, false }
func (c *constI32Column) Ref(int) colpage.PackedRef { return colpage.NullRef }
