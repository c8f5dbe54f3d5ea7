package colbuf

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coldb/joinengine/colpage"
)

func i32p(v int32) *int32 { return &v }

func TestBuildAdmitsZeroCopyForDenseI32(t *testing.T) {
	tbl := colpage.NewTableBuilder().
		AddI32Column([]*int32{i32p(10), i32p(20), i32p(30)}).
		Build()
	b := Build(0, 0, tbl.Columns[0])
	require.Equal(t, ZeroCopy, b.Kind())
	require.Equal(t, 3, b.Len())

	var cur PageCursor
	require.Equal(t, int32(10), b.I32At(0, &cur))
	require.Equal(t, int32(20), b.I32At(1, &cur))
	require.Equal(t, int32(30), b.I32At(2, &cur))
}

func TestBuildMaterializesI32WithNulls(t *testing.T) {
	tbl := colpage.NewTableBuilder().
		AddI32Column([]*int32{i32p(10), nil, i32p(30)}).
		Build()
	b := Build(0, 0, tbl.Columns[0])
	require.Equal(t, Materialized, b.Kind())

	v, ok := b.GetI32(0)
	require.True(t, ok)
	require.Equal(t, int32(10), v)

	_, ok = b.GetI32(1)
	require.False(t, ok)
}

func TestBuildVarcharProducesPackedRefsWithNullsForNullRows(t *testing.T) {
	tbl := colpage.NewTableBuilder().
		AddVarcharColumn([]*string{strp("a"), nil, strp("c")}).
		Build()
	b := Build(2, 5, tbl.Columns[0])
	require.Equal(t, colpage.VARCHAR, b.Type())
	require.Equal(t, 3, b.Len())

	ref0 := b.GetRef(0)
	require.False(t, ref0.IsNull())
	require.Equal(t, uint8(2), ref0.Table())
	require.Equal(t, uint8(5), ref0.Column())

	ref1 := b.GetRef(1)
	require.True(t, ref1.IsNull())
}

func strp(v string) *string { return &v }

func TestI32AtZeroCopySequentialCursorMatchesRandomAccess(t *testing.T) {
	vals := make([]*int32, 5000)
	for i := range vals {
		vals[i] = i32p(int32(i))
	}
	tbl := colpage.NewTableBuilder().AddI32Column(vals).Build()

	b := Build(0, 0, tbl.Columns[0])
	var cur PageCursor
	for i := 0; i < len(vals); i++ {
		got := b.I32At(i, &cur)
		require.Equal(t, int32(i), got)
	}
	// random access without a cursor must agree
	require.Equal(t, int32(42), b.I32At(42, nil))
}
