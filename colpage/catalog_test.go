package colpage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coldb/joinengine/joinerr"
)

func i32p(v int32) *int32   { return &v }
func strp(v string) *string { return &v }

func TestResolveRegularVarcharPage(t *testing.T) {
	tbl := NewTableBuilder().
		AddVarcharColumn([]*string{strp("alice"), nil, strp(""), strp("dave")}).
		Build()
	cat := &Catalog{Tables: []Table{tbl}}

	page := tbl.Columns[0].Pages[0]

	got, _, err := cat.Resolve(PackRef(0, 0, 0, 0, false, false), nil)
	require.NoError(t, err)
	require.Equal(t, "alice", string(got))

	_, _, err = cat.Resolve(PackRef(0, 0, 0, 1, false, false), nil)
	require.ErrorIs(t, err, joinerr.ErrBadReference) // row 1 is null

	got, _, err = cat.Resolve(PackRef(0, 0, 0, 3, false, false), nil)
	require.NoError(t, err)
	require.Equal(t, "dave", string(got))

	_ = page
}

func TestResolveNullRef(t *testing.T) {
	cat := &Catalog{Tables: []Table{{}}}
	_, _, err := cat.Resolve(PackRef(0, 0, 0, 0, true, false), nil)
	require.ErrorIs(t, err, joinerr.ErrBadReference)
}

func TestResolveOutOfRangeTable(t *testing.T) {
	cat := &Catalog{Tables: []Table{}}
	_, _, err := cat.Resolve(PackRef(5, 0, 0, 0, false, false), nil)
	require.ErrorIs(t, err, joinerr.ErrBadReference)
}

func TestResolveLongStringConcatenatesFragments(t *testing.T) {
	frag1 := []byte("hello ")
	frag2 := []byte("world, ")
	frag3 := []byte("this is long")
	tbl := NewTableBuilder().
		AddLongVarcharPages([][]byte{frag1, frag2, frag3}).
		Build()
	cat := &Catalog{Tables: []Table{tbl}}

	var scratch []byte
	got, scratch, err := cat.Resolve(PackRef(0, 0, 0, 0, false, true), scratch)
	require.NoError(t, err)
	require.Equal(t, "hello world, this is long", string(got))

	// A second resolve reuses scratch without corrupting the prior
	// caller's already-copied bytes (finalize.go is responsible for
	// copying out before the next call).
	got2, _, err := cat.Resolve(PackRef(0, 0, 0, 0, false, true), scratch)
	require.NoError(t, err)
	require.Equal(t, "hello world, this is long", string(got2))
}

func TestResolveLongRefMustPointAtStarter(t *testing.T) {
	frag1 := []byte("a")
	frag2 := []byte("b")
	tbl := NewTableBuilder().AddLongVarcharPages([][]byte{frag1, frag2}).Build()
	cat := &Catalog{Tables: []Table{tbl}}

	_, _, err := cat.Resolve(PackRef(0, 0, 1, 0, false, true), nil)
	require.ErrorIs(t, err, joinerr.ErrBadReference)
}

func TestColumnAndTableNumRows(t *testing.T) {
	tbl := NewTableBuilder().
		AddI32Column([]*int32{i32p(1), i32p(2), i32p(3)}).
		AddVarcharColumn([]*string{strp("x"), strp("y"), strp("z")}).
		Build()
	require.Equal(t, 3, tbl.NumRows())
	require.Equal(t, 3, tbl.Columns[0].NumRows())
}
