package colpage

// PackedRef is a 64-bit packed reference to a VARCHAR value stored in
// its source column's raw pages (spec.md §3). Bit layout, low to high:
//
//	offset within page : 20 bits
//	page index         : 24 bits
//	column index       :  8 bits
//	table index        :  8 bits
//	flags              :  4 bits (bit0 = null, bit1 = long)
//
// Two packed references compare equal, by raw uint64 equality, iff they
// were produced from the same (table, column, page, offset); this lets
// the VARCHAR join code path hash and compare 64-bit integers instead of
// byte strings.
type PackedRef uint64

const (
	offsetBits = 20
	pageBits   = 24
	columnBits = 8
	tableBits  = 8

	offsetShift = 0
	pageShift   = offsetShift + offsetBits
	columnShift = pageShift + pageBits
	tableShift  = columnShift + columnBits
	flagsShift  = tableShift + tableBits

	offsetMask = (1 << offsetBits) - 1
	pageMask   = (1 << pageBits) - 1
	columnMask = (1 << columnBits) - 1
	tableMask  = (1 << tableBits) - 1

	flagNull PackedRef = 1 << 0
	flagLong PackedRef = 1 << 1
)

// PackRef builds a PackedRef from its fields. Out-of-range fields are
// silently masked to their bit width; callers that must reject
// out-of-range addressing should validate before packing.
func PackRef(table, column uint8, page uint32, offset uint32, isNull, isLong bool) PackedRef {
	var flags PackedRef
	if isNull {
		flags |= flagNull
	}
	if isLong {
		flags |= flagLong
	}
	return PackedRef(uint64(offset&offsetMask)<<offsetShift) |
		PackedRef(uint64(page&pageMask)<<pageShift) |
		PackedRef(uint64(column&columnMask)<<columnShift) |
		PackedRef(uint64(table&tableMask)<<tableShift) |
		flags<<flagsShift
}

func (r PackedRef) Offset() uint32 { return uint32(r>>offsetShift) & offsetMask }
func (r PackedRef) Page() uint32   { return uint32(r>>pageShift) & pageMask }
func (r PackedRef) Column() uint8  { return uint8(r>>columnShift) & columnMask }
func (r PackedRef) Table() uint8   { return uint8(r>>tableShift) & tableMask }

func (r PackedRef) IsNull() bool { return (r>>flagsShift)&flagNull != 0 }
func (r PackedRef) IsLong() bool { return (r>>flagsShift)&flagLong != 0 }

// NullRef is the canonical null packed reference.
var NullRef = PackedRef(flagNull << flagsShift)
