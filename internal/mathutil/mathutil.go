// Package mathutil holds small integer helpers shared by the directory
// sizing bookkeeping in the join engine.
package mathutil

import "math/bits"

// NextPow2 returns the smallest power of two >= v, with a floor of 1.
func NextPow2(v int) int {
	if v < 1 {
		return 1
	}
	return 1 << bits.Len(uint(v-1))
}

// Log2Floor returns floor(log2(v)) for v >= 1; panics for v < 1.
func Log2Floor(v int) int {
	if v < 1 {
		panic("mathutil: Log2Floor of non-positive value")
	}
	return bits.Len(uint(v)) - 1
}
