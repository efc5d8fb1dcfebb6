package invert

import (
	"fmt"
)

// Pack copies every local element of f in canonical order into dst. The
// copy is exact, no scaling or reordering, so Pack and Unpack are inverse
// bijections between a field and its flattened form.
//
// Pack panics if the buffer length does not match the field: a mismatch
// means the caller mixed fields and buffers from different grids.
func Pack[F Field[F]](f F, dst []float64) {
	n := f.Len()
	if len(dst) != n {
		panic(fmt.Sprintf("invert: pack size mismatch: field has %d local values, buffer has %d", n, len(dst)))
	}
	for k := 0; k < n; k++ {
		dst[k] = f.At(k)
	}
}

// Unpack overwrites every local element of f in canonical order with the
// values of src. It is the exact inverse of Pack.
//
// Unpack panics if the buffer length does not match the field.
func Unpack[F Field[F]](src []float64, f F) {
	n := f.Len()
	if len(src) != n {
		panic(fmt.Sprintf("invert: unpack size mismatch: field has %d local values, buffer has %d", n, len(src)))
	}
	for k := 0; k < n; k++ {
		f.SetAt(k, src[k])
	}
}
