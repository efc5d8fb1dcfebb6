// Package invert solves A x = b for linear operators given only as
// field-to-field functions over a structured grid, without ever assembling
// A. A Session wraps the operator function behind a matrix-free system and
// drives a Krylov backend against it: fields are flattened into solver
// vectors in their canonical order, the backend requests operator
// applications as needed, and the converged vector is lifted back into a
// fresh field. The engine is generic over any field type satisfying the
// Field capability, so it works for any grid representation that can
// enumerate and allocate its local values.
package invert

// Field is the contract a grid field type provides to be invertible. The
// type parameter is the field type itself, so implementations return their
// own concrete type from CloneEmpty.
//
// Len, At and SetAt expose the rank-local values in a canonical order that
// must be deterministic and identical for every field on the same grid: it
// defines the correspondence between field elements and solver vector
// entries. Guard or halo values a representation may carry are not part of
// the enumeration.
type Field[F any] interface {
	// Len returns the number of rank-local values.
	Len() int
	// At returns the k-th local value, 0 <= k < Len().
	At(k int) float64
	// SetAt overwrites the k-th local value.
	SetAt(k int, v float64)
	// CloneEmpty allocates a new zero field on the same grid.
	CloneEmpty() F
}
