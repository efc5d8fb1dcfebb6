package grid

import (
	"fmt"
)

// Field is a scalar field over the local slab of a grid, stored x-major
// with the guard columns ahead of and behind the interior. The interior is
// therefore one contiguous block, which keeps flattening it into solver
// vectors a straight copy.
type Field struct {
	g    *Grid
	data []float64
}

// NewField allocates a zero field on g, guards included.
func NewField(g *Grid) *Field {
	return &Field{
		g:    g,
		data: make([]float64, (g.lnx+2*g.guards)*g.ny),
	}
}

// Grid returns the grid the field lives on.
func (f *Field) Grid() *Grid { return f.g }

// Len returns the number of interior points, the length of the flattened
// form. Guard cells are not part of it.
func (f *Field) Len() int { return f.g.lnx * f.g.ny }

// interior returns the contiguous interior block.
func (f *Field) interior() []float64 {
	off := f.g.guards * f.g.ny
	return f.data[off : off+f.Len()]
}

// At returns interior element k in the canonical order: x varies slowest,
// y fastest, k = ix*Ny + iy.
func (f *Field) At(k int) float64 {
	if k < 0 || k >= f.Len() {
		panic(fmt.Sprintf("grid: flat index %d out of range [0,%d)", k, f.Len()))
	}
	return f.data[f.g.guards*f.g.ny+k]
}

// SetAt stores v into interior element k in the canonical order.
func (f *Field) SetAt(k int, v float64) {
	if k < 0 || k >= f.Len() {
		panic(fmt.Sprintf("grid: flat index %d out of range [0,%d)", k, f.Len()))
	}
	f.data[f.g.guards*f.g.ny+k] = v
}

// CloneEmpty allocates a zero field on the same grid.
func (f *Field) CloneEmpty() *Field { return NewField(f.g) }

// Copy returns a deep copy of the field, guards included.
func (f *Field) Copy() *Field {
	c := NewField(f.g)
	copy(c.data, f.data)
	return c
}

// Fill sets every element, guards included, to v.
func (f *Field) Fill(v float64) {
	for i := range f.data {
		f.data[i] = v
	}
}

// Get returns the element at local column i and row j. Interior columns are
// 0 <= i < LocalNx(); guard columns extend the range by Guards() on each
// side, so i may be negative.
func (f *Field) Get(i, j int) float64 {
	return f.data[f.index(i, j)]
}

// Set stores v at local column i and row j, guard columns included.
func (f *Field) Set(i, j int, v float64) {
	f.data[f.index(i, j)] = v
}

func (f *Field) index(i, j int) int {
	g := f.g
	if i < -g.guards || i >= g.lnx+g.guards {
		panic(fmt.Sprintf("grid: column %d out of range [%d,%d)", i, -g.guards, g.lnx+g.guards))
	}
	if j < 0 || j >= g.ny {
		panic(fmt.Sprintf("grid: row %d out of range [0,%d)", j, g.ny))
	}
	return (i+g.guards)*g.ny + j
}

// ExchangeGuards fills the guard columns from the neighboring slabs over
// the grid communicator. The call is collective across the grid's ranks.
func (f *Field) ExchangeGuards() error {
	g := f.g
	gn := g.guards * g.ny
	var (
		loGuard = f.data[:gn]
		loEdge  = f.data[gn : 2*gn]
		hiEdge  = f.data[g.lnx*g.ny : g.lnx*g.ny+gn]
		hiGuard = f.data[(g.lnx+g.guards)*g.ny:]
	)
	if err := g.comm.Exchange(loEdge, hiEdge, loGuard, hiGuard); err != nil {
		return fmt.Errorf("grid: guard exchange failed: %w", err)
	}
	return nil
}
