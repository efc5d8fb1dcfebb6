// Package stencil provides finite-difference operators in the shape the
// inversion engine consumes. All of them act on grid fields and are
// periodic in both directions; the ones that reach across slab boundaries
// fill their guard cells through the grid communicator, so applying them
// is collective across the grid's ranks.
package stencil

import (
	"github.com/notargets/gridsolve/grid"
	"github.com/notargets/gridsolve/invert"
)

// Scale returns the operator that multiplies every field element by c. It
// works in place and returns its argument. For c != 0 it is trivially
// invertible, which makes it a convenient session smoke test.
func Scale(c float64) invert.OperatorFunc[*grid.Field] {
	return func(f *grid.Field) *grid.Field {
		for k, n := 0, f.Len(); k < n; k++ {
			f.SetAt(k, c*f.At(k))
		}
		return f
	}
}

// Zero returns the operator mapping every field to zero. It is singular,
// so inverting it cannot converge; it exists to exercise that path.
func Zero() invert.OperatorFunc[*grid.Field] {
	return func(f *grid.Field) *grid.Field {
		return f.CloneEmpty()
	}
}

// Helmholtz returns the operator a*f - d*lap(f) with the second-order
// Laplacian on unit grid spacing: the five-point stencil, dropping to
// three points on one-dimensional grids. The x neighbors of boundary
// columns come from guard cells, so the returned operator exchanges
// guards on its argument and must be applied collectively; y wraps
// within the slab. For a > 0 and d >= 0 the operator is symmetric
// positive definite and every backend method applies, cg included.
func Helmholtz(a, d float64) invert.OperatorFunc[*grid.Field] {
	return func(f *grid.Field) *grid.Field {
		if err := f.ExchangeGuards(); err != nil {
			panic(err)
		}
		g := f.Grid()
		lnx, ny := g.LocalNx(), g.Ny()
		out := f.CloneEmpty()
		for i := 0; i < lnx; i++ {
			for j := 0; j < ny; j++ {
				c := f.Get(i, j)
				lap := f.Get(i-1, j) + f.Get(i+1, j) - 2*c
				if ny > 1 {
					jm, jp := j-1, j+1
					if jm < 0 {
						jm = ny - 1
					}
					if jp == ny {
						jp = 0
					}
					lap += f.Get(i, jm) + f.Get(i, jp) - 2*c
				}
				out.Set(i, j, a*c-d*lap)
			}
		}
		return out
	}
}
