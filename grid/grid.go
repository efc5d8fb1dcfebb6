// Package grid provides a structured grid decomposed into slabs across
// cooperating processes, scalar fields living on it, and the communicator
// that ties the slabs together. Fields carry guard cells in the decomposed
// direction so that stencil operators can reach across slab boundaries
// after an exchange.
package grid

import (
	"fmt"
)

// Config describes a grid. Zero values select the defaults noted on each
// field.
type Config struct {
	// Nx is the global interior extent in x, the decomposed direction.
	// It must be positive and at least the communicator size.
	Nx int
	// Ny is the interior extent in y. Every rank holds the full y range.
	// If it is 0, 1 is used and the grid is one-dimensional.
	Ny int
	// Guards is the number of guard layers on each side in x. If it is
	// 0, 1 is used. Guard layers must fit inside the smallest slab.
	Guards int
	// Comm connects the slabs. If it is nil, the single-process Serial
	// communicator is used.
	Comm Communicator
}

// Grid is the decomposition bookkeeping shared by every field on it: the
// global extents and the slab owned by this rank. A Grid is immutable after
// New.
type Grid struct {
	nx, ny int
	guards int
	comm   Communicator

	x0  int // first global column owned by this rank
	lnx int // owned columns
}

// New validates cfg and returns the grid slab for the calling rank. Columns
// are dealt in contiguous blocks, low ranks first, with the remainder of
// Nx/Size spread one column at a time over the leading ranks.
func New(cfg Config) (*Grid, error) {
	if cfg.Ny == 0 {
		cfg.Ny = 1
	}
	if cfg.Guards == 0 {
		cfg.Guards = 1
	}
	if cfg.Comm == nil {
		cfg.Comm = Serial{}
	}
	if cfg.Nx < 1 {
		return nil, fmt.Errorf("grid: Nx must be positive, got %d", cfg.Nx)
	}
	if cfg.Ny < 1 {
		return nil, fmt.Errorf("grid: Ny must be positive, got %d", cfg.Ny)
	}
	if cfg.Guards < 1 {
		return nil, fmt.Errorf("grid: Guards must be positive, got %d", cfg.Guards)
	}

	size := cfg.Comm.Size()
	rank := cfg.Comm.Rank()
	if size < 1 || rank < 0 || rank >= size {
		return nil, fmt.Errorf("grid: communicator reports rank %d of %d", rank, size)
	}
	if cfg.Nx < size {
		return nil, fmt.Errorf("grid: cannot split %d columns across %d processes", cfg.Nx, size)
	}

	lnx := cfg.Nx / size
	rem := cfg.Nx % size
	x0 := rank * lnx
	if rank < rem {
		lnx++
		x0 += rank
	} else {
		x0 += rem
	}
	if cfg.Guards > cfg.Nx/size {
		return nil, fmt.Errorf("grid: %d guard layers do not fit in the smallest slab of %d columns",
			cfg.Guards, cfg.Nx/size)
	}

	return &Grid{
		nx:     cfg.Nx,
		ny:     cfg.Ny,
		guards: cfg.Guards,
		comm:   cfg.Comm,
		x0:     x0,
		lnx:    lnx,
	}, nil
}

// Nx returns the global interior extent in x.
func (g *Grid) Nx() int { return g.nx }

// Ny returns the interior extent in y.
func (g *Grid) Ny() int { return g.ny }

// Guards returns the number of guard layers on each x side.
func (g *Grid) Guards() int { return g.guards }

// Comm returns the communicator connecting the slabs.
func (g *Grid) Comm() Communicator { return g.comm }

// LocalNx returns the number of interior columns owned by this rank.
func (g *Grid) LocalNx() int { return g.lnx }

// XOffset returns the global index of the first owned column.
func (g *Grid) XOffset() int { return g.x0 }

// LocalSize returns the number of interior points owned by this rank.
func (g *Grid) LocalSize() int { return g.lnx * g.ny }

func (g *Grid) String() string {
	return fmt.Sprintf("grid %dx%d, rank %d/%d owns columns [%d,%d)",
		g.nx, g.ny, g.comm.Rank(), g.comm.Size(), g.x0, g.x0+g.lnx)
}
