package krylov

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/floats"
)

// GMRES implements the Generalized Minimum RESidual method with restarts
// for solving the system of linear equations
//
//	A x = b,
//
// where A is a non-symmetric matrix. The residual norm is minimized over
// the Krylov subspace built so far, so the residual estimate is available
// without forming the residual vector. Memory grows linearly with Restart.
//
// GMRES commands the MatVec, PSolve, ComputeResidual, CheckResidualNorm
// and EndIteration operations.
type GMRES struct {
	// Restart is the restart parameter, the dimension of the Krylov
	// subspace built before the method restarts from the current
	// iterate. It must not be negative. If it is 0, it will be set to
	// dim. Values larger than dim are allowed, the subspace saturates
	// after at most dim steps. On distributed systems dim is only the
	// local dimension, so Restart must not be reduced to it.
	Restart int

	resume int
	i      int // Counter for inner iterations.

	s  []float64
	w  []float64
	y  []float64
	av []float64

	v    []float64
	ldv  int
	h    []float64
	ldh  int
	givs []givens
}

type givens struct {
	c, s float64
}

// Init implements the Method interface.
func (g *GMRES) Init(dim int) {
	if dim <= 0 {
		panic("krylov: dimension not positive")
	}

	if g.Restart == 0 {
		g.Restart = dim
	}
	if g.Restart < 0 {
		panic("krylov: invalid GMRES.Restart")
	}

	g.s = reuse(g.s, g.Restart+1)
	g.w = reuse(g.w, dim)
	g.y = reuse(g.y, g.Restart)
	g.av = reuse(g.av, dim)

	k := g.Restart
	g.ldv = dim
	g.v = reuse(g.v, g.ldv*(k+1))
	g.ldh = k + 1
	g.h = reuse(g.h, g.ldh*k)
	if cap(g.givs) < k {
		g.givs = make([]givens, k)
	} else {
		g.givs = g.givs[:k]
	}

	g.resume = 1
}

// Iterate implements the Method interface.
func (g *GMRES) Iterate(ctx *Context) (Operation, error) {
	n := len(ctx.X)
	ldv := g.ldv
	switch g.resume {
	case 1:
		// Construct the first basis vector from the residual.
		ctx.Src = ctx.Residual
		ctx.Dst = g.v[:n]
		g.resume = 2
		return PSolve, nil
		// Solve M V[:,0] = r.
	case 2:
		rnorm := ctx.Norm(g.v[:n])
		if rnorm == 0 {
			g.resume = 0 // Calling Iterate again without Init will panic.
			return NoOperation, errors.New("krylov: preconditioned residual breakdown")
		}
		floats.Scale(1/rnorm, g.v[:n])
		// Initialize s to the elementary vector e_1 scaled by rnorm.
		for i := range g.s {
			g.s[i] = 0
		}
		g.s[0] = rnorm

		g.i = 0
		fallthrough
	case 3:
		i := g.i
		if i == g.Restart {
			g.resume = 7
			ctx.Src = nil
			ctx.Dst = nil
			return NoOperation, nil
		}
		ctx.Src = g.v[i*ldv : i*ldv+n]
		ctx.Dst = g.av
		g.resume = 4
		return MatVec, nil
		// Compute A V[:,i].
	case 4:
		ctx.Src = g.av
		ctx.Dst = g.w
		g.resume = 5
		return PSolve, nil
		// Solve M w = A V[:,i].
	case 5:
		i := g.i
		ldh := g.ldh

		// Construct the i-th column of the upper Hessenberg matrix by
		// the Gram-Schmidt process on V and w so that w becomes
		// orthonormal to the previous i columns.
		hi := g.h[i*ldh : i*ldh+ldh]
		for k := 0; k <= i; k++ {
			vk := g.v[k*ldv : k*ldv+n]
			hki := ctx.Dot(vk, g.w)
			hi[k] = hki
			floats.AddScaled(g.w, -hki, vk)
		}
		wnorm := ctx.Norm(g.w)
		hi[i+1] = wnorm // H[i+1,i] = |w|
		vip1 := g.v[(i+1)*ldv : (i+1)*ldv+n]
		if wnorm > 0 {
			copy(vip1, g.w)
			floats.Scale(1/wnorm, vip1)
		} else {
			// The subspace became invariant. Keep the basis valid, the
			// convergence or breakdown checks below will finish the
			// solve.
			for j := range vip1 {
				vip1[j] = 0
			}
		}

		// Apply the previous i Givens rotation matrices to the i-th
		// column of H.
		for j := 0; j < i; j++ {
			hi[j], hi[j+1] = rotvec(hi[j], hi[j+1], g.givs[j])
		}
		// Compute the (i+1)st Givens rotation that zeroes H[i+1,i].
		g.givs[i] = drotg(hi[i], hi[i+1])
		// Apply the (i+1)st Givens rotation.
		hi[i], hi[i+1] = rotvec(hi[i], hi[i+1], g.givs[i])
		if math.Abs(hi[i]) < dlamchE*dlamchE {
			// The triangularized Hessenberg is singular, the least
			// squares update cannot determine the iterate.
			g.resume = 0 // Calling Iterate again without Init will panic.
			return NoOperation, errors.New("krylov: hessenberg breakdown")
		}

		// Apply the (i+1)st Givens rotation to (s[i], s[i+1]), the
		// magnitude of the last element is the residual norm estimate.
		g.s[i], g.s[i+1] = rotvec(g.s[i], g.s[i+1], g.givs[i])
		ctx.ResidualNorm = math.Abs(g.s[i+1])
		ctx.Src = nil
		ctx.Dst = nil
		ctx.Converged = false
		g.resume = 6
		return CheckResidualNorm, nil
	case 6:
		if ctx.Converged {
			// Compute the final approximate solution x and finish.
			g.update(ctx.X, g.i+1)
			g.resume = 0
			return EndIteration, nil
		}
		g.i++
		g.resume = 3
		return EndIteration, nil
	case 7:
		// Restart: fold the subspace into x and recompute the true
		// residual.
		g.update(ctx.X, g.Restart)
		g.resume = 8
		return ComputeResidual, nil
	case 8:
		ctx.ResidualNorm = ctx.Norm(ctx.Residual)
		ctx.Converged = false
		g.resume = 9
		return CheckResidualNorm, nil
	case 9:
		if ctx.Converged {
			g.resume = 0
			return EndIteration, nil
		}
		g.resume = 1
		return NoOperation, nil

	default:
		panic("krylov: GMRES.Init not called")
	}
}

// update folds the m columns built so far into x by solving the
// triangularized least squares system H y = s and accumulating x += V*y.
func (g *GMRES) update(x []float64, m int) {
	y := g.y[:m]
	copy(y, g.s[:m])
	// H is upper triangular but stored in column-major order while Dtrsv
	// expects row-major.
	bi := blas64.Implementation()
	bi.Dtrsv(blas.Lower, blas.Trans, blas.NonUnit, m, g.h, g.ldh, y, 1)
	n := len(x)
	for j := 0; j < m; j++ {
		vj := g.v[j*g.ldv : j*g.ldv+n]
		floats.AddScaled(x, y[j], vj)
	}
}

func drotg(a, b float64) givens {
	if b == 0 {
		return givens{c: 1, s: 0}
	}
	if math.Abs(b) > math.Abs(a) {
		tmp := -a / b
		s := 1 / math.Sqrt(1+tmp*tmp)
		return givens{c: tmp * s, s: s}
	}
	tmp := -b / a
	c := 1 / math.Sqrt(1+tmp*tmp)
	return givens{c: c, s: tmp * c}
}

func rotvec(x, y float64, g givens) (rx, ry float64) {
	rx = g.c*x - g.s*y
	ry = g.s*x + g.c*y
	return
}
