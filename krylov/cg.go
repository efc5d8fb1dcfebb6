package krylov

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
)

// CG implements the preconditioned Conjugate Gradient method for solving
// the system of linear equations
//
//	A x = b,
//
// where A is symmetric positive definite. For non-symmetric systems use
// BiCGSTAB or GMRES.
//
// CG commands the MatVec, PSolve, CheckResidualNorm and EndIteration
// operations.
type CG struct {
	first  bool
	resume int

	rho, rhoPrev float64

	p  []float64
	z  []float64
	ap []float64
}

// Init implements the Method interface.
func (cg *CG) Init(dim int) {
	if dim <= 0 {
		panic("krylov: dimension not positive")
	}

	cg.p = reuse(cg.p, dim)
	cg.z = reuse(cg.z, dim)
	cg.ap = reuse(cg.ap, dim)
	cg.first = true
	cg.resume = 1
}

// Iterate implements the Method interface.
func (cg *CG) Iterate(ctx *Context) (Operation, error) {
	switch cg.resume {
	case 1:
		ctx.Src = ctx.Residual
		ctx.Dst = cg.z
		cg.resume = 2
		return PSolve, nil
		// Solve M z = r_{i-1}.
	case 2:
		cg.rho = ctx.Dot(ctx.Residual, cg.z)
		if math.Abs(cg.rho) < dlamchE*dlamchE {
			cg.resume = 0 // Calling Iterate again without Init will panic.
			return NoOperation, errors.New("krylov: rho breakdown")
		}
		if cg.first {
			copy(cg.p, cg.z)
		} else {
			beta := cg.rho / cg.rhoPrev
			floats.AddScaledTo(cg.p, cg.z, beta, cg.p) // p_i = z_i + β * p_{i-1}
		}
		ctx.Src = cg.p
		ctx.Dst = cg.ap
		cg.resume = 3
		return MatVec, nil
		// Compute Ap_i.
	case 3:
		pap := ctx.Dot(cg.p, cg.ap)
		if pap <= 0 {
			// A symmetric positive definite matrix keeps p·Ap positive.
			cg.resume = 0 // Calling Iterate again without Init will panic.
			return NoOperation, errors.New("krylov: p·Ap breakdown, operator is not positive definite")
		}
		alpha := cg.rho / pap
		floats.AddScaled(ctx.X, alpha, cg.p)          // x_i += α * p_i
		floats.AddScaled(ctx.Residual, -alpha, cg.ap) // r_i -= α * Ap_i
		ctx.Src = nil
		ctx.Dst = nil
		ctx.ResidualNorm = ctx.Norm(ctx.Residual)
		ctx.Converged = false
		cg.resume = 4
		return CheckResidualNorm, nil
	case 4:
		if ctx.Converged {
			cg.resume = 0 // Calling Iterate again without Init will panic.
			return EndIteration, nil
		}
		cg.rhoPrev = cg.rho
		cg.first = false
		cg.resume = 1
		return EndIteration, nil

	default:
		panic("krylov: CG.Init not called")
	}
}
