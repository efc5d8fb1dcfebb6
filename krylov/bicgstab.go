package krylov

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
)

// BiCGSTAB implements the BiConjugate Gradient STABilized method with
// preconditioning for solving the system of linear equations
//
//	A x = b,
//
// where A is a non-symmetric matrix. For symmetric positive definite
// systems use CG. Unlike BiCG it never needs the transposed product, so it
// works with operators known only through their forward action.
//
// BiCGSTAB commands the MatVec, PSolve, CheckResidualNorm and EndIteration
// operations.
type BiCGSTAB struct {
	first  bool
	resume int

	rho, rhoPrev float64
	alpha        float64
	omega        float64

	rt   []float64
	p    []float64
	v    []float64
	t    []float64
	phat []float64
	s    []float64
	shat []float64
}

// Init implements the Method interface.
func (b *BiCGSTAB) Init(dim int) {
	if dim <= 0 {
		panic("krylov: dimension not positive")
	}

	b.rt = reuse(b.rt, dim)
	b.p = reuse(b.p, dim)
	b.v = reuse(b.v, dim)
	b.t = reuse(b.t, dim)
	b.phat = reuse(b.phat, dim)
	b.s = reuse(b.s, dim)
	b.shat = reuse(b.shat, dim)
	b.first = true
	b.resume = 1
}

// Iterate implements the Method interface.
func (b *BiCGSTAB) Iterate(ctx *Context) (Operation, error) {
	switch b.resume {
	case 1:
		if b.first {
			copy(b.rt, ctx.Residual)
		}
		b.rho = ctx.Dot(b.rt, ctx.Residual)
		if math.Abs(b.rho) < dlamchE*dlamchE {
			b.resume = 0 // Calling Iterate again without Init will panic.
			return NoOperation, errors.New("krylov: rho breakdown")
		}
		if b.first {
			copy(b.p, ctx.Residual)
		} else {
			beta := (b.rho / b.rhoPrev) * (b.alpha / b.omega)
			floats.AddScaled(b.p, -b.omega, b.v) // p_i -= ω * v_i
			floats.Scale(beta, b.p)              // p_i *= β
			floats.Add(b.p, ctx.Residual)        // p_i += r_i
		}
		ctx.Src = b.p
		ctx.Dst = b.phat
		b.resume = 2
		return PSolve, nil
		// Solve M p^_i = p_i.
	case 2:
		ctx.Src = b.phat
		ctx.Dst = b.v
		b.resume = 3
		return MatVec, nil
		// Compute Ap^_i -> v_i.
	case 3:
		rtv := ctx.Dot(b.rt, b.v)
		if math.Abs(rtv) < dlamchE*dlamchE {
			b.resume = 0 // Calling Iterate again without Init will panic.
			return NoOperation, errors.New("krylov: rt·v breakdown")
		}
		b.alpha = b.rho / rtv
		// Early check for tolerance.
		floats.AddScaled(ctx.Residual, -b.alpha, b.v)
		copy(b.s, ctx.Residual)
		ctx.Src = nil
		ctx.Dst = nil
		ctx.ResidualNorm = ctx.Norm(ctx.Residual)
		ctx.Converged = false
		b.resume = 4
		return CheckResidualNorm, nil
	case 4:
		if ctx.Converged {
			floats.AddScaled(ctx.X, b.alpha, b.phat)
			b.resume = 0 // Calling Iterate again without Init will panic.
			return EndIteration, nil
		}
		ctx.Src = ctx.Residual
		ctx.Dst = b.shat
		b.resume = 5
		return PSolve, nil
		// Solve M s^_i = r_i.
	case 5:
		ctx.Src = b.shat
		ctx.Dst = b.t
		b.resume = 6
		return MatVec, nil
		// Compute As^_i -> t_i.
	case 6:
		tt := ctx.Dot(b.t, b.t)
		if tt == 0 {
			b.resume = 0 // Calling Iterate again without Init will panic.
			return NoOperation, errors.New("krylov: t·t breakdown")
		}
		b.omega = ctx.Dot(b.t, b.s) / tt
		floats.AddScaled(ctx.X, b.alpha, b.phat)
		floats.AddScaled(ctx.X, b.omega, b.shat)
		floats.AddScaled(ctx.Residual, -b.omega, b.t)
		ctx.Src = nil
		ctx.Dst = nil
		ctx.ResidualNorm = ctx.Norm(ctx.Residual)
		ctx.Converged = false
		b.resume = 7
		return CheckResidualNorm, nil
	case 7:
		if ctx.Converged {
			b.resume = 0 // Calling Iterate again without Init will panic.
			return EndIteration, nil
		}
		if math.Abs(b.omega) < dlamchE*dlamchE {
			return NoOperation, errors.New("krylov: omega breakdown")
		}
		b.rhoPrev = b.rho
		b.first = false
		b.resume = 1
		return EndIteration, nil

	default:
		panic("krylov: BiCGSTAB.Init not called")
	}
}
