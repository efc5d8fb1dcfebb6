package krylov

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
)

// Solve runs method on the system described by a and b and returns the
// approximate solution together with the stopping reason and statistics.
//
// A zero right-hand side short-circuits to the zero solution. Otherwise the
// method iterates until the relative residual drops below
// settings.Tolerance, the iteration limit is reached, or the method breaks
// down. On failure the returned error is non-nil and Result.Reason is
// negative; Result.X then holds the last iterate and must not be used as a
// solution.
//
// Solve panics on malformed input: zero dimension, nil a.MatVec, an initial
// guess of the wrong length, or a tolerance outside (machine eps, 1).
func Solve(a MatrixOps, b []float64, method Method, settings Settings) (Result, error) {
	stats := Stats{StartTime: time.Now()}

	dim := len(b)
	switch {
	case dim == 0:
		panic("krylov: zero dimension")
	case a.MatVec == nil:
		panic("krylov: nil matrix-vector product")
	case settings.X0 != nil && len(settings.X0) != dim:
		panic("krylov: mismatched length of initial guess")
	}

	defaultSettings(&settings, dim)
	if settings.Tolerance < dlamchE || 1 <= settings.Tolerance {
		panic("krylov: invalid tolerance")
	}

	ctx := &Context{
		X:        make([]float64, dim),
		Residual: make([]float64, dim),
		Dot:      settings.Dot,
	}

	bnorm := ctx.Norm(b)
	if bnorm == 0 {
		// The zero vector solves A x = 0 exactly.
		stats.Runtime = time.Since(stats.StartTime)
		return Result{X: ctx.X, Reason: ReasonConvergedAbsTol, Stats: stats}, nil
	}

	if settings.X0 != nil {
		copy(ctx.X, settings.X0)
		a.MatVec(ctx.Residual, ctx.X)
		stats.MatVec++
		floats.AddScaledTo(ctx.Residual, b, -1, ctx.Residual) // r = b - A*x
	} else {
		copy(ctx.Residual, b) // r = b
	}
	ctx.ResidualNorm = ctx.Norm(ctx.Residual)

	if ctx.ResidualNorm/bnorm < settings.Tolerance {
		stats.ResidualNorm = ctx.ResidualNorm
		stats.Runtime = time.Since(stats.StartTime)
		return Result{X: ctx.X, Reason: ReasonConvergedRelTol, Stats: stats}, nil
	}

	reason, err := iterate(a, b, bnorm, ctx, settings, method, &stats)
	stats.Runtime = time.Since(stats.StartTime)
	return Result{X: ctx.X, Reason: reason, Stats: stats}, err
}

func iterate(a MatrixOps, b []float64, bnorm float64, ctx *Context, settings Settings, method Method, stats *Stats) (Reason, error) {
	method.Init(len(ctx.X))

	for {
		op, err := method.Iterate(ctx)
		if err != nil {
			// Methods fail only on scalar breakdowns.
			return ReasonDivergedBreakdown, err
		}

		switch op {
		case NoOperation:

		case ComputeResidual:
			a.MatVec(ctx.Residual, ctx.X)
			stats.MatVec++
			floats.AddScaledTo(ctx.Residual, b, -1, ctx.Residual) // r = b - A*x

		case MatVec:
			a.MatVec(ctx.Dst, ctx.Src)
			stats.MatVec++

		case PSolve:
			if settings.PSolve == nil {
				copy(ctx.Dst, ctx.Src)
				continue
			}
			if err := settings.PSolve(ctx.Dst, ctx.Src); err != nil {
				return ReasonDivergedBreakdown, err
			}
			stats.PSolve++

		case CheckResidualNorm:
			if math.IsNaN(ctx.ResidualNorm) || math.IsInf(ctx.ResidualNorm, 0) {
				return ReasonDivergedNaN, ErrNaN
			}
			ctx.Converged = ctx.ResidualNorm/bnorm < settings.Tolerance

		case EndIteration:
			stats.Iterations++
			stats.ResidualNorm = ctx.ResidualNorm
			if ctx.Converged {
				return ReasonConvergedRelTol, nil
			}
			if stats.Iterations == settings.MaxIterations {
				return ReasonDivergedMaxIterations, ErrIterationLimit
			}

		default:
			panic("krylov: method commanded an invalid operation")
		}
	}
}
