// Package krylov provides iterative Krylov-subspace methods for solving
// linear systems A x = b where A is available only through its action on a
// vector. Methods use a reverse-communication interface: Iterate returns an
// Operation describing the work the caller must perform on the data in
// Context before calling Iterate again. The Solve driver automates the loop
// for operators described by MatrixOps.
package krylov

import (
	"errors"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
)

// MatrixOps describes the action of the system matrix. Only the forward
// product is required, so A never has to be assembled.
type MatrixOps struct {
	// MatVec computes A*x and stores the result into dst.
	// It must be non-nil.
	MatVec func(dst, x []float64)
}

// Settings configures a Solve run.
type Settings struct {
	// X0 is an initial guess. If it is nil, the zero vector is used.
	// Otherwise its length must equal the dimension of the system.
	X0 []float64

	// Tolerance is the relative residual tolerance: the solve converges
	// when ||b - A*x|| / ||b|| drops below it. It must be smaller than
	// one and greater than machine epsilon. If it is zero, 1e-8 is used.
	Tolerance float64

	// MaxIterations limits the number of iterations. Reaching the limit
	// without converging is a failure with ReasonDivergedMaxIterations.
	// If it is zero, twice the system dimension is used.
	MaxIterations int

	// PSolve stores into dst the solution of the preconditioner system
	// M z = rhs. If it is nil, no preconditioning is applied.
	PSolve func(dst, rhs []float64) error

	// Dot computes the inner product of two vectors. If it is nil, the
	// serial dot product is used. When the system is distributed across
	// processes, Dot must return the globally reduced value on every
	// process. Inner products are the only collective quantities the
	// methods form, so a globally correct Dot makes every process take
	// identical convergence decisions.
	Dot func(x, y []float64) float64
}

// Operation specifies the work the caller must perform between calls to
// Method.Iterate.
type Operation uint64

const (
	NoOperation Operation = 0

	// Multiply A*x where x is stored in Context.Src and store the result
	// into Context.Dst.
	MatVec Operation = 1 << (iota - 1)

	// Solve the preconditioner system M z = r, where r is stored in
	// Context.Src, and store the solution z into Context.Dst.
	PSolve

	// Compute b - A*x where x is stored in Context.X and store the
	// result into Context.Residual.
	ComputeResidual

	// Check convergence using the residual norm estimate in
	// Context.ResidualNorm. If convergence is detected, Context.Converged
	// must be set to true before calling Method.Iterate again.
	CheckResidualNorm

	// EndIteration marks the end of what the Method considers one
	// iteration. If Context.Converged is true the iterative process is
	// finished, and Method.Init must be called before the Method can be
	// used again.
	EndIteration
)

// Method is an iterative method producing a sequence of vectors converging
// to the solution of A x = b. It commands the caller through the returned
// Operations, which keeps the method independent of how A is represented.
type Method interface {
	// Init initializes the method for solving a dim×dim linear system.
	Init(dim int)

	// Iterate retrieves data from Context, updates it, and returns the
	// next operation for the caller to perform.
	Iterate(*Context) (Operation, error)
}

// Context mediates communication between a Method and the caller. Apart
// from performing commanded Operations the caller must not modify it.
type Context struct {
	// X is the current approximate solution. On the first call to
	// Method.Iterate, X must contain the initial estimate.
	X []float64
	// Residual is the current residual b - A*x. On the first call to
	// Method.Iterate, Residual must contain the initial residual.
	Residual []float64
	// ResidualNorm is an estimate of the norm of the current residual.
	// Method updates it when it commands CheckResidualNorm. It does not
	// have to equal the norm of Residual, some methods estimate it
	// without forming the residual.
	ResidualNorm float64
	// Converged reports to Method that ResidualNorm satisfies the
	// stopping criterion as a result of a CheckResidualNorm operation.
	Converged bool

	// Src and Dst are the source and destination vectors for the
	// commanded Operations.
	Src, Dst []float64

	// Dot is the inner product wired in by the driver. Methods must use
	// it for every dot product and norm they form and must not replace
	// it.
	Dot func(x, y []float64) float64
}

// Norm returns the 2-norm of v derived from the context inner product, so
// that distributed runs agree on it.
func (ctx *Context) Norm(v []float64) float64 {
	return math.Sqrt(ctx.Dot(v, v))
}

// Reason explains why a solve stopped. Positive values mean the solution
// converged, negative values mean the solve failed, zero means no decision
// was reached.
type Reason int

const (
	ReasonNone                  Reason = 0
	ReasonConvergedRelTol       Reason = 1
	ReasonConvergedAbsTol       Reason = 2
	ReasonDivergedMaxIterations Reason = -1
	ReasonDivergedBreakdown     Reason = -2
	ReasonDivergedNaN           Reason = -3
)

// Converged reports whether the reason indicates a successful solve.
func (r Reason) Converged() bool { return r > 0 }

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "no decision"
	case ReasonConvergedRelTol:
		return "converged, relative tolerance reached"
	case ReasonConvergedAbsTol:
		return "converged, right-hand side is zero"
	case ReasonDivergedMaxIterations:
		return "diverged, iteration limit reached"
	case ReasonDivergedBreakdown:
		return "diverged, scalar breakdown"
	case ReasonDivergedNaN:
		return "diverged, residual norm is not a number"
	default:
		return "unknown reason"
	}
}

// Errors returned by Solve alongside a negative Reason.
var (
	ErrIterationLimit = errors.New("krylov: iteration limit reached")
	ErrNaN            = errors.New("krylov: residual norm is NaN or Inf")
)

// Stats holds counters accumulated over one Solve run.
type Stats struct {
	Iterations   int
	MatVec       int
	PSolve       int
	ResidualNorm float64
	StartTime    time.Time
	Runtime      time.Duration
}

// Result is the outcome of a Solve run. X is valid as a solution only when
// Reason.Converged() is true.
type Result struct {
	X      []float64
	Reason Reason
	Stats  Stats
}

// DefaultSettings returns the settings used for zero values in Solve.
func DefaultSettings() Settings {
	return Settings{
		Tolerance: 1e-8,
	}
}

func defaultSettings(s *Settings, dim int) {
	if s.Tolerance == 0 {
		s.Tolerance = 1e-8
	}
	if s.MaxIterations == 0 {
		s.MaxIterations = 2 * dim
	}
	if s.Dot == nil {
		s.Dot = floats.Dot
	}
}

func reuse(v []float64, n int) []float64 {
	if cap(v) < n {
		return make([]float64, n)
	}
	return v[:n]
}

const dlamchE = 1.0 / (1 << 53)
