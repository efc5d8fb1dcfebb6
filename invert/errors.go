package invert

import (
	"fmt"

	"github.com/notargets/gridsolve/krylov"
)

// SolveError reports a failed inversion: the backend stopped without
// convergence. Reason is never positive. The failed right-hand side may
// well be solvable with a different method or looser tolerance, so callers
// can recover; the session itself stays usable.
type SolveError struct {
	// Reason is the backend stopping reason, zero or negative.
	Reason krylov.Reason
	// Iterations is the number of iterations performed before stopping.
	Iterations int
	// ResidualNorm is the final residual norm estimate.
	ResidualNorm float64
	// Err is the underlying backend error, if any.
	Err error
}

func (e *SolveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invert: solve failed after %d iterations: %v (residual %.3e)",
			e.Iterations, e.Err, e.ResidualNorm)
	}
	return fmt.Sprintf("invert: solve failed after %d iterations: %s (residual %.3e)",
		e.Iterations, e.Reason, e.ResidualNorm)
}

func (e *SolveError) Unwrap() error { return e.Err }
