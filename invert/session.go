package invert

import (
	"fmt"
	"math"
	"time"

	"github.com/notargets/gridsolve/krylov"
	"k8s.io/klog/v2"
)

// Session inverts one operator with one backend solver instance. The
// lifecycle is NewSession, Setup exactly once, then any number of Invert
// and Verify calls, then Close. Calling into a session out of order is a
// programming error and panics; only solver non-convergence (SolveError)
// and invalid configuration (from Setup) are recoverable errors.
//
// On a distributed grid, Setup, every Invert and every Verify are
// collective: all ranks sharing the grid must make the same calls in the
// same order. A session is not safe for concurrent use; concurrent solves
// on a shared grid would interleave their collective operations.
type Session[F Field[F]] struct {
	proto F
	op    *Operator[F]
	cfg   Config

	isSetup bool
	closed  bool

	nlocal  int
	method  krylov.Method
	sys     krylov.MatrixOps
	rhs     []float64
	scratch F
}

// NewSession prepares a session over fields shaped like proto, inverting
// the operator behind op. It allocates nothing; Setup does the heavy
// lifting. A nil op binds the identity operator. The configuration is
// captured by value, later changes to cfg do not reach the session.
func NewSession[F Field[F]](proto F, op *Operator[F], cfg Config) *Session[F] {
	if op == nil {
		op = NewOperator[F](nil)
	}
	return &Session[F]{proto: proto, op: op, cfg: cfg}
}

// Setup validates the configuration, sizes the flat buffers off the
// prototype field, instantiates the backend method and freezes the
// operator handle. It must be called exactly once: a second call panics,
// and no other session operation is allowed before it. A configuration
// error leaves the session un-setup but closeable.
func (s *Session[F]) Setup() error {
	if s.closed {
		panic("invert: Setup called on a closed session")
	}
	if s.isSetup {
		panic("invert: Setup called on a session that has already been set up")
	}
	start := time.Now()

	cfg := s.cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return fmt.Errorf("invert: setup failed: %w", err)
	}

	nlocal := s.proto.Len()
	if nlocal < 1 {
		return fmt.Errorf("invert: setup failed: prototype field has no local values")
	}

	s.cfg = cfg
	s.nlocal = nlocal
	s.method = methods[cfg.Method](cfg)
	s.rhs = make([]float64, nlocal)
	s.scratch = s.proto.CloneEmpty()
	s.sys = krylov.MatrixOps{MatVec: s.apply}
	s.op.freeze()
	s.isSetup = true

	s.cfg.Metrics.addSetup(time.Since(start))
	klog.V(2).Infof("invert: session ready, method=%s n=%d rtol=%g maxits=%d",
		cfg.Method, nlocal, cfg.RelTol, cfg.MaxIterations)
	return nil
}

// apply is the matrix-free system the backend iterates on: lift the trial
// vector into field form, run the operator, flatten the image. The scratch
// field is allocated once at setup and reused for every application, so no
// coefficients and no per-iteration fields ever materialize.
func (s *Session[F]) apply(dst, x []float64) {
	mark := time.Now()
	Unpack(x, s.scratch)
	s.cfg.Metrics.addMarshal(time.Since(mark))

	out := s.op.Apply(s.scratch)

	mark = time.Now()
	Pack(out, dst)
	s.cfg.Metrics.addMarshal(time.Since(mark))
}

// Invert solves A x = b and returns x as a fresh field; b is read once and
// never modified. Calls are independent: each starts from a zero initial
// guess, so earlier right-hand sides cannot contaminate later solutions.
// If the backend stops without convergence the returned error is a
// *SolveError and no solution field is returned.
//
// Invert panics if called before Setup or after Close, or if b does not
// match the session grid size.
func (s *Session[F]) Invert(b F) (F, error) {
	s.ensureReady("Invert")
	start := time.Now()
	defer func() {
		s.cfg.Metrics.addSolve(time.Since(start))
	}()

	mark := time.Now()
	Pack(b, s.rhs)
	s.cfg.Metrics.addMarshal(time.Since(mark))

	res, err := krylov.Solve(s.sys, s.rhs, s.method, krylov.Settings{
		Tolerance:     s.cfg.RelTol,
		MaxIterations: s.cfg.MaxIterations,
		Dot:           s.cfg.Dot,
	})

	if err != nil || !res.Reason.Converged() {
		var none F
		return none, &SolveError{
			Reason:       res.Reason,
			Iterations:   res.Stats.Iterations,
			ResidualNorm: res.Stats.ResidualNorm,
			Err:          err,
		}
	}

	x := s.proto.CloneEmpty()
	mark = time.Now()
	Unpack(res.X, x)
	s.cfg.Metrics.addMarshal(time.Since(mark))

	klog.V(2).Infof("invert: converged in %d iterations, %d operator applications, residual %.3e",
		res.Stats.Iterations, res.Stats.MatVec, res.Stats.ResidualNorm)
	return x, nil
}

// Verify inverts b and checks the result against the forward operator:
// it reports whether max|A(Invert(b)) - b| over the whole domain stays
// within tol. The check costs one extra operator application on top of the
// solve and is meant for diagnostics, not for production paths.
func (s *Session[F]) Verify(b F, tol float64) (bool, error) {
	s.ensureReady("Verify")

	x, err := s.Invert(b)
	if err != nil {
		return false, fmt.Errorf("invert: verify solve: %w", err)
	}

	ax := s.op.Apply(x)
	diff := 0.0
	for k, n := 0, b.Len(); k < n; k++ {
		if d := math.Abs(ax.At(k) - b.At(k)); d > diff {
			diff = d
		}
	}
	diff = s.cfg.MaxAll(diff)
	klog.V(2).Infof("invert: verify max residual %.3e against tolerance %.3e", diff, tol)
	return diff <= tol, nil
}

// Close releases the backend buffers and scratch field. It is safe to call
// before Setup and more than once; any later session use panics.
func (s *Session[F]) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.isSetup = false
	s.method = nil
	s.rhs = nil
	s.sys = krylov.MatrixOps{}
	var none F
	s.scratch = none
}

func (s *Session[F]) ensureReady(what string) {
	if s.closed {
		panic(fmt.Sprintf("invert: %s called on a closed session", what))
	}
	if !s.isSetup {
		panic(fmt.Sprintf("invert: %s called before Setup", what))
	}
}
