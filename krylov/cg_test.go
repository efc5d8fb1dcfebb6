package krylov

import (
	"math/rand"
	"testing"
)

func TestCG(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for _, n := range []int{1, 2, 3, 4, 5, 10, 20, 50, 100, 200} {
		sys := randomSPD(n, rnd)
		r, err := Solve(sys.a, sys.b, &CG{}, Settings{Tolerance: 1e-14})
		checkSolved(t, sys, r, err)
	}
}

func TestCGPreconditioned(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for _, n := range []int{5, 20, 100} {
		sys := randomSPD(n, rnd)
		// Jacobi preconditioning with the constant diagonal shift used by
		// randomSPD keeps the operator SPD and must not change the answer.
		r, err := Solve(sys.a, sys.b, &CG{}, Settings{
			Tolerance: 1e-14,
			PSolve: func(dst, rhs []float64) error {
				for i := range dst {
					dst[i] = rhs[i] / float64(n)
				}
				return nil
			},
		})
		checkSolved(t, sys, r, err)
		if r.Stats.PSolve == 0 {
			t.Errorf("Case %v: preconditioner never applied", sys.name)
		}
	}
}

// CG requires positive definiteness, a negative definite operator must be
// reported as a breakdown instead of silently iterating.
func TestCGIndefinite(t *testing.T) {
	n := 6
	neg := MatrixOps{
		MatVec: func(dst, x []float64) {
			for i := range dst {
				dst[i] = -x[i]
			}
		},
	}
	r, err := Solve(neg, ones(n), &CG{}, Settings{})
	if err == nil {
		t.Fatal("expected a breakdown error for a negative definite operator")
	}
	if r.Reason != ReasonDivergedBreakdown {
		t.Errorf("reason %v, want %v", r.Reason, ReasonDivergedBreakdown)
	}
}

func TestCGZeroOperator(t *testing.T) {
	n := 4
	zero := MatrixOps{
		MatVec: func(dst, x []float64) {
			for i := range dst {
				dst[i] = 0
			}
		},
	}
	r, err := Solve(zero, ones(n), &CG{}, Settings{})
	if err == nil {
		t.Fatal("expected a breakdown error for the zero operator")
	}
	if r.Reason >= 0 {
		t.Errorf("reason %v, want negative", r.Reason)
	}
}
