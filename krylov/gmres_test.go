package krylov

import (
	"github.com/stretchr/testify/assert"
	"math/rand"
	"testing"
)

func TestGMRES(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for _, n := range []int{1, 2, 3, 4, 5, 10, 20, 50, 100, 200} {
		sys := randomSPD(n, rnd)
		r, err := Solve(sys.a, sys.b, &GMRES{}, Settings{Tolerance: 1e-13})
		checkSolved(t, sys, r, err)
	}
}

func TestGMRESNonsymmetric(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for _, n := range []int{2, 5, 10, 50, 100, 200} {
		sys := randomNonsym(n, rnd)
		r, err := Solve(sys.a, sys.b, &GMRES{}, Settings{Tolerance: 1e-13})
		checkSolved(t, sys, r, err)
	}
}

// Restarting discards the Krylov basis but must still converge on
// diagonally dominant systems.
func TestGMRESRestarted(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for _, restart := range []int{5, 10, 30} {
		sys := randomNonsym(100, rnd)
		r, err := Solve(sys.a, sys.b, &GMRES{Restart: restart}, Settings{
			Tolerance:     1e-13,
			MaxIterations: 10000,
		})
		checkSolved(t, sys, r, err)
	}
}

func TestGMRESPreconditioned(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for _, n := range []int{5, 50} {
		sys := randomNonsym(n, rnd)
		r, err := Solve(sys.a, sys.b, &GMRES{}, Settings{
			Tolerance: 1e-13,
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

func TestGMRESInvalidRestart(t *testing.T) {
	sys := randomSPD(4, rand.New(rand.NewSource(1)))
	assert.Panics(t, func() {
		Solve(sys.a, sys.b, &GMRES{Restart: -1}, Settings{})
	}, "negative restart must panic")
}

// A restart beyond the system dimension is legal: the Krylov subspace
// saturates after at most dim steps and the iteration converges there.
func TestGMRESOversizedRestart(t *testing.T) {
	sys := randomSPD(4, rand.New(rand.NewSource(1)))
	res, err := Solve(sys.a, sys.b, &GMRES{Restart: 10}, Settings{Tolerance: 1e-13})
	checkSolved(t, sys, res, err)
}

// The zero operator leaves the Hessenberg singular, which must surface as a
// breakdown instead of a spurious solution.
func TestGMRESZeroOperator(t *testing.T) {
	n := 4
	zero := MatrixOps{
		MatVec: func(dst, x []float64) {
			for i := range dst {
				dst[i] = 0
			}
		},
	}
	r, err := Solve(zero, ones(n), &GMRES{}, Settings{})
	if err == nil {
		t.Fatal("expected a breakdown error for the zero operator")
	}
	if r.Reason != ReasonDivergedBreakdown {
		t.Errorf("reason %v, want %v", r.Reason, ReasonDivergedBreakdown)
	}
}
