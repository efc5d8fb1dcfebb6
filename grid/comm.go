package grid

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Communicator moves data between the processes that share a grid. The
// decomposed direction forms a periodic ring: rank r borders rank r-1 on
// its low side and rank r+1 on its high side, wrapping at the ends.
//
// Every method is collective. All ranks of a communicator must call the
// same methods in the same order or the exchange deadlocks.
type Communicator interface {
	// Rank identifies the calling process, 0 <= Rank() < Size().
	Rank() int
	// Size is the number of processes sharing the grid.
	Size() int
	// SumAll returns the sum of v over all ranks, on every rank.
	SumAll(v float64) float64
	// MaxAll returns the maximum of v over all ranks, on every rank.
	MaxAll(v float64) float64
	// Exchange trades boundary values with both neighbors on the ring.
	// sendLo goes to rank-1 and fills its recvHi, sendHi goes to rank+1
	// and fills its recvLo. Paired buffers must have matching lengths.
	Exchange(sendLo, sendHi, recvLo, recvHi []float64) error
}

// Dot returns the globally reduced inner product over c, in the shape
// solver configurations accept. Each rank passes its local slices and every
// rank receives the full-domain value.
func Dot(c Communicator) func(x, y []float64) float64 {
	return func(x, y []float64) float64 {
		return c.SumAll(floats.Dot(x, y))
	}
}

// Serial is the single-process Communicator. Reductions return their
// argument and the exchange wraps the domain onto itself, which makes a
// one-process grid periodic.
type Serial struct{}

func (Serial) Rank() int { return 0 }

func (Serial) Size() int { return 1 }

func (Serial) SumAll(v float64) float64 { return v }

func (Serial) MaxAll(v float64) float64 { return v }

func (Serial) Exchange(sendLo, sendHi, recvLo, recvHi []float64) error {
	if len(sendHi) != len(recvLo) || len(sendLo) != len(recvHi) {
		return fmt.Errorf("grid: exchange buffer length mismatch: send %d/%d recv %d/%d",
			len(sendLo), len(sendHi), len(recvLo), len(recvHi))
	}
	// With one rank both neighbors are the rank itself.
	copy(recvLo, sendHi)
	copy(recvHi, sendLo)
	return nil
}
