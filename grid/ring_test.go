package grid

import (
	"sync"
	"testing"
)

// runRanks drives fn once per rank on its own goroutine and waits for all
// of them, the way every collective test here runs.
func runRanks(t *testing.T, comms []Communicator, fn func(t *testing.T, c Communicator)) {
	t.Helper()
	var wg sync.WaitGroup
	for _, c := range comms {
		wg.Add(1)
		go func(c Communicator) {
			defer wg.Done()
			fn(t, c)
		}(c)
	}
	wg.Wait()
}

func TestRingReductions(t *testing.T) {
	comms := NewRing(4)

	var mu sync.Mutex
	sums := map[int]float64{}
	maxs := map[int]float64{}
	runRanks(t, comms, func(t *testing.T, c Communicator) {
		v := float64(c.Rank() + 1)
		s := c.SumAll(v)
		m := c.MaxAll(v)
		mu.Lock()
		sums[c.Rank()] = s
		maxs[c.Rank()] = m
		mu.Unlock()
	})

	for rank := 0; rank < 4; rank++ {
		if sums[rank] != 10 {
			t.Errorf("rank %d: SumAll = %v, want 10", rank, sums[rank])
		}
		if maxs[rank] != 4 {
			t.Errorf("rank %d: MaxAll = %v, want 4", rank, maxs[rank])
		}
	}
}

// Reductions must stay in lockstep over repeated rounds.
func TestRingRepeatedReductions(t *testing.T) {
	comms := NewRing(3)

	runRanks(t, comms, func(t *testing.T, c Communicator) {
		for round := 0; round < 50; round++ {
			got := c.SumAll(float64(round))
			if got != float64(3*round) {
				t.Errorf("rank %d round %d: SumAll = %v, want %v", c.Rank(), round, got, 3*round)
				return
			}
		}
	})
}

func TestRingExchange(t *testing.T) {
	const size = 3
	comms := NewRing(size)

	runRanks(t, comms, func(t *testing.T, c Communicator) {
		r := float64(c.Rank())
		sendLo := []float64{10 * r}
		sendHi := []float64{10*r + 1}
		recvLo := make([]float64, 1)
		recvHi := make([]float64, 1)
		if err := c.Exchange(sendLo, sendHi, recvLo, recvHi); err != nil {
			t.Errorf("rank %d: exchange failed: %v", c.Rank(), err)
			return
		}
		left := (c.Rank() - 1 + size) % size
		right := (c.Rank() + 1) % size
		if recvLo[0] != float64(10*left+1) {
			t.Errorf("rank %d: low guard %v, want rank %d's high edge", c.Rank(), recvLo[0], left)
		}
		if recvHi[0] != float64(10*right) {
			t.Errorf("rank %d: high guard %v, want rank %d's low edge", c.Rank(), recvHi[0], right)
		}
	})
}

// A size-1 ring must behave exactly like the Serial communicator.
func TestRingOfOne(t *testing.T) {
	c := NewRing(1)[0]
	if c.SumAll(3) != 3 || c.MaxAll(3) != 3 {
		t.Error("reductions over one rank must be the identity")
	}
	recvLo := make([]float64, 2)
	recvHi := make([]float64, 2)
	if err := c.Exchange([]float64{1, 2}, []float64{8, 9}, recvLo, recvHi); err != nil {
		t.Fatalf("exchange failed: %v", err)
	}
	if recvLo[0] != 8 || recvLo[1] != 9 || recvHi[0] != 1 || recvHi[1] != 2 {
		t.Errorf("self-exchange gave lo=%v hi=%v", recvLo, recvHi)
	}
}

// Fields on ring-connected slabs see their neighbors' interiors after an
// exchange, with periodic wrap at the domain ends.
func TestRingFieldExchange(t *testing.T) {
	const size = 3
	comms := NewRing(size)

	runRanks(t, comms, func(t *testing.T, c Communicator) {
		g, err := New(Config{Nx: 9, Ny: 2, Comm: c})
		if err != nil {
			t.Errorf("rank %d: %v", c.Rank(), err)
			return
		}
		f := NewField(g)
		// Store the global column index everywhere.
		for i := 0; i < g.LocalNx(); i++ {
			for j := 0; j < g.Ny(); j++ {
				f.Set(i, j, float64(g.XOffset()+i))
			}
		}
		if err := f.ExchangeGuards(); err != nil {
			t.Errorf("rank %d: %v", c.Rank(), err)
			return
		}

		nx := g.Nx()
		wantLo := float64((g.XOffset() - 1 + nx) % nx)
		wantHi := float64((g.XOffset() + g.LocalNx()) % nx)
		for j := 0; j < g.Ny(); j++ {
			if f.Get(-1, j) != wantLo {
				t.Errorf("rank %d row %d: low guard %v, want column %v", c.Rank(), j, f.Get(-1, j), wantLo)
			}
			if f.Get(g.LocalNx(), j) != wantHi {
				t.Errorf("rank %d row %d: high guard %v, want column %v", c.Rank(), j, f.Get(g.LocalNx(), j), wantHi)
			}
		}
	})
}
