package grid

import (
	"fmt"
	"sync"
)

// NewRing returns size connected communicators, one per rank, that exchange
// through channels. Running one rank per goroutine gives a full multi-slab
// grid inside a single process, which stands in for a message-passing layer
// in tests and lets stencil and solver code be written once for both
// settings. The collective-call discipline is the same as for any real
// communicator: all ranks must make the same calls in the same order.
func NewRing(size int) []Communicator {
	if size < 1 {
		panic(fmt.Sprintf("grid: ring size %d not positive", size))
	}

	shared := &ringGroup{size: size}
	shared.cond = sync.NewCond(&shared.mu)

	// One channel per direction per edge of the periodic ring. Buffer one
	// message so that every rank can post both sends before draining.
	up := make([]chan []float64, size)   // up[r] carries r's sendHi to r+1
	down := make([]chan []float64, size) // down[r] carries r's sendLo to r-1
	for i := range up {
		up[i] = make(chan []float64, 1)
		down[i] = make(chan []float64, 1)
	}

	comms := make([]Communicator, size)
	for r := 0; r < size; r++ {
		comms[r] = &ringComm{
			rank:   r,
			group:  shared,
			toHi:   up[r],
			toLo:   down[r],
			fromLo: up[(r-1+size)%size],
			fromHi: down[(r+1)%size],
		}
	}
	return comms
}

// ringGroup carries the shared reduction state of one ring. Reductions are
// condition-variable barriers: the last rank to arrive publishes the result
// and advances the generation.
type ringGroup struct {
	size int

	mu    sync.Mutex
	cond  *sync.Cond
	gen   int
	count int
	acc   float64
	out   float64
}

func (g *ringGroup) reduce(v float64, op func(a, b float64) float64) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	gen := g.gen
	if g.count == 0 {
		g.acc = v
	} else {
		g.acc = op(g.acc, v)
	}
	g.count++
	if g.count == g.size {
		g.out = g.acc
		g.count = 0
		g.gen++
		g.cond.Broadcast()
		return g.out
	}
	for gen == g.gen {
		g.cond.Wait()
	}
	return g.out
}

type ringComm struct {
	rank  int
	group *ringGroup

	toLo, toHi     chan<- []float64
	fromLo, fromHi <-chan []float64
}

func (c *ringComm) Rank() int { return c.rank }

func (c *ringComm) Size() int { return c.group.size }

func (c *ringComm) SumAll(v float64) float64 {
	return c.group.reduce(v, func(a, b float64) float64 { return a + b })
}

func (c *ringComm) MaxAll(v float64) float64 {
	return c.group.reduce(v, func(a, b float64) float64 {
		if a > b {
			return a
		}
		return b
	})
}

func (c *ringComm) Exchange(sendLo, sendHi, recvLo, recvHi []float64) error {
	// Copy outgoing data so the caller may reuse its buffers immediately.
	c.toLo <- append([]float64(nil), sendLo...)
	c.toHi <- append([]float64(nil), sendHi...)

	lo := <-c.fromLo
	if len(lo) != len(recvLo) {
		return fmt.Errorf("grid: rank %d received %d values for a %d-cell low guard",
			c.rank, len(lo), len(recvLo))
	}
	copy(recvLo, lo)

	hi := <-c.fromHi
	if len(hi) != len(recvHi) {
		return fmt.Errorf("grid: rank %d received %d values for a %d-cell high guard",
			c.rank, len(hi), len(recvHi))
	}
	copy(recvHi, hi)
	return nil
}
