package invert

import (
	"sync"
	"time"

	"k8s.io/klog/v2"
)

// Metrics accumulates cumulative engine timings: setup cost, whole-solve
// cost and the marshalling share of it, plus call counts. Sessions feed the
// collector they are configured with; every session without an explicit one
// feeds DefaultMetrics, so process-wide totals come for free and tests can
// isolate a session by injecting their own collector.
//
// Metrics is safe for concurrent use, distinct sessions may share one.
type Metrics struct {
	mu sync.Mutex
	s  MetricsSnapshot
}

// MetricsSnapshot is a point-in-time copy of the accumulated counters.
type MetricsSnapshot struct {
	Setups      int
	Solves      int
	SetupTime   time.Duration
	SolveTime   time.Duration
	MarshalTime time.Duration
}

// DefaultMetrics collects for every session not configured otherwise.
var DefaultMetrics = &Metrics{}

func (m *Metrics) addSetup(d time.Duration) {
	m.mu.Lock()
	m.s.Setups++
	m.s.SetupTime += d
	m.mu.Unlock()
}

func (m *Metrics) addSolve(d time.Duration) {
	m.mu.Lock()
	m.s.Solves++
	m.s.SolveTime += d
	m.mu.Unlock()
}

func (m *Metrics) addMarshal(d time.Duration) {
	m.mu.Lock()
	m.s.MarshalTime += d
	m.mu.Unlock()
}

// Snapshot returns the current totals.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s
}

// Reset returns the current totals and zeroes the collector.
func (m *Metrics) Reset() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.s
	m.s = MetricsSnapshot{}
	return s
}

// Report logs the accumulated totals.
func (m *Metrics) Report() {
	s := m.Snapshot()
	klog.Infof("invert: %d setups in %v, %d solves in %v (marshalling %v)",
		s.Setups, s.SetupTime, s.Solves, s.SolveTime, s.MarshalTime)
}
