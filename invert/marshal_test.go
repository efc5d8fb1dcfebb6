package invert

import (
	"github.com/notargets/gridsolve/grid"
	"github.com/stretchr/testify/assert"
	"math/rand"
	"testing"
)

// vecField is the minimal Field implementation: a bare vector with no grid
// behind it. It keeps unit tests independent of any particular grid
// package and doubles as a check that the capability contract is complete.
type vecField struct {
	v []float64
}

func newVecField(vals ...float64) *vecField {
	return &vecField{v: vals}
}

func (f *vecField) Len() int              { return len(f.v) }
func (f *vecField) At(k int) float64      { return f.v[k] }
func (f *vecField) SetAt(k int, x float64) { f.v[k] = x }
func (f *vecField) CloneEmpty() *vecField {
	return &vecField{v: make([]float64, len(f.v))}
}

// ============================================================================
// Section 1: Pack/Unpack round trips
// ============================================================================

// Test 1.1: Unpack inverts Pack element for element
func TestPackUnpackRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for _, n := range []int{1, 4, 17, 256} {
		f := &vecField{v: make([]float64, n)}
		for k := range f.v {
			f.v[k] = rnd.NormFloat64()
		}

		buf := make([]float64, n)
		Pack(f, buf)
		assert.Equal(t, f.v, buf, "n=%d: packed buffer must equal the field values", n)

		back := f.CloneEmpty()
		Unpack(buf, back)
		assert.Equal(t, f.v, back.v, "n=%d: unpacking must restore every element", n)
	}
}

// Test 1.2: Grid fields flatten in their canonical x-then-y order
func TestPackGridFieldOrder(t *testing.T) {
	g, err := grid.New(grid.Config{Nx: 3, Ny: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := grid.NewField(g)
	want := make([]float64, f.Len())
	for i := 0; i < 3; i++ {
		for j := 0; j < 2; j++ {
			f.Set(i, j, float64(10*i+j))
			want[i*2+j] = float64(10*i + j)
		}
	}

	buf := make([]float64, f.Len())
	Pack(f, buf)
	assert.Equal(t, want, buf)

	// Guard values must not travel through the flat form.
	f.Set(-1, 0, 99)
	f.Set(3, 1, 99)
	Pack(f, buf)
	assert.Equal(t, want, buf, "guard writes leaked into the packed buffer")

	back := grid.NewField(g)
	Unpack(buf, back)
	for i := 0; i < 3; i++ {
		for j := 0; j < 2; j++ {
			if back.Get(i, j) != f.Get(i, j) {
				t.Errorf("element (%d,%d): got %v, want %v", i, j, back.Get(i, j), f.Get(i, j))
			}
		}
	}
}

// Test 1.3: Size mismatches are contract violations
func TestPackSizeMismatchPanics(t *testing.T) {
	f := newVecField(1, 2, 3)

	assert.Panics(t, func() { Pack(f, make([]float64, 2)) })
	assert.Panics(t, func() { Pack(f, nil) })
	assert.Panics(t, func() { Unpack(make([]float64, 4), f) })
}
