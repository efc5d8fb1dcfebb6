package invert

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestOperatorIdentityDefault(t *testing.T) {
	op := NewOperator[*vecField](nil)
	f := newVecField(1, 2, 3)
	if op.Apply(f) != f {
		t.Error("nil function must act as the identity")
	}
}

func TestOperatorRebindBeforeSetup(t *testing.T) {
	op := NewOperator(func(f *vecField) *vecField { return f })
	op.SetFunc(func(f *vecField) *vecField {
		out := f.CloneEmpty()
		for k := 0; k < f.Len(); k++ {
			out.SetAt(k, -f.At(k))
		}
		return out
	})

	got := op.Apply(newVecField(1, 2))
	assert.Equal(t, []float64{-1, -2}, got.v, "rebinding before any setup must take effect")
}

// Once a session captured the handle, the bound function is part of the
// solver identity and must not change.
func TestOperatorFrozenBySetup(t *testing.T) {
	op := NewOperator[*vecField](nil)
	s := NewSession(newVecField(1, 2, 3), op, Config{})
	if err := s.Setup(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	defer s.Close()

	assert.Panics(t, func() {
		op.SetFunc(func(f *vecField) *vecField { return f })
	}, "SetFunc after Setup must panic")
}
