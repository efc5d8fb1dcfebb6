package invert

// OperatorFunc is the linear operation to invert, as a pure field-to-field
// mapping. The engine calls it with fields on the session grid and reads
// the returned field once; it may return its argument when it works in
// place. Implementations may exchange guard cells or reduce over the grid
// communicator, which makes every application collective. A failure inside
// the function should panic; the panic unwinds through the engine
// unswallowed.
type OperatorFunc[F Field[F]] func(F) F

// Operator is the handle a session inverts: it binds the operator function
// and stands in for the assembled matrix that never exists. The zero
// function is the identity, so plumbing can be exercised before any real
// operator is written.
type Operator[F Field[F]] struct {
	fn     OperatorFunc[F]
	frozen bool
}

// NewOperator returns a handle over fn. A nil fn is the identity.
func NewOperator[F Field[F]](fn OperatorFunc[F]) *Operator[F] {
	return &Operator[F]{fn: fn}
}

// Apply runs the bound function on in.
func (op *Operator[F]) Apply(in F) F {
	if op.fn == nil {
		return in
	}
	return op.fn(in)
}

// SetFunc rebinds the operator function. Once a session has captured the
// handle in Setup the handle is frozen and SetFunc panics: rebinding after
// setup would silently change the system mid-flight.
func (op *Operator[F]) SetFunc(fn OperatorFunc[F]) {
	if op.frozen {
		panic("invert: SetFunc on an operator already captured by a session Setup")
	}
	op.fn = fn
}

func (op *Operator[F]) freeze() {
	op.frozen = true
}
