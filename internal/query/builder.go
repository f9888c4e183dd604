package query

// Builder accumulates predicates for queries whose filter shape depends on
// which optional inputs are present.
//
// The accumulator starts Empty, and the first And or Or on an empty builder
// just stores its operand, so b.Or(x) as a first call is the same as b.And(x).
// Callers expecting Or on an empty builder to mean "x OR false" will be
// surprised; the behaviour is kept on purpose.
type Builder struct {
	pred Predicate
	err  error
}

func NewBuilder() *Builder { return &Builder{pred: Empty} }

// And ANDs p onto the accumulated predicate. Empty or invalid operands are not
// added; the first invalid one is reported by Build.
func (b *Builder) And(p Predicate) *Builder {
	if b.accept(p) {
		b.pred = And(b.pred, p)
	}
	return b
}

// Or ORs p onto the accumulated predicate.
func (b *Builder) Or(p Predicate) *Builder {
	if b.accept(p) {
		b.pred = Or(b.pred, p)
	}
	return b
}

// AndNot ANDs the negation of p.
func (b *Builder) AndNot(p Predicate) *Builder {
	if b.accept(p) {
		b.pred = And(b.pred, Not(p))
	}
	return b
}

// AndIf adds fn() with AND only when ok. fn is not called otherwise, so it may
// dereference optional inputs.
func (b *Builder) AndIf(ok bool, fn func() Predicate) *Builder {
	if ok {
		b.And(fn())
	}
	return b
}

// OrIf adds fn() with OR only when ok.
func (b *Builder) OrIf(ok bool, fn func() Predicate) *Builder {
	if ok {
		b.Or(fn())
	}
	return b
}

func (b *Builder) accept(p Predicate) bool {
	if IsEmpty(p) {
		return false
	}
	if err := p.validate(); err != nil {
		if b.err == nil {
			b.err = err
		}
		return false
	}
	return true
}

// HasValue reports whether at least one predicate was added.
func (b *Builder) HasValue() bool { return !IsEmpty(b.pred) }

// Value returns the accumulated predicate, Empty if nothing was added.
func (b *Builder) Value() Predicate {
	if b.pred == nil {
		return Empty
	}
	return b.pred
}

func (b *Builder) Err() error { return b.err }

// Build returns the accumulated predicate or the first construction error.
func (b *Builder) Build() (Predicate, error) {
	if b.err != nil {
		return Empty, b.err
	}
	return b.Value(), nil
}
