package canopy

// Aggregator summarizes subtrees bottom-up.  Lift maps one element to its
// metadata; Combine folds two adjacent summaries, left argument first.
//
// Combine must respect concatenation order:
//
//	Combine(Combine(l, p), r) == Combine(l, Combine(p, r))
//
// for metadata aggregated left-to-right matching in-order traversal.  It need
// not be commutative.  Identity is the summary of an empty collection; the
// engine never passes it to Combine, it skips absent children instead.
type Aggregator[T, M any] interface {
	Identity() M
	Lift(T) M
	Combine(a, b M) M
}

// Pair is the metadata product of two aggregator kinds.
type Pair[A, B any] struct {
	A A
	B B
}

// Triple is the metadata product of three aggregator kinds.
type Triple[A, B, C any] struct {
	A A
	B B
	C C
}

type product2[T, A, B any] struct {
	a Aggregator[T, A]
	b Aggregator[T, B]
}

// Product2 composes two aggregators into an independent product: each
// component is lifted and combined on its own.
func Product2[T, A, B any](a Aggregator[T, A], b Aggregator[T, B]) Aggregator[T, Pair[A, B]] {
	return product2[T, A, B]{a, b}
}

func (p product2[T, A, B]) Identity() Pair[A, B] {
	return Pair[A, B]{p.a.Identity(), p.b.Identity()}
}

func (p product2[T, A, B]) Lift(t T) Pair[A, B] {
	return Pair[A, B]{p.a.Lift(t), p.b.Lift(t)}
}

func (p product2[T, A, B]) Combine(x, y Pair[A, B]) Pair[A, B] {
	return Pair[A, B]{p.a.Combine(x.A, y.A), p.b.Combine(x.B, y.B)}
}

type product3[T, A, B, C any] struct {
	a Aggregator[T, A]
	b Aggregator[T, B]
	c Aggregator[T, C]
}

// Product3 composes three aggregators componentwise.
func Product3[T, A, B, C any](a Aggregator[T, A], b Aggregator[T, B], c Aggregator[T, C]) Aggregator[T, Triple[A, B, C]] {
	return product3[T, A, B, C]{a, b, c}
}

func (p product3[T, A, B, C]) Identity() Triple[A, B, C] {
	return Triple[A, B, C]{p.a.Identity(), p.b.Identity(), p.c.Identity()}
}

func (p product3[T, A, B, C]) Lift(t T) Triple[A, B, C] {
	return Triple[A, B, C]{p.a.Lift(t), p.b.Lift(t), p.c.Lift(t)}
}

func (p product3[T, A, B, C]) Combine(x, y Triple[A, B, C]) Triple[A, B, C] {
	return Triple[A, B, C]{
		p.a.Combine(x.A, y.A),
		p.b.Combine(x.B, y.B),
		p.c.Combine(x.C, y.C),
	}
}
