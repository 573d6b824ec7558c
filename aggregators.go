package canopy

// sumBase is the (odd) base of the polynomial checksum.  Odd so that powers
// of it never vanish modulo 2^64.
const sumBase = 0x9e3779b97f4a7c15

// Sum is an order-sensitive digest of a sequence of elements.  Two sequences
// with the same elements in the same order have equal Sums; permutations do
// not.  Digest is a polynomial hash in sumBase over the element hashes; pow
// carries sumBase^n so that Combine stays O(1) and associative.
type Sum struct {
	Digest uint64
	pow    uint64
}

func (s Sum) combine(o Sum) Sum {
	return Sum{
		Digest: s.Digest*o.pow + o.Digest,
		pow:    s.pow * o.pow,
	}
}

// Cardinality counts elements: Lift is 1, Combine is addition.  Gives O(1)
// collection size and positional (rank) selection.
type Cardinality[T any] struct{}

func (Cardinality[T]) Identity() uint64        { return 0 }
func (Cardinality[T]) Lift(T) uint64           { return 1 }
func (Cardinality[T]) Combine(a, b uint64) uint64 { return a + b }

// CheckSum digests elements under the given hash.  Used for O(1) equality:
// under canonical shape two same-kind collections are equal iff their Sums
// are; across non-canonical shapes (vectors) equality is probabilistic with
// collision probability bounded by the 64-bit digest width.
//
// KeySum and ValSum for maps are CheckSums whose hash reads only the key or
// only the value of an entry.
type CheckSum[T any] struct {
	Hash func(T) uint64
}

func (CheckSum[T]) Identity() Sum { return Sum{0, 1} }

func (c CheckSum[T]) Lift(t T) Sum { return Sum{c.Hash(t), sumBase} }

func (CheckSum[T]) Combine(a, b Sum) Sum { return a.combine(b) }

// Max tracks the extremal element under the given order.
type Max[T any] struct {
	Compare func(a, b T) int
}

func (Max[T]) Identity() T { var zero T; return zero }

func (Max[T]) Lift(t T) T { return t }

func (m Max[T]) Combine(a, b T) T {
	if m.Compare(a, b) >= 0 {
		return a
	}
	return b
}
