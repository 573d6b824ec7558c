package canopy

// SetConfig assembles a Set: a total order, a byte image of the element
// identity, and a salt distinguishing this set kind from every other
// collection kind.
type SetConfig[T any] struct {
	Compare func(a, b T) int
	Bytes   func(T) []byte
	Salt    uint64
	// InternSize is passed through to Config.InternSize.
	InternSize int
}

// SetMeta is the metadata product maintained for sets: cardinality,
// order-sensitive checksum, and the maximum element.
type SetMeta[T any] struct {
	Count uint64
	Sum   Sum
	Max   T
}

type setAgg[T any] struct {
	card Cardinality[T]
	sum  CheckSum[T]
	max  Max[T]
}

func (a setAgg[T]) Identity() SetMeta[T] {
	return SetMeta[T]{Count: a.card.Identity(), Sum: a.sum.Identity(), Max: a.max.Identity()}
}

func (a setAgg[T]) Lift(t T) SetMeta[T] {
	return SetMeta[T]{Count: a.card.Lift(t), Sum: a.sum.Lift(t), Max: a.max.Lift(t)}
}

func (a setAgg[T]) Combine(x, y SetMeta[T]) SetMeta[T] {
	return SetMeta[T]{
		Count: a.card.Combine(x.Count, y.Count),
		Sum:   a.sum.Combine(x.Sum, y.Sum),
		Max:   a.max.Combine(x.Max, y.Max),
	}
}

// Set is a persistent ordered set.  The zero value is not usable; construct
// with NewSet.  Methods mutate the handle in place by swapping versions;
// Clone gives an independent O(1) copy.
type Set[T any] struct {
	tree Tree[T, SetMeta[T]]
}

// NewSet returns an empty set with its own Stash.
func NewSet[T any](cfg SetConfig[T]) (*Set[T], error) {
	if cfg.Compare == nil {
		return nil, errCompareRequired
	}
	hash := func(t T) uint64 { return hash64(cfg.Salt, cfg.Bytes(t)) }
	stash, err := NewStash(Config[T, SetMeta[T]]{
		Compare: cfg.Compare,
		Bytes:   cfg.Bytes,
		Salt:    cfg.Salt,
		Aggregator: setAgg[T]{
			sum: CheckSum[T]{Hash: hash},
			max: Max[T]{Compare: cfg.Compare},
		},
		Count:      func(m SetMeta[T]) uint64 { return m.Count },
		InternSize: cfg.InternSize,
	})
	if err != nil {
		return nil, err
	}
	return &Set[T]{tree: stash.Empty()}, nil
}

// Empty returns a new empty set sharing this set's Stash, so the two can be
// unioned, intersected and diffed with full structural sharing.
func (s *Set[T]) Empty() *Set[T] {
	return &Set[T]{tree: s.tree.Stash().Empty()}
}

// Clone returns an independent handle on the current version.  O(1).
func (s *Set[T]) Clone() *Set[T] {
	return &Set[T]{tree: s.tree.Clone()}
}

// Release drops this handle's version.
func (s *Set[T]) Release() {
	s.tree.Release()
}

func (s *Set[T]) swap(nt Tree[T, SetMeta[T]]) {
	s.tree.Release()
	s.tree = nt
}

// Insert adds t; inserting a present element is a no-op.
func (s *Set[T]) Insert(t T) {
	nt, _ := s.tree.Insert(t)
	s.swap(nt)
}

// Delete removes t, reporting whether it was present.
func (s *Set[T]) Delete(t T) bool {
	nt, removed := s.tree.Delete(t)
	s.swap(nt)
	return removed
}

// Contains reports membership.
func (s *Set[T]) Contains(t T) bool { return s.tree.Contains(t) }

// Len returns the number of elements.  O(1).
func (s *Set[T]) Len() uint64 { return s.tree.Len() }

// At returns the i-th smallest element.
func (s *Set[T]) At(i uint64) (T, bool) { return s.tree.At(i) }

// Max returns the greatest element.  O(1) via metadata.
func (s *Set[T]) Max() (T, bool) {
	m, ok := s.tree.Meta()
	return m.Max, ok
}

// Equal reports whether both sets hold the same elements, in O(1) by
// comparing root Locations and checksums.
func (s *Set[T]) Equal(o *Set[T]) bool {
	if s.tree.Root() == o.tree.Root() && s.tree.Stash() == o.tree.Stash() {
		return true
	}
	sm, _ := s.tree.Meta()
	om, _ := o.tree.Meta()
	return sm.Count == om.Count && sm.Sum == om.Sum
}

// Union returns a new set with the elements of both.  Operands are
// unchanged.  If o lives in a different Stash its contents are rebased
// first.
func (s *Set[T]) Union(o *Set[T]) *Set[T] {
	t, release := s.adopt(o)
	res := &Set[T]{tree: s.tree.Union(t)}
	if release {
		t.Release()
	}
	return res
}

// Intersect returns a new set with the elements common to both.
func (s *Set[T]) Intersect(o *Set[T]) *Set[T] {
	t, release := s.adopt(o)
	res := &Set[T]{tree: s.tree.Intersect(t)}
	if release {
		t.Release()
	}
	return res
}

// Difference returns a new set with s's elements absent from o.
func (s *Set[T]) Difference(o *Set[T]) *Set[T] {
	t, release := s.adopt(o)
	res := &Set[T]{tree: s.tree.Difference(t)}
	if release {
		t.Release()
	}
	return res
}

func (s *Set[T]) adopt(o *Set[T]) (Tree[T, SetMeta[T]], bool) {
	if o.tree.Stash() == s.tree.Stash() {
		return o.tree, false
	}
	return o.tree.Rebase(s.tree.Stash()), true
}

// Iter invokes f for each element in ascending order.
func (s *Set[T]) Iter(f func(T) error) error { return s.tree.Iter(f) }

// Cursor returns a lazy, restartable ascending traversal.
func (s *Set[T]) Cursor() *Cursor[T, SetMeta[T]] { return s.tree.Cursor() }

// Tree exposes the underlying tree version for core-level operations.
func (s *Set[T]) Tree() Tree[T, SetMeta[T]] { return s.tree }
