package canopy

// VectorConfig assembles a Vector.  Vectors are positional, so no comparator
// is involved; Bytes is still required for weights and structural identity.
type VectorConfig[T any] struct {
	Bytes      func(T) []byte
	Salt       uint64
	InternSize int
}

// VecMeta is the metadata product maintained for vectors: element count and
// an order-sensitive checksum.
type VecMeta struct {
	Count uint64
	Sum   Sum
}

type vecAgg[T any] struct {
	sum CheckSum[T]
}

func (a vecAgg[T]) Identity() VecMeta { return VecMeta{Sum: a.sum.Identity()} }

func (a vecAgg[T]) Lift(t T) VecMeta { return VecMeta{Count: 1, Sum: a.sum.Lift(t)} }

func (a vecAgg[T]) Combine(x, y VecMeta) VecMeta {
	return VecMeta{Count: x.Count + y.Count, Sum: a.sum.Combine(x.Sum, y.Sum)}
}

// Vector is a persistent sequence with O(log n) random access, insertion and
// removal at any index.  Construct with NewVector; the zero value is not
// usable.
type Vector[T any] struct {
	tree Tree[T, VecMeta]
}

// NewVector returns an empty vector with its own Stash.
func NewVector[T any](cfg VectorConfig[T]) (*Vector[T], error) {
	hash := func(t T) uint64 { return hash64(cfg.Salt, cfg.Bytes(t)) }
	stash, err := NewStash(Config[T, VecMeta]{
		Bytes:      cfg.Bytes,
		Salt:       cfg.Salt,
		Aggregator: vecAgg[T]{sum: CheckSum[T]{Hash: hash}},
		Count:      func(m VecMeta) uint64 { return m.Count },
		InternSize: cfg.InternSize,
	})
	if err != nil {
		return nil, err
	}
	return &Vector[T]{tree: stash.Empty()}, nil
}

// Empty returns a new empty vector sharing this vector's Stash.
func (v *Vector[T]) Empty() *Vector[T] {
	return &Vector[T]{tree: v.tree.Stash().Empty()}
}

// Clone returns an independent handle on the current version.  O(1).
func (v *Vector[T]) Clone() *Vector[T] {
	return &Vector[T]{tree: v.tree.Clone()}
}

// Release drops this handle's version.
func (v *Vector[T]) Release() {
	v.tree.Release()
}

func (v *Vector[T]) swap(nt Tree[T, VecMeta]) {
	v.tree.Release()
	v.tree = nt
}

// Len returns the number of elements.  O(1).
func (v *Vector[T]) Len() uint64 { return v.tree.Len() }

// At returns the element at index i.
func (v *Vector[T]) At(i uint64) (T, bool) { return v.tree.At(i) }

// Push appends x.
func (v *Vector[T]) Push(x T) {
	v.swap(v.tree.Push(x))
}

// Pop removes and returns the last element.
func (v *Vector[T]) Pop() (T, bool) {
	n := v.Len()
	if n == 0 {
		var zero T
		return zero, false
	}
	last, _ := v.At(n - 1)
	v.removeAt(n - 1)
	return last, true
}

// Insert places x at index i, shifting later elements right.  i may equal
// Len to append; a larger i is out of range.
func (v *Vector[T]) Insert(i uint64, x T) bool {
	if i > v.Len() {
		return false
	}
	l, r := v.tree.SplitAt(i)
	s := v.tree.Stash()
	leaf := s.allocate(x, s.weigh(x), Location{}, Location{})
	root := s.join(s.join(l.root, leaf), r.root)
	v.swap(Tree[T, VecMeta]{root: root, stash: s})
	return true
}

// Remove deletes the element at index i, shifting later elements left.
func (v *Vector[T]) Remove(i uint64) bool {
	if i >= v.Len() {
		return false
	}
	v.removeAt(i)
	return true
}

func (v *Vector[T]) removeAt(i uint64) {
	s := v.tree.Stash()
	l, r := v.tree.SplitAt(i)
	gone, rest := s.splitRank(r.root, 1)
	s.release(gone)
	v.swap(Tree[T, VecMeta]{root: s.join(l.root, rest), stash: s})
}

// Set replaces the element at index i with x.
func (v *Vector[T]) Set(i uint64, x T) bool {
	if i >= v.Len() {
		return false
	}
	s := v.tree.Stash()
	l, r := v.tree.SplitAt(i)
	gone, rest := s.splitRank(r.root, 1)
	s.release(gone)
	leaf := s.allocate(x, s.weigh(x), Location{}, Location{})
	v.swap(Tree[T, VecMeta]{root: s.join(s.join(l.root, leaf), rest), stash: s})
	return true
}

// Concat appends all of o's elements after v's, leaving o unchanged.
func (v *Vector[T]) Concat(o *Vector[T]) {
	t := o.tree
	if t.Stash() != v.tree.Stash() {
		t = o.tree.Rebase(v.tree.Stash())
		defer t.Release()
	}
	v.swap(v.tree.Join(t))
}

// SplitAt splits off the elements from index i onward into a new vector,
// leaving the first i in v.
func (v *Vector[T]) SplitAt(i uint64) *Vector[T] {
	l, r := v.tree.SplitAt(i)
	v.swap(l)
	return &Vector[T]{tree: r}
}

// Equal reports whether both vectors hold the same elements in the same
// order, in O(1) by comparing checksums.
func (v *Vector[T]) Equal(o *Vector[T]) bool {
	if v.tree.Root() == o.tree.Root() && v.tree.Stash() == o.tree.Stash() {
		return true
	}
	vm, _ := v.tree.Meta()
	om, _ := o.tree.Meta()
	return vm.Count == om.Count && vm.Sum == om.Sum
}

// Iter invokes f for each element from index 0 upward.
func (v *Vector[T]) Iter(f func(T) error) error { return v.tree.Iter(f) }

// Cursor returns a lazy, restartable traversal from index 0.
func (v *Vector[T]) Cursor() *Cursor[T, VecMeta] { return v.tree.Cursor() }

// Tree exposes the underlying tree version for core-level operations.
func (v *Vector[T]) Tree() Tree[T, VecMeta] { return v.tree }
