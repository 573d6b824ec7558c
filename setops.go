package canopy

// Union returns a tree containing every element of t or o.  Where both
// trees hold an equal element, o's copy wins; for sets the two are
// indistinguishable, for maps this is the "values from the argument"
// contract.  If the roots are the same Location the result is t itself,
// O(1) and allocation-free; interned shared subtrees give the same fast
// path at every level of the recursion, so unions of mostly-shared trees
// run in far under O(n).
func (t Tree[T, M]) Union(o Tree[T, M]) Tree[T, M] {
	s := t.stash
	s.sameStash(o)
	if t.root == o.root {
		return t.Clone()
	}
	return Tree[T, M]{root: s.union(s.retain(t.root), s.retain(o.root)), stash: s}
}

// Intersect returns a tree containing the elements present in both t and o,
// keeping t's copies.
func (t Tree[T, M]) Intersect(o Tree[T, M]) Tree[T, M] {
	s := t.stash
	s.sameStash(o)
	return Tree[T, M]{root: s.intersect(s.retain(t.root), s.retain(o.root)), stash: s}
}

// Difference returns a tree containing the elements of t absent from o.
func (t Tree[T, M]) Difference(o Tree[T, M]) Tree[T, M] {
	s := t.stash
	s.sameStash(o)
	return Tree[T, M]{root: s.difference(s.retain(t.root), s.retain(o.root)), stash: s}
}

// unionPrior decides which root pivots the union: higher weight wins, equal
// weights fall back to the comparator with the element ordering first
// taking priority.  The same rule join applies, so unions land on the
// canonical shape.
func (s *Stash[T, M]) unionPrior(a, b *node[T, M]) bool {
	if a.weight != b.weight {
		return a.weight > b.weight
	}
	return s.cfg.Compare(a.pivot, b.pivot) < 0
}

func (s *Stash[T, M]) union(a, b Location) Location {
	if a == b {
		s.release(b)
		return a
	}
	if a.IsNil() {
		return b
	}
	if b.IsNil() {
		return a
	}
	an := s.load(a)
	bn := s.load(b)
	if s.unionPrior(an, bn) {
		bl, eq, br := s.split(b, an.pivot)
		ul := s.union(s.retain(an.left), bl)
		ur := s.union(s.retain(an.right), br)
		pivot := an.pivot
		if eq != nil {
			// b also holds the element; its copy wins.
			pivot = *eq
		}
		weight := an.weight
		s.release(a)
		return s.allocate(pivot, weight, ul, ur)
	}
	al, _, ar := s.split(a, bn.pivot)
	ul := s.union(al, s.retain(bn.left))
	ur := s.union(ar, s.retain(bn.right))
	pivot := bn.pivot
	weight := bn.weight
	s.release(b)
	return s.allocate(pivot, weight, ul, ur)
}

func (s *Stash[T, M]) intersect(a, b Location) Location {
	if a == b {
		s.release(b)
		return a
	}
	if a.IsNil() || b.IsNil() {
		s.release(a)
		s.release(b)
		return Location{}
	}
	an := s.load(a)
	bl, eq, br := s.split(b, an.pivot)
	il := s.intersect(s.retain(an.left), bl)
	ir := s.intersect(s.retain(an.right), br)
	pivot := an.pivot
	weight := an.weight
	s.release(a)
	if eq != nil {
		return s.allocate(pivot, weight, il, ir)
	}
	return s.join(il, ir)
}

func (s *Stash[T, M]) difference(a, b Location) Location {
	if a == b {
		s.release(a)
		s.release(b)
		return Location{}
	}
	if a.IsNil() {
		s.release(b)
		return Location{}
	}
	if b.IsNil() {
		return a
	}
	an := s.load(a)
	bl, eq, br := s.split(b, an.pivot)
	dl := s.difference(s.retain(an.left), bl)
	dr := s.difference(s.retain(an.right), br)
	pivot := an.pivot
	weight := an.weight
	s.release(a)
	if eq == nil {
		return s.allocate(pivot, weight, dl, dr)
	}
	return s.join(dl, dr)
}
