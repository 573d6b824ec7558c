package canopy

// The split/join primitives follow an ownership discipline: every Location
// argument is an owned reference consumed by the call, and every returned
// Location is an owned reference.  Borrowed reads go through load, which is
// safe because the caller still owns an ancestor.

// split partitions loc into elements ordering before at, the element equal
// to at (nil if absent), and elements ordering after.  O(log n) new nodes;
// everything else is shared by reference.
func (s *Stash[T, M]) split(loc Location, at T) (Location, *T, Location) {
	if loc.IsNil() {
		return Location{}, nil, Location{}
	}
	n := s.load(loc)
	c := s.cfg.Compare(at, n.pivot)
	switch {
	case c == 0:
		left := s.retain(n.left)
		right := s.retain(n.right)
		pivot := n.pivot
		s.release(loc)
		return left, &pivot, right
	case c < 0:
		ll, eq, lr := s.split(s.retain(n.left), at)
		right := s.allocate(n.pivot, n.weight, lr, s.retain(n.right))
		s.release(loc)
		return ll, eq, right
	default:
		rl, eq, rr := s.split(s.retain(n.right), at)
		left := s.allocate(n.pivot, n.weight, s.retain(n.left), rl)
		s.release(loc)
		return left, eq, rr
	}
}

// splitRank partitions loc into its first n elements and the rest.
func (s *Stash[T, M]) splitRank(loc Location, n uint64) (Location, Location) {
	if loc.IsNil() {
		return Location{}, Location{}
	}
	if n == 0 {
		return Location{}, loc
	}
	nd := s.load(loc)
	lc := s.count(nd.left)
	if n <= lc {
		l1, l2 := s.splitRank(s.retain(nd.left), n)
		right := s.allocate(nd.pivot, nd.weight, l2, s.retain(nd.right))
		s.release(loc)
		return l1, right
	}
	r1, r2 := s.splitRank(s.retain(nd.right), n-lc-1)
	left := s.allocate(nd.pivot, nd.weight, s.retain(nd.left), r1)
	s.release(loc)
	return left, r2
}

// joinPrior reports whether the left tree's root outranks the right tree's
// root as the joined root.  Higher weight wins; on equal weights the element
// that orders first has strictly higher priority, which for join is always
// the left root.  Applied consistently, this makes tree shape a function of
// content alone.
func (s *Stash[T, M]) joinPrior(l, r *node[T, M]) bool {
	if l.weight != r.weight {
		return l.weight > r.weight
	}
	return true
}

// join merges two trees where every element of l orders before every element
// of r, taking the higher-priority root at each step.  O(log n) new nodes.
func (s *Stash[T, M]) join(l, r Location) Location {
	if l.IsNil() {
		return r
	}
	if r.IsNil() {
		return l
	}
	ln := s.load(l)
	rn := s.load(r)
	if s.joinPrior(ln, rn) {
		nr := s.join(s.retain(ln.right), r)
		res := s.allocate(ln.pivot, ln.weight, s.retain(ln.left), nr)
		s.release(l)
		return res
	}
	nl := s.join(l, s.retain(rn.left))
	res := s.allocate(rn.pivot, rn.weight, nl, s.retain(rn.right))
	s.release(r)
	return res
}
