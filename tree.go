package canopy

import (
	"fmt"
	"strings"
)

// Tree is one version of a persistent ordered collection: a root handle plus
// the Stash that owns its nodes.  Trees are values; operations return new
// Trees sharing all untouched structure with their inputs.  A Tree must be
// Released when no longer needed so the Stash can reclaim its nodes.
//
// All operations are total for well-formed inputs: there is nothing to
// retry and no error to return.  Misuse (foreign Locations, double release)
// panics.
type Tree[T, M any] struct {
	root  Location
	stash *Stash[T, M]
}

// Stash returns the Stash owning this tree's nodes.
func (t Tree[T, M]) Stash() *Stash[T, M] { return t.stash }

// Root returns the tree's root Location.  Within an interning Stash, equal
// roots mean equal contents.
func (t Tree[T, M]) Root() Location { return t.root }

// IsEmpty reports whether the tree holds no elements.
func (t Tree[T, M]) IsEmpty() bool { return t.root.IsNil() }

// Clone returns an independent handle on the same version.  O(1): it copies
// the root Location and takes a reference.
func (t Tree[T, M]) Clone() Tree[T, M] {
	return Tree[T, M]{root: t.stash.retain(t.root), stash: t.stash}
}

// Release drops this version's reference on its nodes.  Nodes shared with
// other live versions are unaffected.
func (t Tree[T, M]) Release() {
	t.stash.release(t.root)
}

// Meta returns the aggregated metadata of the whole tree.  ok is false for
// an empty tree, in which case the aggregator's identity is returned.
func (t Tree[T, M]) Meta() (M, bool) {
	if t.root.IsNil() {
		return t.stash.cfg.Aggregator.Identity(), false
	}
	return t.stash.load(t.root).meta, true
}

// Len returns the number of elements, O(1) via the cardinality component of
// the metadata product.
func (t Tree[T, M]) Len() uint64 {
	return t.stash.count(t.root)
}

// Insert returns a tree that also contains x.  If an element equal to x is
// already present the tree is returned unchanged and inserted is false.
// O(log n) new nodes; the rest is shared.
func (t Tree[T, M]) Insert(x T) (_ Tree[T, M], inserted bool) {
	return t.put(x, false)
}

// Replace is Insert, except an element equal to x is overwritten by x.
// replaced reports whether an equal element was present.
func (t Tree[T, M]) Replace(x T) (_ Tree[T, M], replaced bool) {
	nt, inserted := t.put(x, true)
	return nt, !inserted
}

func (t Tree[T, M]) put(x T, replace bool) (Tree[T, M], bool) {
	s := t.stash
	l, eq, r := s.split(s.retain(t.root), x)
	if eq != nil && !replace {
		s.release(l)
		s.release(r)
		return t.Clone(), false
	}
	leaf := s.allocate(x, s.weigh(x), Location{}, Location{})
	root := s.join(s.join(l, leaf), r)
	return Tree[T, M]{root: root, stash: s}, eq == nil
}

// Delete returns a tree without the element equal to x.  If x is absent the
// tree is returned unchanged and removed is false.
func (t Tree[T, M]) Delete(x T) (_ Tree[T, M], removed bool) {
	s := t.stash
	l, eq, r := s.split(s.retain(t.root), x)
	if eq == nil {
		s.release(l)
		s.release(r)
		return t.Clone(), false
	}
	return Tree[T, M]{root: s.join(l, r), stash: s}, true
}

// Find returns the stored element equal to x.
func (t Tree[T, M]) Find(x T) (T, bool) {
	s := t.stash
	loc := t.root
	for !loc.IsNil() {
		n := s.load(loc)
		switch c := s.cfg.Compare(x, n.pivot); {
		case c == 0:
			return n.pivot, true
		case c < 0:
			loc = n.left
		default:
			loc = n.right
		}
	}
	var zero T
	return zero, false
}

// Contains reports whether an element equal to x is present.
func (t Tree[T, M]) Contains(x T) bool {
	_, ok := t.Find(x)
	return ok
}

// At returns the i-th element in order, counting from zero.  O(log n) via
// cardinality metadata.
func (t Tree[T, M]) At(i uint64) (T, bool) {
	s := t.stash
	loc := t.root
	for !loc.IsNil() {
		n := s.load(loc)
		lc := s.count(n.left)
		switch {
		case i < lc:
			loc = n.left
		case i == lc:
			return n.pivot, true
		default:
			i -= lc + 1
			loc = n.right
		}
	}
	var zero T
	return zero, false
}

// Max returns the greatest element by the comparator.
func (t Tree[T, M]) Max() (T, bool) {
	s := t.stash
	loc := t.root
	if loc.IsNil() {
		var zero T
		return zero, false
	}
	for {
		n := s.load(loc)
		if n.right.IsNil() {
			return n.pivot, true
		}
		loc = n.right
	}
}

// Split partitions the tree into elements ordering before at and elements
// ordering after it; an element equal to at belongs to neither half.
func (t Tree[T, M]) Split(at T) (Tree[T, M], Tree[T, M]) {
	s := t.stash
	l, _, r := s.split(s.retain(t.root), at)
	return Tree[T, M]{root: l, stash: s}, Tree[T, M]{root: r, stash: s}
}

// SplitAt partitions the tree into its first i elements and the rest.
func (t Tree[T, M]) SplitAt(i uint64) (Tree[T, M], Tree[T, M]) {
	s := t.stash
	l, r := s.splitRank(s.retain(t.root), i)
	return Tree[T, M]{root: l, stash: s}, Tree[T, M]{root: r, stash: s}
}

// Join concatenates two trees.  Every element of t must order before every
// element of o; both trees must share a Stash.  Violating the precondition
// is a contract violation, not detected here.
func (t Tree[T, M]) Join(o Tree[T, M]) Tree[T, M] {
	s := t.stash
	s.sameStash(o)
	return Tree[T, M]{root: s.join(s.retain(t.root), s.retain(o.root)), stash: s}
}

// Push appends x after every current element.  For positional collections
// this is the ordinary append; for ordered ones the caller must keep the
// order contract, as with Join.
func (t Tree[T, M]) Push(x T) Tree[T, M] {
	s := t.stash
	leaf := s.allocate(x, s.weigh(x), Location{}, Location{})
	return Tree[T, M]{root: s.join(s.retain(t.root), leaf), stash: s}
}

func (s *Stash[T, M]) sameStash(o Tree[T, M]) {
	if o.stash != s {
		panic("canopy: trees belong to different Stashes")
	}
}

// Rebase copies the tree's contents into dst, which must be configured
// identically.  Shared subtrees dedup through dst's intern index, so
// rebasing versions of the same lineage costs only the delta.
func (t Tree[T, M]) Rebase(dst *Stash[T, M]) Tree[T, M] {
	if dst == t.stash {
		return t.Clone()
	}
	return Tree[T, M]{root: dst.copyIn(t.stash, t.root), stash: dst}
}

func (s *Stash[T, M]) copyIn(src *Stash[T, M], loc Location) Location {
	if loc.IsNil() {
		return Location{}
	}
	n := src.load(loc)
	l := s.copyIn(src, n.left)
	r := s.copyIn(src, n.right)
	return s.allocate(n.pivot, n.weight, l, r)
}

// String renders the tree structure for debugging.
func (t Tree[T, M]) String() string {
	var b strings.Builder
	t.stash.dump(&b, t.root, "")
	return b.String()
}

func (s *Stash[T, M]) dump(b *strings.Builder, loc Location, indent string) {
	if loc.IsNil() {
		return
	}
	n := s.load(loc)
	fmt.Fprintf(b, "%s%v (w=%d)\n", indent, n.pivot, n.weight)
	s.dump(b, n.left, indent+"  ")
	s.dump(b, n.right, indent+"  ")
}
