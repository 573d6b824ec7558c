package canopy

// Iter invokes f for every element in comparator order, stopping on the
// first error, which is returned.
func (t Tree[T, M]) Iter(f func(T) error) error {
	return t.stash.iter(t.root, f)
}

func (s *Stash[T, M]) iter(loc Location, f func(T) error) error {
	if loc.IsNil() {
		return nil
	}
	n := s.load(loc)
	if err := s.iter(n.left, f); err != nil {
		return err
	}
	if err := f(n.pivot); err != nil {
		return err
	}
	return s.iter(n.right, f)
}

// Cursor is a lazy in-order traversal.  It borrows the tree's nodes, so it
// is valid only while the tree it came from is retained.  Traversals are
// restartable: the tree is immutable, so a fresh Cursor from the same tree
// reproduces the same sequence.
type Cursor[T, M any] struct {
	stash *Stash[T, M]
	stack []Location
}

// Cursor returns a cursor positioned before the first element.
func (t Tree[T, M]) Cursor() *Cursor[T, M] {
	c := &Cursor[T, M]{stash: t.stash}
	c.pushLeft(t.root)
	return c
}

func (c *Cursor[T, M]) pushLeft(loc Location) {
	for !loc.IsNil() {
		c.stack = append(c.stack, loc)
		loc = c.stash.load(loc).left
	}
}

// Next returns the next element, or ok=false when the traversal is done.
func (c *Cursor[T, M]) Next() (T, bool) {
	if len(c.stack) == 0 {
		var zero T
		return zero, false
	}
	loc := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	n := c.stash.load(loc)
	c.pushLeft(n.right)
	return n.pivot, true
}
