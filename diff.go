package canopy

// Diff walks two versions of a collection and reports their differing
// elements in comparator order, pruning any subtree the versions share by
// Location.  For versions of the same lineage the cost is proportional to
// the delta, not the collection size.
//
// The callback receives the element as stored in each version: old nil
// means the element was added, new nil means it was removed, both non-nil
// means both versions hold the same order position (for maps, the same key)
// with differing element identity (for maps, a changed value).  Iteration
// stops when the callback returns
// keepGoing==false or an error.  The pointers are valid only for the
// duration of the call; copy the elements to keep them.
func Diff[T, M any](old, new Tree[T, M], f func(old, new *T) (keepGoing bool, err error)) error {
	s := old.stash
	s.sameStash(new)
	var ostack, nstack diffStack[T]
	ostack.pushLink(old.root)
	nstack.pushLink(new.root)
	for {
		o := ostack.peek()
		n := nstack.peek()
		switch {
		case o == nil && n == nil:
			return nil
		case o != nil && n != nil && !o.isElem && !n.isElem && o.loc == n.loc:
			ostack.pop()
			nstack.pop()
		case o != nil && !o.isElem:
			expandTop(&ostack, s)
		case n != nil && !n.isElem:
			expandTop(&nstack, s)
		case o == nil:
			if keep, err := f(nil, &n.elem); err != nil || !keep {
				return err
			}
			nstack.pop()
		case n == nil:
			if keep, err := f(&o.elem, nil); err != nil || !keep {
				return err
			}
			ostack.pop()
		default:
			switch c := s.cfg.Compare(o.elem, n.elem); {
			case c < 0:
				if keep, err := f(&o.elem, nil); err != nil || !keep {
					return err
				}
				ostack.pop()
			case c > 0:
				if keep, err := f(nil, &n.elem); err != nil || !keep {
					return err
				}
				nstack.pop()
			default:
				// Same order position; report only if the stored elements
				// differ in identity (for maps, a changed value).
				if string(s.cfg.Bytes(o.elem)) != string(s.cfg.Bytes(n.elem)) {
					if keep, err := f(&o.elem, &n.elem); err != nil || !keep {
						return err
					}
				}
				ostack.pop()
				nstack.pop()
			}
		}
	}
}

type diffItem[T any] struct {
	loc    Location
	elem   T
	isElem bool
}

type diffStack[T any] struct {
	items []diffItem[T]
}

func (d *diffStack[T]) pushLink(loc Location) {
	if !loc.IsNil() {
		d.items = append(d.items, diffItem[T]{loc: loc})
	}
}

func (d *diffStack[T]) peek() *diffItem[T] {
	if len(d.items) == 0 {
		return nil
	}
	return &d.items[len(d.items)-1]
}

func (d *diffStack[T]) pop() {
	d.items = d.items[:len(d.items)-1]
}

// expandTop replaces the stack's top link with its subtree's right link,
// pivot, and left link, leaving the in-order next item on top.
func expandTop[T, M any](d *diffStack[T], s *Stash[T, M]) {
	top := d.peek()
	n := s.load(top.loc)
	d.pop()
	d.pushLink(n.right)
	d.items = append(d.items, diffItem[T]{elem: n.pivot, isElem: true})
	d.pushLink(n.left)
}
