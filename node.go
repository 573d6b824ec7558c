package canopy

// node is one immutable tree node: a pivot element, its weight, handles to
// the two children, and the aggregated metadata for the whole subtree.
// Nodes are never modified after allocation.
type node[T, M any] struct {
	pivot  T
	weight Level
	left   Location
	right  Location
	meta   M
}

// NodeView is a read-only view of a stored node, for external layers that
// walk the node graph directly (persistence, replication, visualization).
type NodeView[T, M any] struct {
	n *node[T, M]
}

// Pivot returns the node's element.
func (v NodeView[T, M]) Pivot() T { return v.n.pivot }

// Weight returns the node's balance weight.
func (v NodeView[T, M]) Weight() Level { return v.n.weight }

// Left returns the Location of the left child; IsNil reports absence.
func (v NodeView[T, M]) Left() Location { return v.n.left }

// Right returns the Location of the right child; IsNil reports absence.
func (v NodeView[T, M]) Right() Location { return v.n.right }

// Meta returns the aggregated metadata for the node's subtree.
func (v NodeView[T, M]) Meta() M { return v.n.meta }
