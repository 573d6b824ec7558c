package canopy

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
	"github.com/minio/blake2b-simd"
	"github.com/puzpuzpuz/xsync/v3"
)

// DefaultInternSize is the number of content addresses the intern index
// keeps when Config.InternSize is zero.
const DefaultInternSize = 64 << 10

var stashIDs atomic.Uint64

// Location is an opaque handle identifying a node within a Stash.  The zero
// Location refers to no node (an empty subtree).  Locations are comparable;
// within an interning Stash, two Locations are equal iff they reference
// bit-identical subtrees.  A Location must never be passed to a Stash other
// than the one that issued it.
type Location struct {
	stash uint64
	index uint64
}

// IsNil reports whether the Location refers to no node.
func (l Location) IsNil() bool { return l.index == 0 }

type slot[T, M any] struct {
	node node[T, M]
	sum  [32]byte
	refs atomic.Int32
}

// acquire takes a reference only if the slot is still live, so an intern hit
// can't resurrect a node that is concurrently being released.
func (sl *slot[T, M]) acquire() bool {
	for {
		n := sl.refs.Load()
		if n <= 0 {
			return false
		}
		if sl.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// Stash owns the nodes of one or more trees of the same collection kind,
// indexed by opaque Locations.  Allocation, cloning and release are safe for
// concurrent use; node reads need no synchronization at all because nodes
// are immutable and a live tree pins everything it references.
type Stash[T, M any] struct {
	id     uint64
	cfg    Config[T, M]
	slots  *xsync.MapOf[uint64, *slot[T, M]]
	intern *lru.ARCCache
	next   atomic.Uint64
	allocs atomic.Uint64
}

// NewStash validates the configuration and returns an empty Stash.
func NewStash[T, M any](cfg Config[T, M]) (*Stash[T, M], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	s := &Stash[T, M]{
		id:    stashIDs.Add(1),
		cfg:   cfg,
		slots: xsync.NewMapOf[uint64, *slot[T, M]](),
	}
	if cfg.InternSize >= 0 {
		size := cfg.InternSize
		if size == 0 {
			size = DefaultInternSize
		}
		cache, err := lru.NewARC(size)
		if err != nil {
			return nil, fmt.Errorf("intern index: %w", err)
		}
		s.intern = cache
	}
	return s, nil
}

// Empty returns an empty tree backed by this Stash.
func (s *Stash[T, M]) Empty() Tree[T, M] {
	return Tree[T, M]{stash: s}
}

// NumNodes returns the number of live nodes in the Stash.
func (s *Stash[T, M]) NumNodes() int { return s.slots.Size() }

// Allocs returns the total number of node allocations performed, counting
// neither interned reuses nor anything released since.
func (s *Stash[T, M]) Allocs() uint64 { return s.allocs.Load() }

// View dereferences a Location read-only.  It panics if the Location was
// issued by a different Stash or has already been reclaimed; both indicate a
// bug in the caller, and continuing would risk corrupting structure shared
// with other trees.
func (s *Stash[T, M]) View(loc Location) NodeView[T, M] {
	return NodeView[T, M]{s.load(loc)}
}

func (s *Stash[T, M]) load(loc Location) *node[T, M] {
	return &s.slot(loc).node
}

func (s *Stash[T, M]) slot(loc Location) *slot[T, M] {
	if loc.stash != s.id {
		panic("canopy: Location is not owned by this Stash")
	}
	sl, ok := s.slots.Load(loc.index)
	if !ok {
		panic("canopy: dangling Location")
	}
	return sl
}

// retain takes an additional reference on loc and returns it.  The caller
// must already hold a reference.
func (s *Stash[T, M]) retain(loc Location) Location {
	if loc.IsNil() {
		return loc
	}
	if s.slot(loc).refs.Add(1) <= 1 {
		panic("canopy: retain of a released node")
	}
	return loc
}

// release drops one reference on loc.  At zero the node's slot is freed, its
// intern entry dropped, and its children released in turn.
func (s *Stash[T, M]) release(loc Location) {
	if loc.IsNil() {
		return
	}
	sl := s.slot(loc)
	n := sl.refs.Add(-1)
	if n > 0 {
		return
	}
	if n < 0 {
		panic("canopy: reference count underflow")
	}
	s.slots.Delete(loc.index)
	if s.intern != nil {
		if cached, ok := s.intern.Peek(sl.sum); ok && cached.(Location) == loc {
			s.intern.Remove(sl.sum)
		}
	}
	s.release(sl.node.left)
	s.release(sl.node.right)
}

// allocate stores a new node and returns an owned reference to it,
// consuming the caller's references on left and right.  If an identical
// node is interned, its Location is reused instead and no allocation
// happens.
func (s *Stash[T, M]) allocate(pivot T, weight Level, left, right Location) Location {
	meta := s.cfg.Aggregator.Lift(pivot)
	if !left.IsNil() {
		meta = s.cfg.Aggregator.Combine(s.load(left).meta, meta)
	}
	if !right.IsNil() {
		meta = s.cfg.Aggregator.Combine(meta, s.load(right).meta)
	}
	sum := s.contentSum(pivot, weight, left, right)
	if s.intern != nil {
		if cached, ok := s.intern.Get(sum); ok {
			loc := cached.(Location)
			if sl, live := s.slots.Load(loc.index); live && sl.sum == sum && sl.acquire() {
				// The interned node owns its own child references.
				s.release(left)
				s.release(right)
				return loc
			}
		}
	}
	sl := &slot[T, M]{
		node: node[T, M]{pivot: pivot, weight: weight, left: left, right: right, meta: meta},
		sum:  sum,
	}
	sl.refs.Store(1)
	idx := s.next.Add(1)
	s.slots.Store(idx, sl)
	s.allocs.Add(1)
	loc := Location{stash: s.id, index: idx}
	if s.intern != nil {
		s.intern.Add(sum, loc)
	}
	return loc
}

// contentSum is the structural identity of a node: a blake2b-256 over the
// weight, the child identities, and the pivot's byte image.  Equal sums mean
// bit-identical subtrees.
func (s *Stash[T, M]) contentSum(pivot T, weight Level, left, right Location) [32]byte {
	h := blake2b.New256()
	var buf [65]byte
	buf[0] = byte(weight)
	ls := s.sumOf(left)
	copy(buf[1:33], ls[:])
	rs := s.sumOf(right)
	copy(buf[33:65], rs[:])
	_, _ = h.Write(buf[:])
	_, _ = h.Write(s.cfg.Bytes(pivot))
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func (s *Stash[T, M]) sumOf(loc Location) [32]byte {
	if loc.IsNil() {
		return [32]byte{}
	}
	return s.slot(loc).sum
}

func (s *Stash[T, M]) weigh(t T) Level {
	image := s.cfg.Bytes
	if s.cfg.WeightBytes != nil {
		image = s.cfg.WeightBytes
	}
	return weightOf(s.cfg.Salt, image(t))
}

func (s *Stash[T, M]) count(loc Location) uint64 {
	if loc.IsNil() {
		return 0
	}
	if s.cfg.Count == nil {
		panic("canopy: collection is not configured with a cardinality extractor")
	}
	return s.cfg.Count(s.load(loc).meta)
}
