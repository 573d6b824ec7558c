package canopy

import (
	"encoding/binary"
	"errors"
)

// Entry is one key/value pair of a Map.
type Entry[K, V any] struct {
	Key   K
	Value V
}

// MapConfig assembles a Map.  Keys alone determine order and shape; values
// participate only in structural identity and the value checksum.
type MapConfig[K, V any] struct {
	CompareKeys func(a, b K) int
	KeyBytes    func(K) []byte
	ValueBytes  func(V) []byte
	Salt        uint64
	InternSize  int
}

// MapMeta is the metadata product maintained for maps: entry count, separate
// key and value checksums, and the maximum key.
type MapMeta[K any] struct {
	Count  uint64
	Keys   Sum
	Values Sum
	MaxKey K
}

type mapAgg[K, V any] struct {
	keys CheckSum[Entry[K, V]]
	vals CheckSum[Entry[K, V]]
	max  Max[K]
}

func (a mapAgg[K, V]) Identity() MapMeta[K] {
	return MapMeta[K]{Keys: a.keys.Identity(), Values: a.vals.Identity(), MaxKey: a.max.Identity()}
}

func (a mapAgg[K, V]) Lift(e Entry[K, V]) MapMeta[K] {
	return MapMeta[K]{
		Count:  1,
		Keys:   a.keys.Lift(e),
		Values: a.vals.Lift(e),
		MaxKey: e.Key,
	}
}

func (a mapAgg[K, V]) Combine(x, y MapMeta[K]) MapMeta[K] {
	return MapMeta[K]{
		Count:  x.Count + y.Count,
		Keys:   a.keys.Combine(x.Keys, y.Keys),
		Values: a.vals.Combine(x.Values, y.Values),
		MaxKey: a.max.Combine(x.MaxKey, y.MaxKey),
	}
}

// DuplicatePolicy selects what Set does when the key is already present.
type DuplicatePolicy int

const (
	// Overwrite replaces the present entry's value.
	Overwrite DuplicatePolicy = iota
	// Reject leaves the map unchanged and returns ErrDuplicateKey.
	Reject
)

// ErrDuplicateKey is returned by Set under the Reject policy when the key is
// already present.
var ErrDuplicateKey = errors.New("canopy: key already present")

// Map is a persistent ordered map.  Construct with NewMap; the zero value is
// not usable.
type Map[K, V any] struct {
	tree Tree[Entry[K, V], MapMeta[K]]
}

// NewMap returns an empty map with its own Stash.
func NewMap[K, V any](cfg MapConfig[K, V]) (*Map[K, V], error) {
	if cfg.CompareKeys == nil {
		return nil, errCompareRequired
	}
	keyHash := func(e Entry[K, V]) uint64 { return hash64(cfg.Salt, cfg.KeyBytes(e.Key)) }
	valHash := func(e Entry[K, V]) uint64 { return hash64(cfg.Salt, cfg.ValueBytes(e.Value)) }
	stash, err := NewStash(Config[Entry[K, V], MapMeta[K]]{
		Compare: func(a, b Entry[K, V]) int { return cfg.CompareKeys(a.Key, b.Key) },
		// Length-prefix the key so distinct key/value splits of the same
		// byte string never share an identity.
		Bytes: func(e Entry[K, V]) []byte {
			kb := cfg.KeyBytes(e.Key)
			vb := cfg.ValueBytes(e.Value)
			out := make([]byte, 0, 8+len(kb)+len(vb))
			out = binary.BigEndian.AppendUint64(out, uint64(len(kb)))
			out = append(out, kb...)
			return append(out, vb...)
		},
		WeightBytes: func(e Entry[K, V]) []byte { return cfg.KeyBytes(e.Key) },
		Salt:        cfg.Salt,
		Aggregator: mapAgg[K, V]{
			keys: CheckSum[Entry[K, V]]{Hash: keyHash},
			vals: CheckSum[Entry[K, V]]{Hash: valHash},
			max:  Max[K]{Compare: cfg.CompareKeys},
		},
		Count:      func(m MapMeta[K]) uint64 { return m.Count },
		InternSize: cfg.InternSize,
	})
	if err != nil {
		return nil, err
	}
	return &Map[K, V]{tree: stash.Empty()}, nil
}

// Empty returns a new empty map sharing this map's Stash.
func (m *Map[K, V]) Empty() *Map[K, V] {
	return &Map[K, V]{tree: m.tree.Stash().Empty()}
}

// Clone returns an independent handle on the current version.  O(1).
func (m *Map[K, V]) Clone() *Map[K, V] {
	return &Map[K, V]{tree: m.tree.Clone()}
}

// Release drops this handle's version.
func (m *Map[K, V]) Release() {
	m.tree.Release()
}

func (m *Map[K, V]) swap(nt Tree[Entry[K, V], MapMeta[K]]) {
	m.tree.Release()
	m.tree = nt
}

// Set stores v under k.  Under Reject, a present key leaves the map
// unchanged and returns ErrDuplicateKey; under Overwrite, the entry's value
// is replaced.
func (m *Map[K, V]) Set(k K, v V, policy DuplicatePolicy) error {
	e := Entry[K, V]{Key: k, Value: v}
	if policy == Reject {
		nt, inserted := m.tree.Insert(e)
		if !inserted {
			nt.Release()
			return ErrDuplicateKey
		}
		m.swap(nt)
		return nil
	}
	nt, _ := m.tree.Replace(e)
	m.swap(nt)
	return nil
}

// Get returns the value stored under k.
func (m *Map[K, V]) Get(k K) (V, bool) {
	e, ok := m.tree.Find(Entry[K, V]{Key: k})
	return e.Value, ok
}

// Contains reports whether k is present.
func (m *Map[K, V]) Contains(k K) bool {
	_, ok := m.Get(k)
	return ok
}

// Delete removes k, reporting whether it was present.
func (m *Map[K, V]) Delete(k K) bool {
	nt, removed := m.tree.Delete(Entry[K, V]{Key: k})
	m.swap(nt)
	return removed
}

// Len returns the number of entries.  O(1).
func (m *Map[K, V]) Len() uint64 { return m.tree.Len() }

// At returns the i-th entry in key order.
func (m *Map[K, V]) At(i uint64) (Entry[K, V], bool) { return m.tree.At(i) }

// MaxKey returns the greatest key.  O(1) via metadata.
func (m *Map[K, V]) MaxKey() (K, bool) {
	meta, ok := m.tree.Meta()
	return meta.MaxKey, ok
}

// Union returns a new map holding every entry of either map.  For keys
// present in both, o's value wins.
func (m *Map[K, V]) Union(o *Map[K, V]) *Map[K, V] {
	t, release := m.adopt(o)
	res := &Map[K, V]{tree: m.tree.Union(t)}
	if release {
		t.Release()
	}
	return res
}

// Intersect returns a new map holding the keys present in both, with m's
// values.
func (m *Map[K, V]) Intersect(o *Map[K, V]) *Map[K, V] {
	t, release := m.adopt(o)
	res := &Map[K, V]{tree: m.tree.Intersect(t)}
	if release {
		t.Release()
	}
	return res
}

// Difference returns a new map holding m's entries whose keys are absent
// from o.
func (m *Map[K, V]) Difference(o *Map[K, V]) *Map[K, V] {
	t, release := m.adopt(o)
	res := &Map[K, V]{tree: m.tree.Difference(t)}
	if release {
		t.Release()
	}
	return res
}

func (m *Map[K, V]) adopt(o *Map[K, V]) (Tree[Entry[K, V], MapMeta[K]], bool) {
	if o.tree.Stash() == m.tree.Stash() {
		return o.tree, false
	}
	return o.tree.Rebase(m.tree.Stash()), true
}

// Equal reports whether both maps hold the same entries, in O(1) by
// comparing metadata checksums.
func (m *Map[K, V]) Equal(o *Map[K, V]) bool {
	if m.tree.Root() == o.tree.Root() && m.tree.Stash() == o.tree.Stash() {
		return true
	}
	mm, _ := m.tree.Meta()
	om, _ := o.tree.Meta()
	return mm.Count == om.Count && mm.Keys == om.Keys && mm.Values == om.Values
}

// EqualKeys reports whether both maps hold the same key set, ignoring
// values.  O(1).
func (m *Map[K, V]) EqualKeys(o *Map[K, V]) bool {
	mm, _ := m.tree.Meta()
	om, _ := o.tree.Meta()
	return mm.Count == om.Count && mm.Keys == om.Keys
}

// EqualValues reports whether both maps hold the same multiset of values in
// the same key order, ignoring the keys themselves.  O(1).
func (m *Map[K, V]) EqualValues(o *Map[K, V]) bool {
	mm, _ := m.tree.Meta()
	om, _ := o.tree.Meta()
	return mm.Count == om.Count && mm.Values == om.Values
}

// Iter invokes f for each entry in ascending key order.
func (m *Map[K, V]) Iter(f func(K, V) error) error {
	return m.tree.Iter(func(e Entry[K, V]) error { return f(e.Key, e.Value) })
}

// Cursor returns a lazy, restartable ascending traversal of entries.
func (m *Map[K, V]) Cursor() *Cursor[Entry[K, V], MapMeta[K]] { return m.tree.Cursor() }

// Diff reports the entries on which m and o differ, in key order.  old nil
// means the key was added in o, new nil means it was removed, both non-nil
// means the key is in both with differing values; shared subtrees are
// skipped by Location.
func (m *Map[K, V]) Diff(o *Map[K, V], f func(old, new *Entry[K, V]) (keepGoing bool, err error)) error {
	t, release := m.adopt(o)
	if release {
		defer t.Release()
	}
	return Diff(m.tree, t, f)
}

// Tree exposes the underlying tree version for core-level operations.
func (m *Map[K, V]) Tree() Tree[Entry[K, V], MapMeta[K]] { return m.tree }
