package canopy

import "errors"

// Config declares everything a collection kind needs before its first node
// exists: the element order, the byte image hashed for weights, checksums
// and structural identity, a per-kind salt, and the metadata product.  It is
// validated once, at Stash construction, never again on the hot path.
type Config[T, M any] struct {
	// Compare is a total order over elements.  Nil is allowed only for
	// positional collections (Vector), which never compare elements; ordered
	// operations panic without it.  A Compare that is not a total order is a
	// contract violation: the resulting trees stay memory-safe but are no
	// longer canonical.
	Compare func(a, b T) int

	// Bytes is a stable byte image of an element's comparable identity.
	// Elements that compare equal must produce equal images.
	Bytes func(T) []byte

	// WeightBytes, when set, replaces Bytes as the image hashed for node
	// weights.  Maps set it to the key's image alone, so maps over equal key
	// sets share shape no matter what the values are.  Structural identity
	// and interning always use Bytes.
	WeightBytes func(T) []byte

	// Salt perturbs all hashing so distinct collection kinds never share
	// canonical shapes by coincidence.
	Salt uint64

	// Aggregator computes each node's metadata.  Required.
	Aggregator Aggregator[T, M]

	// Count extracts element count from metadata, when the product includes
	// Cardinality.  Enables O(1) Len and positional selection.
	Count func(M) uint64

	// InternSize bounds the structural intern index: 0 means
	// DefaultInternSize, negative disables interning.  Interning trades a
	// content-hash per allocation for Location-equality of identical
	// subtrees; disabling it never affects correctness, only the O(1)
	// fast paths.
	InternSize int
}

var errCompareRequired = errors.New("canopy: Compare is required for ordered collections")

func (c Config[T, M]) validate() error {
	if c.Bytes == nil {
		return errors.New("canopy: Config.Bytes is required")
	}
	if c.Aggregator == nil {
		return errors.New("canopy: Config.Aggregator is required")
	}
	return nil
}
