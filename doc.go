/*
Package canopy is an engine for persistent (immutable, structurally-shared)
ordered collections: weight-balanced trees whose shape is a deterministic
function of their contents, with O(1) cloning, cheap set algebra, and
pluggable derived summaries (size, checksum, maximum, key/value digests).

How it balances

Every element is assigned a weight: the number of leading zero bits in a
salted 64-bit hash of the element's identity.  Weights follow a geometric
distribution, so treating them as max-heap priorities (ties broken toward the
element that sorts first) yields trees of expected logarithmic height with no
rotations and no rebalancing counters.  More importantly, because the weight
is a pure function of the element, two trees holding the same elements have
bit-identical structure no matter the insertion order.  Equal content means
equal shape, which makes whole-subtree sharing and O(1) equality tests
possible, the same property that makes Merkle Search Trees interesting.

Nodes and the Stash

Nodes are immutable records owned by a Stash and addressed only by opaque
Location handles.  Mutating operations never touch an existing node; they
allocate replacements along the affected path and share everything else by
reference.  The Stash reference-counts each Location and reclaims a node,
cascading to its children, when the last tree using it is released.  By
default the Stash also interns structurally identical subtrees - the
blake2b-256 content address of a node maps back to its live Location - so
building the same content twice converges on the same handles, and Union of
trees with large shared regions degenerates to a handle comparison.

Collections

Set, Map and Vector are thin facades over the same tree core, each declaring
its comparator, byte image, salt and metadata product up front.  Metadata
aggregators follow a small monoid protocol (Identity, Lift, Combine) and
compose componentwise, so a collection's summary tuple stays consistent under
every insert, delete, split, join, union, intersection and difference.

Concurrency

A tree value, once built, is safe to read from any number of goroutines; only
the Stash bookkeeping (clone, release, allocate) mutates shared state, and
that bookkeeping is safe for concurrent use.
*/
package canopy
