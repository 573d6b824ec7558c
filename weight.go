package canopy

import (
	"math/bits"

	"github.com/cespare/xxhash/v2"
)

// Level is the balance weight of an element: the number of leading zero bits
// in its salted 64-bit hash.  P(Level >= k) = 2^-k, so levels follow a
// geometric distribution over [0, 64].
type Level uint8

// hash64 hashes a byte image under the given salt.  The salt keeps
// collections of different kinds from sharing canonical shapes by
// coincidence; trees of the same collection kind always share it.
//
// Changing the hash function or the salt invalidates structural sharing with
// trees built under the old values.  That is a compatibility contract, not a
// bug.
func hash64(salt uint64, b []byte) uint64 {
	d := xxhash.NewWithSeed(salt)
	_, _ = d.Write(b)
	return d.Sum64()
}

func weightOf(salt uint64, b []byte) Level {
	return Level(bits.LeadingZeros64(hash64(salt, b)))
}
