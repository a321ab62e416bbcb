package pow

import (
	"context"
)

// checkInterval is how often, in nonce attempts, the search checks for
// cancellation. The search must notice a new head within this many tries.
const checkInterval = 1 << 14

// Candidate is the minimal information the nonce search needs to hash and
// increment. Hash must reflect the current Nonce value.
type Candidate interface {
	Hash() string
	SetNonce(nonce uint64)
}

// Search looks for the smallest nonce, starting from zero, whose hash
// satisfies zeroBits leading zero bits. It checks ctx for cancellation at
// least every checkInterval attempts, as required when the chain advances
// out from under a running search.
func Search(ctx context.Context, c Candidate, zeroBits int) (nonce uint64, hash string, ok bool) {
	var attempts uint64

	for n := uint64(0); ; n++ {
		if attempts%checkInterval == 0 {
			if err := ctx.Err(); err != nil {
				return 0, "", false
			}
		}
		attempts++

		c.SetNonce(n)
		hash := c.Hash()
		if LeadingZeroBitsHex(hash) >= zeroBits {
			return n, hash, true
		}
	}
}
