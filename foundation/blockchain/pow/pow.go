// Package pow implements the proof-of-work engine: the difficulty target,
// the nonce search, and the periodic difficulty retarget.
package pow

import (
	"math"
)

// Target holds the configuration needed to compute the required difficulty
// at any point in the chain and to validate a block hash against it.
type Target struct {
	TimeExpectedSeconds int64
	DifficultyInit      float64
	AdjustAfter         uint64
	AdjustFactorLimit   float64
}

// BlockTimestamps is the minimal view of the chain the retarget algorithm
// needs: the timestamp recorded at each index.
type BlockTimestamps interface {
	TimestampAt(index uint64) int64
	Length() uint64
}

// Difficulty returns the difficulty that applies to the block at index,
// given the chain's own recorded timestamps. Before the first retarget
// window closes, the difficulty is DifficultyInit.
func (t Target) Difficulty(index uint64, chain BlockTimestamps) float64 {
	if t.AdjustAfter == 0 {
		return t.DifficultyInit
	}

	difficulty := t.DifficultyInit

	windows := index / t.AdjustAfter
	for w := uint64(1); w <= windows; w++ {
		firstIdx := (w - 1) * t.AdjustAfter
		lastIdx := w*t.AdjustAfter - 1

		if lastIdx >= chain.Length() {
			break
		}

		expected := float64(int64(t.AdjustAfter) * t.TimeExpectedSeconds)
		actualMillis := chain.TimestampAt(lastIdx) - chain.TimestampAt(firstIdx)
		actual := float64(actualMillis) / 1000.0

		factor := expected / actual
		switch {
		case factor < 1/t.AdjustFactorLimit:
			factor = 1 / t.AdjustFactorLimit
		case factor > t.AdjustFactorLimit:
			factor = t.AdjustFactorLimit
		}

		difficulty *= factor
	}

	return difficulty
}

// RequiredZeroBits converts a difficulty value into the number of leading
// zero bits a satisfying hash must carry.
func RequiredZeroBits(difficulty float64) int {
	if difficulty < 1 {
		return 0
	}
	return int(math.Floor(math.Log2(difficulty)))
}

// LeadingZeroBitsHex counts the leading zero bits of a hex-encoded digest,
// interpreting it as a big-endian bit string.
func LeadingZeroBitsHex(hexDigest string) int {
	count := 0
	for i := 0; i < len(hexDigest); i++ {
		var nibble byte
		switch c := hexDigest[i]; {
		case c >= '0' && c <= '9':
			nibble = c - '0'
		case c >= 'a' && c <= 'f':
			nibble = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			nibble = c - 'A' + 10
		default:
			return count
		}

		if nibble == 0 {
			count += 4
			continue
		}

		for mask := byte(0x8); mask != 0; mask >>= 1 {
			if nibble&mask != 0 {
				return count
			}
			count++
		}
	}

	return count
}
