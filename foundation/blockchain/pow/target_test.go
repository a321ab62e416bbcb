package pow_test

import (
	"testing"

	"github.com/ardanlabs/blocknode/foundation/blockchain/pow"
)

type fakeTimestamps []int64

func (f fakeTimestamps) TimestampAt(index uint64) int64 {
	if index >= uint64(len(f)) {
		return 0
	}
	return f[index]
}

func (f fakeTimestamps) Length() uint64 {
	return uint64(len(f))
}

func Test_DifficultyBeforeFirstWindow(t *testing.T) {
	target := pow.Target{
		TimeExpectedSeconds: 10,
		DifficultyInit:      4,
		AdjustAfter:         5,
		AdjustFactorLimit:   4,
	}

	chain := fakeTimestamps{0, 1000, 2000}

	got := target.Difficulty(2, chain)
	if got != 4 {
		t.Fatalf("should hold the initial difficulty before the first window closes, got %v", got)
	}
}

func Test_DifficultyRetargetsUpwardWhenBlocksArriveFast(t *testing.T) {
	target := pow.Target{
		TimeExpectedSeconds: 10,
		DifficultyInit:      4,
		AdjustAfter:         4,
		AdjustFactorLimit:   4,
	}

	// Window of 4 blocks (index 0..3) expected to take 4*10=40s, took 20s:
	// factor = 40/20 = 2, clamped to [1/4, 4].
	chain := fakeTimestamps{0, 5000, 10000, 20000}

	got := target.Difficulty(4, chain)
	want := 4.0 * 2.0
	if got != want {
		t.Fatalf("should scale difficulty up when blocks arrive faster than expected: got %v want %v", got, want)
	}
}

func Test_DifficultyClampsToFactorLimit(t *testing.T) {
	target := pow.Target{
		TimeExpectedSeconds: 10,
		DifficultyInit:      4,
		AdjustAfter:         4,
		AdjustFactorLimit:   2,
	}

	// Actual window took 1s against an expected 40s: uncapped factor
	// would be 40, clamped down to the configured limit of 2.
	chain := fakeTimestamps{0, 300, 600, 1000}

	got := target.Difficulty(4, chain)
	want := 4.0 * 2.0
	if got != want {
		t.Fatalf("should clamp the retarget factor to AdjustFactorLimit: got %v want %v", got, want)
	}
}
