package relay

import (
	"math/rand/v2"

	"github.com/yllada/mullvad-rotate/common"
)

// Selector picks the next candidate. Its only state is the random
// source used when rotation cannot continue from the current entity.
type Selector struct {
	rng *rand.Rand
}

// NewSelector returns a selector with a deterministic random source.
func NewSelector(seed uint64) *Selector {
	return &Selector{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewRandomSelector returns a selector seeded from the runtime's source.
func NewRandomSelector() *Selector {
	return &Selector{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// Select returns the index of the next candidate after current.
func (s *Selector) Select(candidates []Location, current Location, random bool) (int, error) {
	return Next(candidates, current, random, s.rng.IntN)
}

// Next returns the index in candidates that follows current. When random
// is set or current is not a candidate, the index is drawn with intN.
// If the result equals current it advances once more, so the result
// differs from current whenever there are at least two candidates.
func Next[T comparable](candidates []T, current T, random bool, intN func(int) int) (int, error) {
	n := len(candidates)
	if n == 0 {
		return -1, common.ErrEmptyCandidateSet
	}

	pos := -1
	for i, c := range candidates {
		if c == current {
			pos = i
			break
		}
	}

	var index int
	if random || pos < 0 {
		index = intN(n)
	} else {
		index = (pos + 1) % n
	}

	if candidates[index] == current {
		index = (index + 1) % n
	}
	return index, nil
}
