package caller

import (
	"github.com/mcoot/bingohall/internal/dependencies/random"
	"github.com/mcoot/bingohall/internal/model"
)

// Rejection sampling gives up after this many repeats and falls back to the pool
const maxRejections = 16

// Caller draws bingo numbers uniformly from those not yet called
type Caller struct {
	random random.Random
}

// New creates a new Caller
func New(random random.Random) *Caller {
	return &Caller{
		random: random,
	}
}

// Draw returns a number in [model.MinNumber, model.MaxNumber] not in called.
// While fewer than half the numbers are called it samples the whole range and
// rejects repeats; past that it picks from the remaining pool directly.
func (c *Caller) Draw(called []int) (int, error) {
	const size = model.MaxNumber - model.MinNumber + 1

	seen := make(map[int]bool, len(called))
	for _, n := range called {
		if model.ValidNumber(n) {
			seen[n] = true
		}
	}
	if len(seen) >= size {
		return 0, model.ErrNumbersExhausted
	}

	if len(seen)*2 < size {
		for i := 0; i < maxRejections; i++ {
			n := model.MinNumber + c.random.Intn(size)
			if !seen[n] {
				return n, nil
			}
		}
	}

	remaining := make([]int, 0, size-len(seen))
	for n := model.MinNumber; n <= model.MaxNumber; n++ {
		if !seen[n] {
			remaining = append(remaining, n)
		}
	}
	return remaining[c.random.Intn(len(remaining))], nil
}
