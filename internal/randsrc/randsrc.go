// Package randsrc provides the seedable random source used for synthesized
// content.
package randsrc

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Source is a goroutine-safe PCG-backed random source.
type Source struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Source. A zero seed seeds from the current time.
func New(seed uint64) *Source {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Source{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// IntN returns a value in [0, n). It returns 0 when n <= 0.
func (s *Source) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}
