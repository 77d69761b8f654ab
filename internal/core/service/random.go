package service

import (
	"math/rand"
	"sync"
	"time"
)

// Random is the source of randomness for route jitter and the station
// simulator. Implementations must be safe for concurrent use.
type Random interface {
	Float64() float64
	Intn(n int) int
}

type lockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandom returns a concurrency-safe Random seeded with seed.
func NewRandom(seed int64) Random {
	return &lockedRand{rnd: rand.New(rand.NewSource(seed))}
}

// NewTimeSeededRandom returns a Random seeded from the wall clock.
func NewTimeSeededRandom() Random {
	return NewRandom(time.Now().UnixNano())
}

func (r *lockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Float64()
}

func (r *lockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Intn(n)
}
