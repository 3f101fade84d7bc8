package fault

import (
	"math/rand"
	"sync"
	"time"
)

// Rand is a source of uniform samples in [0, 1)
type Rand interface {
	Float64() float64
}

type lockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRand returns a goroutine-safe uniform source seeded from the current time
func NewRand() Rand {
	return NewSeededRand(time.Now().UnixNano())
}

// NewSeededRand returns a goroutine-safe uniform source with a fixed seed
func NewSeededRand(seed int64) Rand {
	return &lockedRand{rnd: rand.New(rand.NewSource(seed))}
}

func (r *lockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Float64()
}

// FixedRand always returns the same sample
type FixedRand float64

// Float64 returns the fixed sample
func (f FixedRand) Float64() float64 {
	return float64(f)
}

// SequenceRand replays a list of samples, repeating the last one once exhausted
type SequenceRand struct {
	mu      sync.Mutex
	samples []float64
	next    int
}

// NewSequenceRand creates a SequenceRand. It panics when no samples are given.
func NewSequenceRand(samples ...float64) *SequenceRand {
	if len(samples) == 0 {
		panic("fault: SequenceRand needs at least one sample")
	}
	return &SequenceRand{samples: samples}
}

// Float64 returns the next sample
func (s *SequenceRand) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.samples[s.next]
	if s.next < len(s.samples)-1 {
		s.next++
	}
	return v
}
