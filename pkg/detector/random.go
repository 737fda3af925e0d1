package detector

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// Source supplies uniform draws in [0,1). Implementations must be safe for
// concurrent use.
type Source interface {
	Float64() float64
}

type lockedSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSource returns a deterministic source for the given seed.
func NewSource(seed uint64) Source {
	return &lockedSource{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewTimeSource returns a source seeded from the wall clock.
func NewTimeSource() Source {
	return NewSource(uint64(time.Now().UnixNano()))
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64()
}

// derive seeds an independent child source from src. Callers fanning work
// out to goroutines derive every child before starting them so the draw
// order, and with it the output, does not depend on scheduling.
func derive(src Source) Source {
	return NewSource(uint64(src.Float64() * (1 << 53)))
}

// between draws uniformly from [lo, lo+span).
func between(src Source, lo, span float64) float64 {
	return lo + src.Float64()*span
}

// intBetween draws an integer uniformly from [lo, lo+span).
func intBetween(src Source, lo, span int) int {
	n := int(src.Float64() * float64(span))
	if n >= span {
		n = span - 1
	}
	return lo + n
}

// Latency is a simulated processing delay drawn uniformly from [Min, Max].
type Latency struct {
	Min time.Duration
	Max time.Duration
}

var NoLatency = Latency{}

func (l Latency) wait(ctx context.Context, src Source) error {
	d := l.Min
	if l.Max > l.Min {
		d += time.Duration(src.Float64() * float64(l.Max-l.Min))
	}
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
