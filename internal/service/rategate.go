package service

import (
	"fmt"
	"sync"
	"time"
)

// RateGate bounds how many submissions are admitted per rolling interval.
// It is a process-local token bucket: capacity permits refill continuously
// at capacity/interval, so admission spreads across the window instead of
// bursting at window boundaries. The gate does no I/O and never blocks.
type RateGate struct {
	mu       sync.Mutex
	capacity float64
	rate     float64 // permits per second
	tokens   float64
	last     time.Time

	now func() time.Time
}

// NewRateGate builds a gate admitting at most capacity permits per interval.
// A zero capacity yields a gate that always denies.
func NewRateGate(capacity int64, interval time.Duration) (*RateGate, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("rate gate capacity must not be negative, got %d", capacity)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("rate gate interval must be positive, got %s", interval)
	}
	g := &RateGate{
		capacity: float64(capacity),
		rate:     float64(capacity) / interval.Seconds(),
		tokens:   float64(capacity),
		now:      time.Now,
	}
	g.last = g.now()
	return g, nil
}

// TryAcquire consumes one permit if available and reports whether it did.
// Refill and take happen inside one critical section, so two concurrent
// callers can never both win the last permit.
func (g *RateGate) TryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if elapsed := now.Sub(g.last).Seconds(); elapsed > 0 {
		g.tokens += elapsed * g.rate
		if g.tokens > g.capacity {
			g.tokens = g.capacity
		}
	}
	g.last = now

	if g.tokens < 1 {
		return false
	}
	g.tokens--
	return true
}
