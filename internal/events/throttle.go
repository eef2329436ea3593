package events

import (
	"sync"
	"time"
)

// Throttle limits how often a key (user) may emit. The map is guarded
// because orchestration cycles for different requests run on separate
// goroutines, unlike the single event loop this was ported from.
type Throttle struct {
	mu       sync.Mutex
	last     map[string]time.Time
	interval time.Duration
}

func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{
		last:     make(map[string]time.Time),
		interval: interval,
	}
}

// Allow reports whether key may emit at now, and records the emission if so.
func (t *Throttle) Allow(key string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.last[key]; ok && now.Sub(prev) < t.interval {
		return false
	}
	t.last[key] = now
	return true
}
