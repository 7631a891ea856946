package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const memoryMaxKeys = 10_000

// MemoryBucket is the single-process stand-in for TokenBucket when no
// redis is configured.
type MemoryBucket struct {
	mu       sync.Mutex
	limiters map[string]*memoryEntry
	now      func() time.Time
}

type memoryEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewMemoryBucket() *MemoryBucket {
	return &MemoryBucket{
		limiters: make(map[string]*memoryEntry),
		now:      time.Now,
	}
}

func (m *MemoryBucket) Allow(key string, r float64, burst int) *RateLimitResult {
	now := m.now()

	m.mu.Lock()
	entry, ok := m.limiters[key]
	if !ok {
		if len(m.limiters) >= memoryMaxKeys {
			m.pruneLocked(now)
		}
		entry = &memoryEntry{limiter: rate.NewLimiter(rate.Limit(r), burst)}
		m.limiters[key] = entry
	}
	entry.lastSeen = now
	m.mu.Unlock()

	reservation := entry.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return &RateLimitResult{Allowed: false, Limit: burst}
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return &RateLimitResult{
			Allowed:    false,
			Limit:      burst,
			RetryAfter: delay,
		}
	}

	return &RateLimitResult{
		Allowed:   true,
		Limit:     burst,
		Remaining: int(entry.limiter.TokensAt(now)),
	}
}

// pruneLocked drops entries idle long enough to have refilled.
func (m *MemoryBucket) pruneLocked(now time.Time) {
	for key, entry := range m.limiters {
		if now.Sub(entry.lastSeen) > time.Hour {
			delete(m.limiters, key)
		}
	}
}
