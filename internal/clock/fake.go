package clock

import (
	"sync"
	"time"
)

// FakeClock is a settable Clock for tests. It always reports UTC.
type FakeClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t.UTC()}
}

// NewSteppingClock returns a FakeClock that moves forward by step after
// every Now call, so consecutive records get distinct timestamps.
func NewSteppingClock(t time.Time, step time.Duration) *FakeClock {
	return &FakeClock{now: t.UTC(), step: step}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.UTC()
}
