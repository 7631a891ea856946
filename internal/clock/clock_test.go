package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTodayUsesLocation(t *testing.T) {
	manila := time.FixedZone("PHT", 8*60*60)
	c := NewFakeClock(time.Date(2024, 4, 30, 17, 30, 0, 0, time.UTC))

	assert.Equal(t, "2024-04-30", Today(c, nil))
	assert.Equal(t, "2024-05-01", Today(c, manila))
}

func TestSteppingClock(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	c := NewSteppingClock(start, time.Second)

	assert.Equal(t, start, c.Now())
	assert.Equal(t, start.Add(time.Second), c.Now())

	c.Set(start)
	c.Advance(time.Minute)
	assert.Equal(t, start.Add(time.Minute), c.Now())
}
