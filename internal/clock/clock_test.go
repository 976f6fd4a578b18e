package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManual(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
	c := NewManual(start)
	assert.Equal(t, start.UTC(), c.Now())
	assert.Equal(t, time.UTC, c.Now().Location())

	c.Advance(time.Minute)
	assert.Equal(t, start.UTC().Add(time.Minute), c.Now())

	later := start.Add(48 * time.Hour)
	c.Set(later)
	assert.Equal(t, later.UTC(), c.Now())
}

func TestSystem(t *testing.T) {
	t.Parallel()

	before := time.Now().UTC()
	now := NewSystem().Now()
	assert.False(t, now.Before(before))
	assert.Equal(t, time.UTC, now.Location())
}
