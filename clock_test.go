package voxelizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualClock(t *testing.T) {
	var c ManualClock
	assert.Zero(t, c.Elapsed())
	c.Advance(250 * time.Millisecond)
	c.Advance(250 * time.Millisecond)
	assert.Equal(t, 500*time.Millisecond, c.Elapsed())
	c.Set(3 * time.Second)
	assert.Equal(t, 3*time.Second, c.Elapsed())
}

func TestWallClock_Monotonic(t *testing.T) {
	c := NewClock()
	a := c.Elapsed()
	time.Sleep(time.Millisecond)
	b := c.Elapsed()
	assert.GreaterOrEqual(t, b, a)
	assert.GreaterOrEqual(t, b, time.Millisecond)

	c.Restart()
	assert.Less(t, c.Elapsed(), b)
}
