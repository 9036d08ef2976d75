package voxelizer

import (
	"sync"
	"time"
)

// Clock delivers elapsed wall-clock time since it was started.
type Clock interface {
	Elapsed() time.Duration
}

type WallClock struct {
	start time.Time
}

func NewClock() *WallClock {
	return &WallClock{start: time.Now()}
}

func (c *WallClock) Elapsed() time.Duration {
	return time.Since(c.start)
}

// Restart resets elapsed time to zero.
func (c *WallClock) Restart() {
	c.start = time.Now()
}

// ManualClock only moves when told to.
type ManualClock struct {
	mu      sync.Mutex
	elapsed time.Duration
}

func (c *ManualClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.elapsed += d
	c.mu.Unlock()
}

func (c *ManualClock) Set(d time.Duration) {
	c.mu.Lock()
	c.elapsed = d
	c.mu.Unlock()
}
