package voxelizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProfiler_Scopes(t *testing.T) {
	p := NewProfiler()
	base := time.Unix(0, 0)
	now := base
	p.now = func() time.Time { return now }

	p.BeginScope("generate")
	now = now.Add(12500 * time.Microsecond)
	assert.Equal(t, 12500*time.Microsecond, p.EndScope("generate"))
	assert.Equal(t, 12500*time.Microsecond, p.Scope("generate"))

	assert.Zero(t, p.EndScope("never-started"))

	p.Reset()
	assert.Zero(t, p.Scope("generate"))
}

func TestProfiler_CountsAndString(t *testing.T) {
	p := NewProfiler()
	now := time.Unix(0, 0)
	p.now = func() time.Time { return now }

	p.BeginScope("frame")
	p.BeginScope("generate")
	now = now.Add(2 * time.Millisecond)
	p.EndScope("generate")
	p.EndScope("frame")

	p.Add("frames", 1)
	p.Add("frames", 2)
	p.SetCount("skipped", 4)
	assert.Equal(t, 3, p.Count("frames"))

	assert.Equal(t, "timings: frame=2.00ms generate=2.00ms counts: frames=3 skipped=4", p.String())
}
