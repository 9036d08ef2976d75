package voxelizer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "test", false)
	assert.False(t, l.DebugEnabled())

	l.Debugf("hidden %d", 1)
	l.Infof("shown %d", 2)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown 2")
	assert.Contains(t, buf.String(), "test")

	l.SetDebug(true)
	assert.True(t, l.DebugEnabled())
	l.Debugf("visible %d", 3)
	assert.Contains(t, buf.String(), "visible 3")

	l.Warnf("careful")
	l.Errorf("broken")
	assert.Contains(t, buf.String(), "careful")
	assert.Contains(t, buf.String(), "broken")
}

func TestLoggerOrNop(t *testing.T) {
	l := LoggerOrNop(nil)
	assert.NotNil(t, l)
	assert.False(t, l.DebugEnabled())
	l.SetDebug(true)
	l.Infof("ignored")

	d := NewDefaultLogger("x", false)
	assert.Same(t, d, LoggerOrNop(d))
}
