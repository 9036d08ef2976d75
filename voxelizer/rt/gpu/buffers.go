package gpu

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"
)

func align4(n uint64) uint64 {
	if n%4 != 0 {
		n += 4 - n%4
	}
	return n
}

// newBuffer allocates a zeroed buffer, rounded up to 4 bytes.
func (c *Context) newBuffer(label string, size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	size = align4(size)
	if size > uint64(c.Limits.MaxBufferSize) {
		return nil, fmt.Errorf("%s: %d bytes exceeds max buffer size %d", label, size, uint64(c.Limits.MaxBufferSize))
	}
	buf, err := c.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             size,
		Usage:            usage | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	return buf, nil
}

// newBufferWith allocates a buffer and uploads data into it.
func (c *Context) newBufferWith(label string, data []byte, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	buf, err := c.newBuffer(label, uint64(len(data)), usage)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := c.Queue.WriteBuffer(buf, 0, data); err != nil {
			buf.Release()
			return nil, fmt.Errorf("upload %s: %w", label, err)
		}
	}
	return buf, nil
}

var ErrQueueFailed = errors.New("queue work failed")

func workDoneError(status wgpu.QueueWorkDoneStatus) error {
	if status == wgpu.QueueWorkDoneStatusSuccess {
		return nil
	}
	return fmt.Errorf("%w: status %v", ErrQueueFailed, status)
}

// waitIdle blocks until everything submitted so far has finished and
// reports a failed queue as ErrQueueFailed.
func (c *Context) waitIdle() error {
	var (
		done   atomic.Bool
		status atomic.Uint32
	)
	c.Queue.OnSubmittedWorkDone(func(s wgpu.QueueWorkDoneStatus) {
		status.Store(uint32(s))
		done.Store(true)
	})
	for !done.Load() {
		c.Device.Poll(true, nil)
	}
	return workDoneError(wgpu.QueueWorkDoneStatus(status.Load()))
}
