package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/voxelizer/voxelizer/rt/mesh"
)

// ReadBuffer copies the first size bytes of src back to the host. src needs
// CopySrc usage. Blocks until the map completes.
func (c *Context) ReadBuffer(src *wgpu.Buffer, size uint64) ([]byte, error) {
	size = align4(size)
	staging, err := c.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Readback Buffer",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create readback buffer: %w", err)
	}
	defer staging.Release()

	encoder, err := c.Device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("command encoder: %w", err)
	}
	defer encoder.Release()
	if err := encoder.CopyBufferToBuffer(src, 0, staging, 0, size); err != nil {
		return nil, fmt.Errorf("copy to readback buffer: %w", err)
	}
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("finish readback commands: %w", err)
	}
	defer cmd.Release()
	c.Queue.Submit(cmd)

	var (
		mu     sync.Mutex
		mapped bool
		status wgpu.BufferMapAsyncStatus
	)
	err = staging.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		mu.Lock()
		defer mu.Unlock()
		status = s
		mapped = true
	})
	if err != nil {
		return nil, fmt.Errorf("map readback buffer: %w", err)
	}
	for {
		c.Device.Poll(true, nil)
		mu.Lock()
		finished := mapped
		mu.Unlock()
		if finished {
			break
		}
	}
	if err := mapError(status); err != nil {
		return nil, err
	}

	data := staging.GetMappedRange(0, uint(size))
	out := make([]byte, len(data))
	copy(out, data)
	if err := staging.Unmap(); err != nil {
		return nil, fmt.Errorf("unmap readback buffer: %w", err)
	}
	return out, nil
}

var ErrMapFailed = errors.New("buffer map failed")

func mapError(status wgpu.BufferMapAsyncStatus) error {
	if status == wgpu.BufferMapAsyncStatusSuccess {
		return nil
	}
	return fmt.Errorf("%w: status %v", ErrMapFailed, status)
}

// Download reads the generated buffers back into a host mesh.
func (m *Mesh) Download(c *Context) (*mesh.Mesh, error) {
	vb, err := c.ReadBuffer(m.Vertices, m.Layout.VertexBufferSize())
	if err != nil {
		return nil, fmt.Errorf("read vertices: %w", err)
	}
	ib, err := c.ReadBuffer(m.Indices, m.Layout.IndexBufferSize())
	if err != nil {
		return nil, fmt.Errorf("read indices: %w", err)
	}
	vertices, err := mesh.DecodeVertices(vb[:m.Layout.VertexBufferSize()])
	if err != nil {
		return nil, err
	}
	indices, err := mesh.DecodeIndices(ib[:m.Layout.IndexBufferSize()])
	if err != nil {
		return nil, err
	}
	return &mesh.Mesh{Layout: m.Layout, Vertices: vertices, Indices: indices}, nil
}
