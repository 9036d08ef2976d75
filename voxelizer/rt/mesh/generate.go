package mesh

import (
	"context"
	"fmt"
	"runtime"

	"github.com/alitto/pond/v2"

	"github.com/gekko3d/voxelizer/voxelizer/rt/volume"
)

// Mesh holds host copies of the generator buffers, always at full capacity.
type Mesh struct {
	Layout   *Layout
	Vertices []Vertex
	Indices  []uint32
}

// IndexCount is the number of indices to draw.
func (m *Mesh) IndexCount() int { return m.Layout.IndexCount() }

type generateOptions struct {
	batchSize int
	workers   int
}

type GenerateOption func(*generateOptions)

// WithBatchSize sets how many cells one task processes. Output does not
// depend on it.
func WithBatchSize(n int) GenerateOption {
	return func(o *generateOptions) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

func WithWorkers(n int) GenerateOption {
	return func(o *generateOptions) {
		if n > 0 {
			o.workers = n
		}
	}
}

// Generate runs the per-cell kernel on the host. It is the reference the
// GPU output is checked against, not a render path. Cells are processed in
// fixed-size batches on a worker pool; each batch writes only the slots it
// owns, so no synchronization is needed beyond waiting for the group.
func Generate(ctx context.Context, g *volume.Grid, p Params, layout *Layout, opts ...GenerateOption) (*Mesh, error) {
	o := generateOptions{batchSize: WorkgroupSize, workers: runtime.NumCPU()}
	for _, opt := range opts {
		opt(&o)
	}
	if int(p.GridSize) != g.Size || layout.GridSize != g.Size {
		return nil, fmt.Errorf("grid size mismatch: grid=%d params=%d layout=%d", g.Size, p.GridSize, layout.GridSize)
	}

	m := &Mesh{
		Layout:   layout,
		Vertices: make([]Vertex, layout.VertexCapacity()),
		Indices:  make([]uint32, layout.IndexCapacity()),
	}

	pool := pond.NewPool(o.workers, pond.WithContext(ctx))
	defer pool.StopAndWait()

	group := pool.NewGroup()
	for start := 0; start < layout.Cells; start += o.batchSize {
		end := min(start+o.batchSize, layout.Cells)
		group.Submit(func() {
			for i := start; i < end; i++ {
				EmitCell(i, p, g.Voxels[i], layout.Slots[i], m.Vertices, m.Indices)
			}
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("generate mesh: %w", err)
	}
	return m, nil
}
