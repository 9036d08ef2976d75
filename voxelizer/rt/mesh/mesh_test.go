package mesh

import (
	"context"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/voxelizer/voxelizer/rt/volume"
)

func generate(t *testing.T, g *volume.Grid, voxelSize float32, policy Policy, opts ...GenerateOption) (*Mesh, Params) {
	t.Helper()
	p := Params{VoxelSize: voxelSize, GridSize: int32(g.Size), Policy: policy}
	layout, err := LayoutForGrid(g, policy)
	require.NoError(t, err)
	m, err := Generate(context.Background(), g, p, layout, opts...)
	require.NoError(t, err)
	return m, p
}

func TestLayout_CapacityIndependentOfOccupancy(t *testing.T) {
	for n := 1; n <= 5; n++ {
		for _, fill := range []volume.FillPolicy{volume.EmptyFill{}, volume.SolidFill{}, volume.NewRandomFill(0.5, uint64(n))} {
			g, err := volume.NewGrid(n, fill)
			require.NoError(t, err)
			for _, policy := range []Policy{PolicyDegenerate, PolicyCompact} {
				l, err := LayoutForGrid(g, policy)
				require.NoError(t, err)
				cells := n * n * n
				assert.Equal(t, cells*24, l.VertexCapacity())
				assert.Equal(t, cells*36, l.IndexCapacity())
				assert.Equal(t, uint64(cells*24*VertexStride), l.VertexBufferSize())
				assert.Equal(t, uint64(cells*36*4), l.IndexBufferSize())
			}
		}
	}
}

func TestLayout_CompactSlotsArePrefixSum(t *testing.T) {
	l, err := NewLayout([]bool{true, false, false, true, true, false, true, false}, 2, PolicyCompact)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, InvalidSlot, InvalidSlot, 1, 2, InvalidSlot, 3, InvalidSlot}, l.Slots)
	assert.Equal(t, 4, l.DrawSlots)
	assert.Equal(t, 4*36, l.IndexCount())
}

func TestLayout_Rejects(t *testing.T) {
	_, err := NewLayout(nil, 0, PolicyDegenerate)
	assert.ErrorIs(t, err, volume.ErrInvalidGridSize)

	_, err = NewLayout([]bool{true}, 2, PolicyDegenerate)
	assert.Error(t, err)

	_, err = NewLayout([]bool{true}, 1, Policy(9))
	assert.Error(t, err)
}

func TestGenerate_TwoCubedAllActive(t *testing.T) {
	g, err := volume.NewGrid(2, volume.SolidFill{Color: [4]float32{0.2, 0.4, 0.6, 1}})
	require.NoError(t, err)
	m, p := generate(t, g, 1.0, PolicyDegenerate)

	assert.Len(t, m.Vertices, 192)
	assert.Len(t, m.Indices, 288)
	assert.Equal(t, 288, m.IndexCount())
	require.NoError(t, Validate(m, g, p))

	bounds := func(cell int) (mgl32.Vec3, mgl32.Vec3) {
		lo := mgl32.Vec3{1e9, 1e9, 1e9}
		hi := mgl32.Vec3{-1e9, -1e9, -1e9}
		first, end := VertexRange(uint32(cell))
		for _, v := range m.Vertices[first:end] {
			for c := 0; c < 3; c++ {
				lo[c] = min(lo[c], v.Position[c])
				hi[c] = max(hi[c], v.Position[c])
			}
		}
		return lo, hi
	}

	lo, hi := bounds(g.Index(0, 0, 0))
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, lo)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, hi)

	lo, hi = bounds(g.Index(1, 1, 1))
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, lo)
	assert.Equal(t, mgl32.Vec3{2, 2, 2}, hi)
}

func TestGenerate_VoxelSizeScalesPositions(t *testing.T) {
	g, err := volume.NewGrid(2, volume.SolidFill{})
	require.NoError(t, err)
	m, p := generate(t, g, 0.25, PolicyDegenerate)
	require.NoError(t, Validate(m, g, p))

	first, end := VertexRange(uint32(g.Index(1, 0, 1)))
	for _, v := range m.Vertices[first:end] {
		assert.InDelta(t, 0.375, v.Position[0], 0.125+1e-6)
		assert.InDelta(t, 0.125, v.Position[1], 0.125+1e-6)
		assert.InDelta(t, 0.375, v.Position[2], 0.125+1e-6)
	}
}

func TestGenerate_IndicesStayInsideCell(t *testing.T) {
	g, err := volume.NewGrid(4, volume.NewRandomFill(0.5, 3))
	require.NoError(t, err)
	m, _ := generate(t, g, 1, PolicyDegenerate)

	for cell := 0; cell < g.Count(); cell++ {
		first, end := IndexRange(uint32(cell))
		vFirst, vEnd := VertexRange(uint32(cell))
		assert.Equal(t, uint32(cell*24), vFirst)
		for _, idx := range m.Indices[first:end] {
			assert.GreaterOrEqual(t, idx, vFirst)
			assert.Less(t, idx, vEnd)
		}
	}
}

func TestGenerate_SixOutwardNormalsFourEach(t *testing.T) {
	g, err := volume.NewGrid(1, volume.SolidFill{Color: [4]float32{1, 1, 1, 1}})
	require.NoError(t, err)
	m, _ := generate(t, g, 1, PolicyDegenerate)

	counts := map[[3]float32]int{}
	center := mgl32.Vec3{0.5, 0.5, 0.5}
	for _, v := range m.Vertices {
		counts[v.Normal]++
		// Outward: the normal points away from the cell centre.
		assert.Positive(t, mgl32.Vec3(v.Position).Sub(center).Dot(mgl32.Vec3(v.Normal)))
	}
	assert.Len(t, counts, 6)
	for _, axis := range [][3]float32{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}} {
		assert.Equal(t, 4, counts[axis], "normal %v", axis)
	}
}

func TestGenerate_EmptyGridPolicies(t *testing.T) {
	g, err := volume.NewGrid(1, volume.NewRandomFill(0, 1))
	require.NoError(t, err)

	t.Run("degenerate", func(t *testing.T) {
		m, p := generate(t, g, 1, PolicyDegenerate)
		assert.Len(t, m.Vertices, 24)
		assert.Len(t, m.Indices, 36)
		assert.Equal(t, 36, m.IndexCount())
		require.NoError(t, Validate(m, g, p))
		for _, v := range m.Vertices {
			assert.Equal(t, [4]float32{}, v.Color)
			assert.Equal(t, [3]float32{}, v.Position)
		}
	})

	t.Run("compact", func(t *testing.T) {
		m, p := generate(t, g, 1, PolicyCompact)
		assert.Len(t, m.Vertices, 24)
		assert.Len(t, m.Indices, 36)
		assert.Equal(t, 0, m.IndexCount())
		require.NoError(t, Validate(m, g, p))
	})
}

func TestGenerate_CompactPacksActiveCells(t *testing.T) {
	g, err := volume.NewGrid(4, volume.SphereFill{Color: [4]float32{1, 0, 0, 1}})
	require.NoError(t, err)
	m, p := generate(t, g, 0.5, PolicyCompact)
	require.NoError(t, Validate(m, g, p))
	assert.Equal(t, g.ActiveCount()*36, m.IndexCount())

	for i := 0; i < m.IndexCount(); i++ {
		assert.Less(t, m.Indices[i], uint32(g.ActiveCount()*24))
	}
}

func TestGenerate_BatchSizeDoesNotChangeOutput(t *testing.T) {
	g, err := volume.NewGrid(5, volume.NewRandomFill(0.6, 11))
	require.NoError(t, err)
	a, _ := generate(t, g, 1, PolicyDegenerate, WithBatchSize(1), WithWorkers(1))
	b, _ := generate(t, g, 1, PolicyDegenerate, WithBatchSize(64), WithWorkers(4))
	c, _ := generate(t, g, 1, PolicyDegenerate, WithBatchSize(1000))
	assert.Equal(t, a.Vertices, b.Vertices)
	assert.Equal(t, a.Indices, b.Indices)
	assert.Equal(t, a.Indices, c.Indices)
	assert.NoError(t, Compare(c, a))
}

func TestValidate_DetectsCrossCellIndex(t *testing.T) {
	g, err := volume.NewGrid(2, volume.SolidFill{})
	require.NoError(t, err)
	m, p := generate(t, g, 1, PolicyDegenerate)

	m.Indices[40] = 0
	err = Validate(m, g, p)
	assert.ErrorIs(t, err, ErrInvalidMesh)
}

func TestValidate_DetectsFlippedWinding(t *testing.T) {
	g, err := volume.NewGrid(1, volume.SolidFill{})
	require.NoError(t, err)
	m, p := generate(t, g, 1, PolicyDegenerate)

	m.Indices[1], m.Indices[2] = m.Indices[2], m.Indices[1]
	assert.ErrorIs(t, Validate(m, g, p), ErrInvalidMesh)
}

func TestEncodeDecodeVertices(t *testing.T) {
	in := []Vertex{
		{Position: [3]float32{1, 2, 3}, Normal: [3]float32{0, -1, 0}, Color: [4]float32{0.1, 0.2, 0.3, 1}},
		{Position: [3]float32{-4, 5.5, 0}, Normal: [3]float32{1, 0, 0}},
	}
	b := EncodeVertices(in)
	require.Len(t, b, 2*VertexStride)
	out, err := DecodeVertices(b)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = DecodeVertices(b[:10])
	assert.Error(t, err)
}

func TestEncodeParams(t *testing.T) {
	b := EncodeParams(Params{VoxelSize: 0.5, GridSize: 7, Policy: PolicyCompact})
	require.Len(t, b, ParamsSize)
	assert.Equal(t, []byte{0, 0, 0, 0x3f}, b[0:4])
	assert.Equal(t, []byte{7, 0, 0, 0}, b[4:8])
	assert.Equal(t, []byte{1, 0, 0, 0}, b[8:12])
}

func TestDispatchSize(t *testing.T) {
	tests := []struct {
		cells     int
		maxPerDim uint32
		x, y      uint32
	}{
		{0, 65535, 0, 0},
		{1, 65535, 1, 1},
		{64, 65535, 1, 1},
		{65, 65535, 2, 1},
		{100 * 100 * 100, 65535, 15625, 1},
		{1000, 4, 4, 4},
		{64 * 9, 4, 4, 3},
	}
	for _, tt := range tests {
		x, y := DispatchSize(tt.cells, tt.maxPerDim)
		assert.Equal(t, tt.x, x, "cells=%d", tt.cells)
		assert.Equal(t, tt.y, y, "cells=%d", tt.cells)
		// Every cell gets an invocation.
		assert.GreaterOrEqual(t, int(x*y)*WorkgroupSize, tt.cells)
	}
}

func TestLayout_CheckLimits(t *testing.T) {
	l, err := NewLayout(make([]bool, 1000), 10, PolicyDegenerate)
	require.NoError(t, err)
	assert.NoError(t, l.CheckLimits(256<<20, 128<<20))

	// 10^3 cells * 24 vertices * 48 bytes
	err = l.CheckLimits(1<<20, 1<<20)
	require.ErrorIs(t, err, ErrBufferTooLarge)
	assert.Contains(t, err.Error(), "vertex buffer 1152000 bytes")
}
