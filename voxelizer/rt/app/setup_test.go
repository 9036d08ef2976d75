package app

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/voxelizer"
	"github.com/gekko3d/voxelizer/voxelizer/rt/core"
	"github.com/gekko3d/voxelizer/voxelizer/rt/mesh"
)

func TestBuildGrid_Defaults(t *testing.T) {
	cfg := voxelizer.DefaultConfig().Grid
	grid, p, layout, err := BuildGrid(cfg)
	require.NoError(t, err)

	assert.Equal(t, 32*32*32, grid.Count())
	assert.Equal(t, int32(32), p.GridSize)
	assert.Equal(t, mesh.PolicyDegenerate, p.Policy)
	assert.Equal(t, grid.Count()*mesh.IndicesPerCell, layout.IndexCount())
	// Roughly 30% random occupancy.
	assert.InDelta(t, 0.3, float64(grid.ActiveCount())/float64(grid.Count()), 0.02)
}

func TestBuildGrid_EmptyFill(t *testing.T) {
	cfg := voxelizer.DefaultConfig()
	cfg.Grid.Size = 4
	cfg.Grid.Fill = voxelizer.FillEmpty
	require.NoError(t, cfg.Validate())

	grid, _, layout, err := BuildGrid(cfg.Grid)
	require.NoError(t, err)
	assert.Zero(t, grid.ActiveCount())
	// Degenerate cells still occupy their slots.
	assert.Equal(t, 4*4*4*mesh.IndicesPerCell, layout.IndexCount())
}

func TestBuildGrid_SameSeedSameGrid(t *testing.T) {
	cfg := voxelizer.DefaultConfig().Grid
	cfg.Size = 8
	a, _, _, err := BuildGrid(cfg)
	require.NoError(t, err)
	b, _, _, err := BuildGrid(cfg)
	require.NoError(t, err)
	assert.Equal(t, a.Voxels, b.Voxels)
	assert.NotEqual(t, a.ID, b.ID)

	cfg.Seed++
	c, _, _, err := BuildGrid(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a.Voxels, c.Voxels)
}

func TestBuildGrid_Compact(t *testing.T) {
	cfg := voxelizer.DefaultConfig().Grid
	cfg.Size = 6
	cfg.Fill = voxelizer.FillSphere
	cfg.Policy = voxelizer.PolicyCompact
	grid, _, layout, err := BuildGrid(cfg)
	require.NoError(t, err)
	assert.Equal(t, grid.ActiveCount(), layout.DrawSlots)
	assert.Equal(t, grid.Count()*mesh.VerticesPerCell, layout.VertexCapacity())
}

func TestBuildGrid_Rejects(t *testing.T) {
	bad := []func(*voxelizer.GridConfig){
		func(g *voxelizer.GridConfig) { g.Size = 0 },
		func(g *voxelizer.GridConfig) { g.Policy = "sparse" },
		func(g *voxelizer.GridConfig) { g.Fill = "noise" },
		func(g *voxelizer.GridConfig) { g.Color = "notacolor" },
		func(g *voxelizer.GridConfig) { g.Probability = 2 },
	}
	for i, mutate := range bad {
		cfg := voxelizer.DefaultConfig().Grid
		cfg.Size = 4
		mutate(&cfg)
		_, _, _, err := BuildGrid(cfg)
		assert.Error(t, err, "case %d", i)
	}
}

func TestCameraFromConfig(t *testing.T) {
	cam := CameraFromConfig(voxelizer.DefaultConfig().Camera)
	want := core.NewCamera()
	assert.InDelta(t, math.Pi/4, cam.FovY, 1e-6)
	assert.Equal(t, want.Eye, cam.Eye)
	assert.Equal(t, want.Up, cam.Up)
	assert.Equal(t, want.AngularSpeed, cam.AngularSpeed)
	assert.Equal(t, want.Near, cam.Near)
	assert.Equal(t, want.Far, cam.Far)
}

func TestClearColor(t *testing.T) {
	c, err := ClearColor("white")
	require.NoError(t, err)
	assert.Equal(t, [4]float64{1, 1, 1, 1}, c)

	_, err = ClearColor("nope")
	assert.ErrorIs(t, err, voxelizer.ErrInvalidConfig)
}
