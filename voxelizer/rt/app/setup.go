package app

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/voxelizer"
	"github.com/gekko3d/voxelizer/voxelizer/rt/core"
	"github.com/gekko3d/voxelizer/voxelizer/rt/mesh"
	"github.com/gekko3d/voxelizer/voxelizer/rt/volume"
)

// BuildGrid populates the grid described by cfg and fixes its buffer layout.
func BuildGrid(cfg voxelizer.GridConfig) (*volume.Grid, mesh.Params, *mesh.Layout, error) {
	policy, err := mesh.ParsePolicy(cfg.Policy)
	if err != nil {
		return nil, mesh.Params{}, nil, err
	}
	a, err := voxelizer.ParseColor(cfg.Color)
	if err != nil {
		return nil, mesh.Params{}, nil, err
	}
	b, err := voxelizer.ParseColor(cfg.AltColor)
	if err != nil {
		return nil, mesh.Params{}, nil, err
	}
	fill, err := volume.NewFill(cfg.Fill, cfg.Probability, cfg.Seed, a, b)
	if err != nil {
		return nil, mesh.Params{}, nil, err
	}
	grid, err := volume.NewGrid(cfg.Size, fill)
	if err != nil {
		return nil, mesh.Params{}, nil, fmt.Errorf("build grid: %w", err)
	}
	layout, err := mesh.LayoutForGrid(grid, policy)
	if err != nil {
		return nil, mesh.Params{}, nil, err
	}
	p := mesh.Params{VoxelSize: cfg.VoxelSize, GridSize: int32(cfg.Size), Policy: policy}
	return grid, p, layout, nil
}

func CameraFromConfig(cfg voxelizer.CameraConfig) core.Camera {
	return core.Camera{
		FovY:         mgl32.DegToRad(cfg.FovDegrees),
		Near:         cfg.Near,
		Far:          cfg.Far,
		Eye:          mgl32.Vec3(cfg.Eye),
		Center:       mgl32.Vec3(cfg.Center),
		Up:           mgl32.Vec3(cfg.Up),
		AngularSpeed: cfg.AngularSpeed,
	}
}

func ClearColor(name string) ([4]float64, error) {
	c, err := voxelizer.ParseColor(name)
	if err != nil {
		return [4]float64{}, err
	}
	return [4]float64{float64(c[0]), float64(c[1]), float64(c[2]), float64(c[3])}, nil
}
