package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gekko3d/voxelizer"
	"github.com/gekko3d/voxelizer/voxelizer/rt/gpu"
	"github.com/gekko3d/voxelizer/voxelizer/rt/mesh"
	"github.com/gekko3d/voxelizer/voxelizer/rt/render"
	"github.com/gekko3d/voxelizer/voxelizer/rt/volume"
)

// Profiler scope and counter names.
const (
	ScopeGenerate = "generate"
	ScopeValidate = "validate"
	ScopeFrame    = "frame"

	CountFrames        = "frames"
	CountSkipped       = "skipped"
	CountDepthRealloc  = "depth_realloc"
	CountRegenerations = "regenerations"
)

type App struct {
	Window   *glfw.Window
	Config   voxelizer.Config
	Logger   voxelizer.Logger
	Profiler *voxelizer.Profiler
	Clock    voxelizer.Clock

	GPU       *gpu.Context
	Generator *gpu.Generator
	Backend   *gpu.Backend
	Renderer  *render.Renderer

	Grid *volume.Grid
	Mesh *gpu.Mesh
}

func NewApp(window *glfw.Window, cfg voxelizer.Config, logger voxelizer.Logger) *App {
	return &App{
		Window:   window,
		Config:   cfg,
		Logger:   voxelizer.LoggerOrNop(logger),
		Profiler: voxelizer.NewProfiler(),
		Clock:    voxelizer.NewClock(),
	}
}

func (a *App) Init() error {
	if err := a.Config.Validate(); err != nil {
		return err
	}
	clearColor, err := ClearColor(a.Config.Window.ClearColor)
	if err != nil {
		return err
	}

	a.GPU, err = gpu.NewContext(a.Window, a.Logger)
	if err != nil {
		return err
	}
	a.Generator, err = gpu.NewGenerator(a.GPU, a.Logger)
	if err != nil {
		return err
	}
	a.Backend, err = gpu.NewBackend(a.GPU)
	if err != nil {
		return err
	}

	a.Grid, a.Mesh, err = a.generate(a.Config.Grid)
	if err != nil {
		return err
	}

	a.Renderer, err = render.New(a.Backend, a.Mesh, render.Config{
		Camera:            CameraFromConfig(a.Config.Camera),
		ClearColor:        clearColor,
		MaxFramesInFlight: a.Config.Renderer.MaxFramesInFlight,
		Logger:            a.Logger,
	})
	if err != nil {
		return err
	}
	return nil
}

// generate builds a grid from cfg and runs the GPU mesh kernel over it.
func (a *App) generate(cfg voxelizer.GridConfig) (*volume.Grid, *gpu.Mesh, error) {
	grid, p, layout, err := BuildGrid(cfg)
	if err != nil {
		return nil, nil, err
	}

	a.Profiler.BeginScope(ScopeGenerate)
	m, err := a.Generator.Generate(grid, p, layout)
	took := a.Profiler.EndScope(ScopeGenerate)
	if err != nil {
		return nil, nil, fmt.Errorf("generate mesh: %w", err)
	}
	a.Logger.Infof("mesh for %d³ grid (%s fill, seed %d): %d/%d active, %s policy, %d indices in %v",
		grid.Size, cfg.Fill, cfg.Seed, grid.ActiveCount(), grid.Count(), p.Policy, m.IndexCount(), took)

	if a.Config.Renderer.Validate {
		if err := a.validate(grid, p, m); err != nil {
			m.Release()
			return nil, nil, err
		}
	}
	return grid, m, nil
}

// validate reads the generated buffers back and checks them against the
// host kernel.
func (a *App) validate(grid *volume.Grid, p mesh.Params, m *gpu.Mesh) error {
	a.Profiler.BeginScope(ScopeValidate)
	defer a.Profiler.EndScope(ScopeValidate)

	got, err := m.Download(a.GPU)
	if err != nil {
		return err
	}
	if err := mesh.Validate(got, grid, p); err != nil {
		return fmt.Errorf("gpu mesh: %w", err)
	}
	want, err := mesh.Generate(context.Background(), grid, p, m.Layout)
	if err != nil {
		return err
	}
	if err := mesh.Compare(got, want); err != nil {
		return fmt.Errorf("gpu mesh differs from host kernel: %w", err)
	}
	a.Logger.Infof("gpu mesh validated: %d vertices, %d indices", len(got.Vertices), len(got.Indices))
	return nil
}

// Regenerate replaces the mesh with one built from cfg. On failure the
// current mesh stays on screen.
func (a *App) Regenerate(cfg voxelizer.GridConfig) error {
	grid, m, err := a.generate(cfg)
	if err != nil {
		return err
	}
	if err := a.Renderer.SetGeometry(m); err != nil {
		m.Release()
		return err
	}
	a.Config.Grid = cfg
	a.Grid = grid
	a.Mesh = m
	a.Profiler.Add(CountRegenerations, 1)
	return nil
}

// Reseed regenerates with the next random seed.
func (a *App) Reseed() error {
	cfg := a.Config.Grid
	cfg.Seed++
	return a.Regenerate(cfg)
}

// ApplyConfig takes a reloaded config. Grid changes regenerate the mesh;
// camera and window changes need a restart.
func (a *App) ApplyConfig(next voxelizer.Config) error {
	if next.Debug != a.Config.Debug {
		a.Logger.SetDebug(next.Debug)
		a.Config.Debug = next.Debug
	}
	if next.Camera != a.Config.Camera || next.Window != a.Config.Window || next.Renderer != a.Config.Renderer {
		a.Logger.Warnf("camera, window and renderer settings apply on restart")
	}
	if !a.Config.GridChanged(next) {
		return nil
	}
	return a.Regenerate(next.Grid)
}

func (a *App) Resize(w, h int) {
	a.GPU.Resize(w, h)
}

// Render draws one frame. Skipped frames are counted, not fatal.
func (a *App) Render() {
	w, h := a.Window.GetFramebufferSize()
	viewport := render.Viewport{Width: uint32(max(w, 0)), Height: uint32(max(h, 0))}

	a.Profiler.BeginScope(ScopeFrame)
	stats, err := a.Renderer.Tick(viewport, a.Clock.Elapsed())
	a.Profiler.EndScope(ScopeFrame)
	switch {
	case errors.Is(err, render.ErrFrameSkipped):
		a.Profiler.Add(CountSkipped, 1)
		a.Logger.Debugf("%v", err)
		return
	case err != nil:
		a.Logger.Errorf("render: %v", err)
		return
	}
	a.Profiler.Add(CountFrames, 1)
	if stats.DepthReallocated {
		a.Profiler.Add(CountDepthRealloc, 1)
	}
}

func (a *App) Close() {
	if a.Renderer != nil {
		if err := a.Renderer.Close(); err != nil {
			a.Logger.Errorf("close renderer: %v", err)
		}
		a.Renderer = nil
		a.Mesh = nil
	}
	if a.Mesh != nil {
		a.Mesh.Release()
		a.Mesh = nil
	}
	if a.Backend != nil {
		a.Backend.Release()
	}
	if a.Generator != nil {
		a.Generator.Release()
	}
	if a.GPU != nil {
		a.GPU.Release()
	}
	a.Logger.Infof("%s", a.Profiler)
}
