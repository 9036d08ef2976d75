package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"

	"github.com/gekko3d/voxelizer"
	"github.com/gekko3d/voxelizer/voxelizer/rt/mesh"
	"github.com/gekko3d/voxelizer/voxelizer/rt/shaders"
	"github.com/gekko3d/voxelizer/voxelizer/rt/volume"
)

// Mesh is generated geometry resident on the device.
type Mesh struct {
	Vertices *wgpu.Buffer
	Indices  *wgpu.Buffer
	Layout   *mesh.Layout
	Params   mesh.Params
	GridID   uuid.UUID
}

func (m *Mesh) IndexCount() uint32 { return uint32(m.Layout.IndexCount()) }

func (m *Mesh) Release() {
	if m.Vertices != nil {
		m.Vertices.Release()
		m.Vertices = nil
	}
	if m.Indices != nil {
		m.Indices.Release()
		m.Indices = nil
	}
}

// Generator runs the voxel mesh compute kernel.
type Generator struct {
	ctx        *Context
	module     *wgpu.ShaderModule
	pipeline   *wgpu.ComputePipeline
	bindLayout *wgpu.BindGroupLayout
	logger     voxelizer.Logger
}

func NewGenerator(ctx *Context, logger voxelizer.Logger) (*Generator, error) {
	module, err := ctx.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Voxel Mesh CS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.VoxelMeshWGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("voxel mesh shader: %w", err)
	}
	pipeline, err := ctx.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: "Voxel Mesh Pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		module.Release()
		return nil, fmt.Errorf("voxel mesh pipeline: %w", err)
	}
	return &Generator{
		ctx:        ctx,
		module:     module,
		pipeline:   pipeline,
		bindLayout: pipeline.GetBindGroupLayout(0),
		logger:     voxelizer.LoggerOrNop(logger),
	}, nil
}

// Generate fills fresh vertex and index buffers for grid and returns once
// the GPU has finished writing them.
func (g *Generator) Generate(grid *volume.Grid, p mesh.Params, layout *mesh.Layout) (*Mesh, error) {
	if int(p.GridSize) != grid.Size || layout.GridSize != grid.Size {
		return nil, fmt.Errorf("grid size mismatch: grid=%d params=%d layout=%d", grid.Size, p.GridSize, layout.GridSize)
	}
	if err := layout.CheckLimits(uint64(g.ctx.Limits.MaxBufferSize), uint64(g.ctx.Limits.MaxStorageBufferBindingSize)); err != nil {
		return nil, err
	}

	var inputs []*wgpu.Buffer
	defer func() {
		for _, b := range inputs {
			b.Release()
		}
	}()
	input := func(label string, data []byte, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
		b, err := g.ctx.newBufferWith(label, data, usage)
		if err == nil {
			inputs = append(inputs, b)
		}
		return b, err
	}

	voxelBuf, err := input("Voxel Buffer", mesh.EncodeVoxels(grid.Voxels), wgpu.BufferUsageStorage)
	if err != nil {
		return nil, err
	}
	slotBuf, err := input("Slot Buffer", mesh.EncodeSlots(layout.Slots), wgpu.BufferUsageStorage)
	if err != nil {
		return nil, err
	}
	paramsBuf, err := input("Mesh Params", mesh.EncodeParams(p), wgpu.BufferUsageUniform)
	if err != nil {
		return nil, err
	}

	m := &Mesh{Layout: layout, Params: p, GridID: grid.ID}
	m.Vertices, err = g.ctx.newBuffer("Vertex Buffer", layout.VertexBufferSize(),
		wgpu.BufferUsageStorage|wgpu.BufferUsageVertex|wgpu.BufferUsageCopySrc)
	if err != nil {
		return nil, err
	}
	m.Indices, err = g.ctx.newBuffer("Index Buffer", layout.IndexBufferSize(),
		wgpu.BufferUsageStorage|wgpu.BufferUsageIndex|wgpu.BufferUsageCopySrc)
	if err != nil {
		m.Release()
		return nil, err
	}

	bindGroup, err := g.ctx.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Voxel Mesh BG",
		Layout: g.bindLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: voxelBuf, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: slotBuf, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: m.Vertices, Size: wgpu.WholeSize},
			{Binding: 3, Buffer: m.Indices, Size: wgpu.WholeSize},
			{Binding: 4, Buffer: paramsBuf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		m.Release()
		return nil, fmt.Errorf("voxel mesh bind group: %w", err)
	}
	defer bindGroup.Release()

	encoder, err := g.ctx.Device.CreateCommandEncoder(nil)
	if err != nil {
		m.Release()
		return nil, fmt.Errorf("command encoder: %w", err)
	}
	defer encoder.Release()

	x, y := mesh.DispatchSize(layout.Cells, uint32(g.ctx.Limits.MaxComputeWorkgroupsPerDimension))
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(g.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(x, y, 1)
	if err := pass.End(); err != nil {
		m.Release()
		return nil, fmt.Errorf("voxel mesh pass: %w", err)
	}
	pass.Release()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		m.Release()
		return nil, fmt.Errorf("finish voxel mesh commands: %w", err)
	}
	defer cmd.Release()

	g.ctx.Queue.Submit(cmd)
	if err := g.ctx.waitIdle(); err != nil {
		m.Release()
		return nil, fmt.Errorf("voxel mesh kernel: %w", err)
	}

	g.logger.Debugf("generated grid %s: %d cells, %d active, dispatch %dx%d, %d indices",
		grid.ID, layout.Cells, grid.ActiveCount(), x, y, layout.IndexCount())
	return m, nil
}

func (g *Generator) Release() {
	if g.bindLayout != nil {
		g.bindLayout.Release()
		g.bindLayout = nil
	}
	if g.pipeline != nil {
		g.pipeline.Release()
		g.pipeline = nil
	}
	if g.module != nil {
		g.module.Release()
		g.module = nil
	}
}
