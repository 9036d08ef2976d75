package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/voxelizer/voxelizer/rt/mesh"
	"github.com/gekko3d/voxelizer/voxelizer/rt/render"
	"github.com/gekko3d/voxelizer/voxelizer/rt/shaders"
)

const DepthFormat = wgpu.TextureFormatDepth32Float

// Backend implements render.Device on a Context.
type Backend struct {
	ctx        *Context
	module     *wgpu.ShaderModule
	pipeline   *wgpu.RenderPipeline
	bindLayout *wgpu.BindGroupLayout
}

var _ render.Device = (*Backend)(nil)

func NewBackend(ctx *Context) (*Backend, error) {
	module, err := ctx.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Voxel Render VS/FS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.VoxelRenderWGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("voxel render shader: %w", err)
	}

	keep := wgpu.StencilFaceState{
		Compare:     wgpu.CompareFunctionAlways,
		FailOp:      wgpu.StencilOperationKeep,
		DepthFailOp: wgpu.StencilOperationKeep,
		PassOp:      wgpu.StencilOperationKeep,
	}
	pipeline, err := ctx.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Voxel Render Pipeline",
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: mesh.VertexStride,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
						{Format: wgpu.VertexFormatFloat32x3, Offset: mesh.NormalOffset, ShaderLocation: 1},
						{Format: wgpu.VertexFormatFloat32x4, Offset: mesh.ColorOffset, ShaderLocation: 2},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    ctx.Config.Format,
					Blend:     nil,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      keep,
			StencilBack:       keep,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		module.Release()
		return nil, fmt.Errorf("voxel render pipeline: %w", err)
	}
	return &Backend{
		ctx:        ctx,
		module:     module,
		pipeline:   pipeline,
		bindLayout: pipeline.GetBindGroupLayout(0),
	}, nil
}

type depthTarget struct {
	tex  *wgpu.Texture
	view *wgpu.TextureView
	w, h uint32
}

func (d *depthTarget) Size() (uint32, uint32) { return d.w, d.h }

func (d *depthTarget) Release() {
	d.view.Release()
	d.tex.Release()
}

func (b *Backend) NewDepthTarget(width, height uint32) (render.DepthTarget, error) {
	tex, err := b.ctx.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Depth Texture",
		Size:          wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        DepthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}
	return &depthTarget{tex: tex, view: view, w: width, h: height}, nil
}

type uniformBlock struct {
	buf       *wgpu.Buffer
	bindGroup *wgpu.BindGroup
}

func (u *uniformBlock) Release() {
	u.bindGroup.Release()
	u.buf.Release()
}

func (b *Backend) NewUniformBlock(u render.Uniforms) (render.Resource, error) {
	buf, err := b.ctx.newBufferWith("Frame Uniforms", u.Encode(), wgpu.BufferUsageUniform)
	if err != nil {
		return nil, err
	}
	bg, err := b.ctx.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Frame Uniforms BG",
		Layout: b.bindLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: buf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		buf.Release()
		return nil, err
	}
	return &uniformBlock{buf: buf, bindGroup: bg}, nil
}

type drawable struct {
	surface *wgpu.Surface
	tex     *wgpu.Texture
	view    *wgpu.TextureView
}

func (d *drawable) Present() { d.surface.Present() }

func (d *drawable) Release() {
	d.view.Release()
	d.tex.Release()
}

func (b *Backend) NextDrawable() (render.Drawable, error) {
	tex, err := b.ctx.Surface.GetCurrentTexture()
	if err != nil {
		return nil, err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}
	return &drawable{surface: b.ctx.Surface, tex: tex, view: view}, nil
}

func (b *Backend) Submit(call render.DrawCall, done func()) error {
	target, ok := call.Target.(*drawable)
	if !ok {
		return fmt.Errorf("foreign drawable %T", call.Target)
	}
	depth, ok := call.Depth.(*depthTarget)
	if !ok {
		return fmt.Errorf("foreign depth target %T", call.Depth)
	}
	uniforms, ok := call.Uniforms.(*uniformBlock)
	if !ok {
		return fmt.Errorf("foreign uniforms %T", call.Uniforms)
	}
	geometry, ok := call.Geometry.(*Mesh)
	if !ok {
		return fmt.Errorf("foreign geometry %T", call.Geometry)
	}

	encoder, err := b.ctx.Device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	c := call.ClearColor
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Voxel Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       target.view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: c[0], G: c[1], B: c[2], A: c[3]},
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            depth.view,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	})
	pass.SetPipeline(b.pipeline)
	pass.SetBindGroup(0, uniforms.bindGroup, nil)
	pass.SetVertexBuffer(0, geometry.Vertices, 0, wgpu.WholeSize)
	pass.SetIndexBuffer(geometry.Indices, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	if call.IndexCount > 0 {
		pass.DrawIndexed(call.IndexCount, 1, 0, 0, 0)
	}
	if err := pass.End(); err != nil {
		return fmt.Errorf("voxel pass: %w", err)
	}
	pass.Release()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	defer cmd.Release()

	b.ctx.Queue.Submit(cmd)
	b.ctx.Queue.OnSubmittedWorkDone(func(wgpu.QueueWorkDoneStatus) { done() })
	return nil
}

func (b *Backend) Poll(wait bool) {
	b.ctx.Device.Poll(wait, nil)
}

func (b *Backend) Release() {
	if b.bindLayout != nil {
		b.bindLayout.Release()
		b.bindLayout = nil
	}
	if b.pipeline != nil {
		b.pipeline.Release()
		b.pipeline = nil
	}
	if b.module != nil {
		b.module.Release()
		b.module = nil
	}
}
