package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gekko3d/voxelizer"
)

// Context owns the device and the window surface. Everything in this
// package allocates from it.
type Context struct {
	Instance *wgpu.Instance
	Surface  *wgpu.Surface
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Config   *wgpu.SurfaceConfiguration
	Limits   wgpu.Limits

	logger voxelizer.Logger
}

func NewContext(window *glfw.Window, logger voxelizer.Logger) (*Context, error) {
	c := &Context{logger: voxelizer.LoggerOrNop(logger)}

	c.Instance = wgpu.CreateInstance(nil)
	c.Surface = c.Instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(window))

	adapter, err := c.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: c.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		c.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	c.Adapter = adapter

	// Ask for everything the adapter offers so large grids fit.
	supported := adapter.GetLimits()
	c.Device, err = adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:          "Voxelizer Device",
		RequiredLimits: &wgpu.RequiredLimits{Limits: supported.Limits},
	})
	if err != nil {
		c.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	c.Limits = supported.Limits
	c.Queue = c.Device.GetQueue()

	width, height := window.GetFramebufferSize()
	caps := c.Surface.GetCapabilities(adapter)
	if len(caps.Formats) == 0 {
		c.Release()
		return nil, fmt.Errorf("surface reports no formats")
	}
	c.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(max(width, 1)),
		Height:      uint32(max(height, 1)),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	c.Surface.Configure(c.Adapter, c.Device, c.Config)

	c.logger.Infof("gpu ready: surface %v %dx%d, max buffer %d, max storage binding %d",
		c.Config.Format, c.Config.Width, c.Config.Height,
		uint64(c.Limits.MaxBufferSize), uint64(c.Limits.MaxStorageBufferBindingSize))
	return c, nil
}

// Resize reconfigures the surface. Zero sizes are ignored; the renderer
// skips those frames.
func (c *Context) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Config.Width = uint32(width)
	c.Config.Height = uint32(height)
	c.Surface.Configure(c.Adapter, c.Device, c.Config)
}

func (c *Context) Release() {
	if c.Queue != nil {
		c.Queue.Release()
		c.Queue = nil
	}
	if c.Device != nil {
		c.Device.Release()
		c.Device = nil
	}
	if c.Adapter != nil {
		c.Adapter.Release()
		c.Adapter = nil
	}
	if c.Surface != nil {
		c.Surface.Release()
		c.Surface = nil
	}
	if c.Instance != nil {
		c.Instance.Release()
		c.Instance = nil
	}
}
