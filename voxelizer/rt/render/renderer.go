package render

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/voxelizer"
	"github.com/gekko3d/voxelizer/voxelizer/rt/core"
)

var (
	// ErrFrameSkipped means nothing was submitted this tick. The renderer
	// stays usable.
	ErrFrameSkipped = errors.New("frame skipped")
	ErrNotReady     = errors.New("renderer not ready")
	ErrBusy         = errors.New("renderer busy")
	ErrClosed       = errors.New("renderer closed")
)

type State int

const (
	StateUninitialized State = iota
	StateReady
	StateRendering
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateRendering:
		return "rendering"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Viewport struct {
	Width, Height uint32
}

func (v Viewport) Empty() bool { return v.Width == 0 || v.Height == 0 }

type Config struct {
	Camera            core.Camera
	ClearColor        [4]float64
	MaxFramesInFlight int
	Logger            voxelizer.Logger
}

type FrameStats struct {
	Serial           uint64
	IndexCount       uint32
	InFlight         int
	DepthReallocated bool
	ViewProjection   mgl32.Mat4
}

// Renderer draws one Geometry per tick with a camera rotating about Y.
// Tick, SetGeometry and Close must not overlap; an overlapping call
// returns ErrBusy.
type Renderer struct {
	mu    sync.Mutex
	state State

	device   Device
	geometry Geometry
	cfg      Config
	logger   voxelizer.Logger

	depth     DepthTarget
	submitted uint64 // serial of the last submitted frame
	completed uint64 // every frame up to this serial has finished
	inflight  []*frame
	retired   retireQueue
}

func New(device Device, geometry Geometry, cfg Config) (*Renderer, error) {
	if device == nil {
		return nil, errors.New("renderer needs a device")
	}
	if geometry == nil {
		return nil, errors.New("renderer needs geometry")
	}
	if cfg.MaxFramesInFlight <= 0 {
		cfg.MaxFramesInFlight = 2
	}
	return &Renderer{
		state:    StateReady,
		device:   device,
		geometry: geometry,
		cfg:      cfg,
		logger:   voxelizer.LoggerOrNop(cfg.Logger),
	}, nil
}

func (r *Renderer) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Renderer) usable() error {
	switch r.state {
	case StateUninitialized:
		return ErrNotReady
	case StateRendering:
		return ErrBusy
	case StateClosed:
		return ErrClosed
	}
	return nil
}

// acquire moves Ready to Rendering. Fields below mu are then owned by the
// caller until release.
func (r *Renderer) acquire() error {
	if r == nil {
		return ErrNotReady
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.usable(); err != nil {
		return err
	}
	r.state = StateRendering
	return nil
}

func (r *Renderer) release(next State) {
	r.mu.Lock()
	r.state = next
	r.mu.Unlock()
}

// InFlight is the number of submitted frames not yet known complete.
func (r *Renderer) InFlight() int {
	if err := r.acquire(); err != nil {
		return 0
	}
	defer r.release(StateReady)
	r.collect()
	return len(r.inflight)
}

// collect retires completed frames in submission order, then releases
// whatever they were the last users of.
func (r *Renderer) collect() {
	n := 0
	for _, f := range r.inflight {
		if !f.done.Load() {
			break
		}
		f.uniforms.Release()
		r.completed = f.serial
		n++
	}
	if n > 0 {
		clear(r.inflight[:n])
		r.inflight = r.inflight[n:]
	}
	r.retired.release(r.completed)
}

func (r *Renderer) waitForSlot() {
	for len(r.inflight) >= r.cfg.MaxFramesInFlight {
		r.device.Poll(true)
		r.collect()
	}
}

// ensureDepth keeps a depth target matching viewport. A replaced target is
// retired behind every frame already submitted.
func (r *Renderer) ensureDepth(viewport Viewport) (bool, error) {
	if r.depth != nil {
		w, h := r.depth.Size()
		if w == viewport.Width && h == viewport.Height {
			return false, nil
		}
	}
	next, err := r.device.NewDepthTarget(viewport.Width, viewport.Height)
	if err != nil {
		return false, err
	}
	if r.depth != nil {
		r.retired.push(r.submitted, r.depth)
	}
	r.depth = next
	r.logger.Debugf("depth target %dx%d", viewport.Width, viewport.Height)
	return true, nil
}

// Tick renders one frame for viewport at elapsed time since start.
func (r *Renderer) Tick(viewport Viewport, elapsed time.Duration) (FrameStats, error) {
	if err := r.acquire(); err != nil {
		return FrameStats{}, err
	}
	defer r.release(StateReady)

	var stats FrameStats
	r.device.Poll(false)
	r.collect()

	if viewport.Empty() {
		stats.InFlight = len(r.inflight)
		return stats, fmt.Errorf("%w: empty viewport %dx%d", ErrFrameSkipped, viewport.Width, viewport.Height)
	}

	r.waitForSlot()

	realloc, err := r.ensureDepth(viewport)
	if err != nil {
		return stats, fmt.Errorf("%w: depth target: %v", ErrFrameSkipped, err)
	}
	stats.DepthReallocated = realloc

	stats.ViewProjection = r.cfg.Camera.ViewProjection(core.Aspect(viewport.Width, viewport.Height), elapsed)
	uniforms, err := r.device.NewUniformBlock(Uniforms{ViewProjection: stats.ViewProjection})
	if err != nil {
		return stats, fmt.Errorf("%w: uniforms: %v", ErrFrameSkipped, err)
	}

	drawable, err := r.device.NextDrawable()
	if err != nil {
		uniforms.Release()
		return stats, fmt.Errorf("%w: drawable: %v", ErrFrameSkipped, err)
	}
	defer drawable.Release()

	f := &frame{serial: r.submitted + 1, uniforms: uniforms}
	call := DrawCall{
		Target:     drawable,
		Depth:      r.depth,
		Uniforms:   uniforms,
		Geometry:   r.geometry,
		IndexCount: r.geometry.IndexCount(),
		ClearColor: r.cfg.ClearColor,
	}
	if err := r.device.Submit(call, func() { f.done.Store(true) }); err != nil {
		uniforms.Release()
		return stats, fmt.Errorf("%w: submit: %v", ErrFrameSkipped, err)
	}
	r.submitted = f.serial
	r.inflight = append(r.inflight, f)
	drawable.Present()

	stats.Serial = f.serial
	stats.IndexCount = call.IndexCount
	stats.InFlight = len(r.inflight)
	return stats, nil
}

// SetGeometry swaps the drawn mesh. The old one is released once every
// frame that might read it has completed.
func (r *Renderer) SetGeometry(g Geometry) error {
	if g == nil {
		return errors.New("renderer needs geometry")
	}
	if err := r.acquire(); err != nil {
		return err
	}
	defer r.release(StateReady)

	if g != r.geometry {
		r.retired.push(r.submitted, r.geometry)
		r.geometry = g
	}
	r.collect()
	return nil
}

// Close waits for all in-flight frames and releases everything the
// renderer owns, geometry included. Closing twice is a no-op.
func (r *Renderer) Close() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	if r.state == StateClosed {
		r.mu.Unlock()
		return nil
	}
	if err := r.usable(); err != nil {
		r.mu.Unlock()
		return err
	}
	r.state = StateRendering
	r.mu.Unlock()

	for len(r.inflight) > 0 {
		r.device.Poll(true)
		r.collect()
	}
	r.retired.drain()
	if r.depth != nil {
		r.depth.Release()
		r.depth = nil
	}
	r.geometry.Release()
	r.geometry = nil
	r.release(StateClosed)
	return nil
}
