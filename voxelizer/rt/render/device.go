package render

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Resource is anything the GPU may still be reading after submission.
type Resource interface {
	Release()
}

type DepthTarget interface {
	Resource
	Size() (width, height uint32)
}

// Drawable is the presentable surface image for one frame.
type Drawable interface {
	Resource
	Present()
}

// Geometry is a generated vertex and index buffer pair.
type Geometry interface {
	Resource
	IndexCount() uint32
}

type Uniforms struct {
	ViewProjection mgl32.Mat4
}

const UniformsSize = 64

// Encode packs the matrix column-major, little-endian, as mat4x4<f32>.
func (u Uniforms) Encode() []byte {
	buf := make([]byte, UniformsSize)
	for i, f := range u.ViewProjection {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DrawCall is one frame's render pass: clear color and depth, draw
// IndexCount indices of Geometry with Uniforms bound, into Target.
type DrawCall struct {
	Target     Drawable
	Depth      DepthTarget
	Uniforms   Resource
	Geometry   Geometry
	IndexCount uint32
	ClearColor [4]float64
}

// Device is the slice of the GPU the renderer drives. Submit must call done
// exactly once, from any goroutine, after the GPU has finished the call.
// Poll(true) blocks until at least one outstanding submission completes.
type Device interface {
	NewDepthTarget(width, height uint32) (DepthTarget, error)
	NewUniformBlock(u Uniforms) (Resource, error)
	NextDrawable() (Drawable, error)
	Submit(call DrawCall, done func()) error
	Poll(wait bool)
}
