package core

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// All matrices are column-major mgl32.Mat4 applied to column vectors, the
// layout WGSL reads as mat4x4<f32> and multiplies as m * v.

// Perspective builds a right-handed symmetric frustum. View-space depth ends
// up in clip-space w.
func Perspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	yScale := float32(1 / math.Tan(float64(fovY)*0.5))
	xScale := yScale / aspect
	zRange := far - near
	zScale := -(far + near) / zRange
	wzScale := -2 * far * near / zRange

	return mgl32.Mat4{
		xScale, 0, 0, 0,
		0, yScale, 0, 0,
		0, 0, zScale, -1,
		0, 0, wzScale, 0,
	}
}

// LookAt builds a right-handed view matrix with an orthonormal basis.
func LookAt(eye, center, up mgl32.Vec3) mgl32.Mat4 {
	z := eye.Sub(center).Normalize()
	x := up.Cross(z).Normalize()
	y := z.Cross(x)

	return mgl32.Mat4{
		x.X(), y.X(), z.X(), 0,
		x.Y(), y.Y(), z.Y(), 0,
		x.Z(), y.Z(), z.Z(), 0,
		-x.Dot(eye), -y.Dot(eye), -z.Dot(eye), 1,
	}
}

// RotationY rotates about the vertical axis.
func RotationY(angle float32) mgl32.Mat4 {
	c := float32(math.Cos(float64(angle)))
	s := float32(math.Sin(float64(angle)))
	return mgl32.Mat4{
		c, 0, -s, 0,
		0, 1, 0, 0,
		s, 0, c, 0,
		0, 0, 0, 1,
	}
}

// ModelRotation is the turntable transform after elapsed time at speed
// radians per second.
func ModelRotation(elapsed time.Duration, speed float32) mgl32.Mat4 {
	return RotationY(float32(elapsed.Seconds()) * speed)
}

type Camera struct {
	FovY         float32 // radians
	Near         float32
	Far          float32
	Eye          mgl32.Vec3
	Center       mgl32.Vec3
	Up           mgl32.Vec3
	AngularSpeed float32 // radians per second
}

func NewCamera() Camera {
	return Camera{
		FovY:         math.Pi / 4,
		Near:         0.1,
		Far:          100,
		Eye:          mgl32.Vec3{0, 0, 3.5},
		Center:       mgl32.Vec3{0, 0, 0},
		Up:           mgl32.Vec3{0, 1, 0},
		AngularSpeed: 0.5,
	}
}

func (c Camera) Projection(aspect float32) mgl32.Mat4 {
	return Perspective(c.FovY, aspect, c.Near, c.Far)
}

func (c Camera) View() mgl32.Mat4 {
	return LookAt(c.Eye, c.Center, c.Up)
}

// ViewProjection is projection × view × model for the frame at elapsed.
// Pure: equal inputs give bit-identical output.
func (c Camera) ViewProjection(aspect float32, elapsed time.Duration) mgl32.Mat4 {
	return c.Projection(aspect).Mul4(c.View()).Mul4(ModelRotation(elapsed, c.AngularSpeed))
}

// Aspect returns width/height, or 1 for a degenerate viewport.
func Aspect(width, height uint32) float32 {
	if width == 0 || height == 0 {
		return 1
	}
	return float32(width) / float32(height)
}
