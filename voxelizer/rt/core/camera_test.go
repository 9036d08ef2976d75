package core

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestPerspective_MatchesMathgl(t *testing.T) {
	tests := []struct {
		fov, aspect, near, far float32
	}{
		{math.Pi / 4, 16.0 / 9.0, 0.1, 100},
		{mgl32.DegToRad(60), 1, 1, 1000},
		{mgl32.DegToRad(90), 0.5, 0.01, 10},
	}
	for _, tt := range tests {
		got := Perspective(tt.fov, tt.aspect, tt.near, tt.far)
		want := mgl32.Perspective(tt.fov, tt.aspect, tt.near, tt.far)
		assert.True(t, got.ApproxEqualThreshold(want, 1e-5), "got %v\nwant %v", got, want)
	}
}

func TestPerspective_DepthIntoW(t *testing.T) {
	p := Perspective(math.Pi/2, 1, 1, 10)
	clip := p.Mul4x1(mgl32.Vec4{0, 0, -5, 1})
	assert.InDelta(t, 5, clip.W(), 1e-6)

	near := p.Mul4x1(mgl32.Vec4{0, 0, -1, 1})
	assert.InDelta(t, -1, near.Z()/near.W(), 1e-5)
	far := p.Mul4x1(mgl32.Vec4{0, 0, -10, 1})
	assert.InDelta(t, 1, far.Z()/far.W(), 1e-5)
}

func TestLookAt_MatchesMathgl(t *testing.T) {
	tests := []struct {
		eye, center, up mgl32.Vec3
	}{
		{mgl32.Vec3{0, 0, 3.5}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{5, 4, -2}, mgl32.Vec3{1, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 2, 20}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}},
	}
	for _, tt := range tests {
		got := LookAt(tt.eye, tt.center, tt.up)
		want := mgl32.LookAtV(tt.eye, tt.center, tt.up)
		assert.True(t, got.ApproxEqualThreshold(want, 1e-5), "got %v\nwant %v", got, want)

		// The eye maps to the view-space origin.
		origin := got.Mul4x1(tt.eye.Vec4(1))
		assert.True(t, origin.Vec3().ApproxEqualThreshold(mgl32.Vec3{}, 1e-5))
	}
}

func TestRotationY(t *testing.T) {
	assert.Equal(t, mgl32.Ident4(), RotationY(0))
	assert.True(t, RotationY(1.2).ApproxEqualThreshold(mgl32.HomogRotate3DY(1.2), 1e-6))

	// A quarter turn takes +X to -Z. Compared per component with an absolute
	// tolerance since cos(π/2) is not exactly zero in float32.
	quarter := RotationY(math.Pi / 2).Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	for i, want := range []float32{0, 0, -1, 1} {
		assert.InDelta(t, want, quarter[i], 1e-6, "component %d", i)
	}
}

func TestModelRotation_IdentityAtZero(t *testing.T) {
	assert.Equal(t, mgl32.Ident4(), ModelRotation(0, 0.5))
	assert.Equal(t, mgl32.Ident4(), ModelRotation(0, 123))
}

func TestModelRotation_ProportionalToElapsed(t *testing.T) {
	got := ModelRotation(2*time.Second, 0.5)
	assert.True(t, got.ApproxEqualThreshold(RotationY(1), 1e-6))
}

func TestViewProjection_Pure(t *testing.T) {
	cam := NewCamera()
	a := cam.ViewProjection(16.0/9.0, 1500*time.Millisecond)
	b := cam.ViewProjection(16.0/9.0, 1500*time.Millisecond)
	assert.Equal(t, a, b)

	c := cam.ViewProjection(16.0/9.0, 1501*time.Millisecond)
	assert.NotEqual(t, a, c)
}

func TestViewProjection_Composition(t *testing.T) {
	cam := NewCamera()
	elapsed := 3 * time.Second
	want := cam.Projection(1.5).Mul4(cam.View()).Mul4(RotationY(1.5))
	assert.True(t, cam.ViewProjection(1.5, elapsed).ApproxEqualThreshold(want, 1e-6))

	// At t=0 the model term drops out.
	assert.Equal(t, cam.Projection(1.5).Mul4(cam.View()), cam.ViewProjection(1.5, 0))
}

func TestAspect(t *testing.T) {
	assert.Equal(t, float32(2), Aspect(200, 100))
	assert.Equal(t, float32(1), Aspect(0, 100))
	assert.Equal(t, float32(1), Aspect(100, 0))
}
