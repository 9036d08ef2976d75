package volume

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/exp/rand"
)

// FillPolicy decides occupancy and colour of a cell in an n³ grid.
type FillPolicy interface {
	Fill(x, y, z, n int) (active bool, color [4]float32)
}

// RandomFill activates each cell with the given probability and assigns a
// random opaque colour. Equal seeds give equal grids.
type RandomFill struct {
	Probability float64
	Seed        uint64

	rng *rand.Rand
}

func NewRandomFill(probability float64, seed uint64) *RandomFill {
	return &RandomFill{Probability: probability, Seed: seed}
}

func (f *RandomFill) validate() error {
	if !(f.Probability >= 0 && f.Probability <= 1) {
		return fmt.Errorf("%w: got %g", ErrInvalidProbability, f.Probability)
	}
	// A fresh source per grid keeps NewGrid deterministic for a seed.
	f.rng = rand.New(rand.NewSource(f.Seed))
	return nil
}

func (f *RandomFill) Fill(x, y, z, n int) (bool, [4]float32) {
	if f.rng == nil {
		f.rng = rand.New(rand.NewSource(f.Seed))
	}
	// Always draw the colour so occupancy of later cells does not depend on
	// earlier outcomes.
	roll := f.rng.Float64()
	color := [4]float32{f.rng.Float32(), f.rng.Float32(), f.rng.Float32(), 1}
	if roll >= f.Probability {
		return false, [4]float32{}
	}
	return true, color
}

// SolidFill activates every cell.
type SolidFill struct {
	Color [4]float32
}

func (f SolidFill) Fill(x, y, z, n int) (bool, [4]float32) {
	return true, f.Color
}

// EmptyFill activates nothing.
type EmptyFill struct{}

func (EmptyFill) Fill(x, y, z, n int) (bool, [4]float32) {
	return false, [4]float32{}
}

// CheckerFill activates every cell, alternating A and B by coordinate parity.
type CheckerFill struct {
	A, B [4]float32
}

func (f CheckerFill) Fill(x, y, z, n int) (bool, [4]float32) {
	if (x+y+z)%2 == 0 {
		return true, f.A
	}
	return true, f.B
}

// SphereFill activates the cells whose centres lie inside the sphere
// inscribed in the grid.
type SphereFill struct {
	Color [4]float32
}

func (f SphereFill) Fill(x, y, z, n int) (bool, [4]float32) {
	r := float32(n) / 2
	center := mgl32.Vec3{r, r, r}
	p := mgl32.Vec3{float32(x) + 0.5, float32(y) + 0.5, float32(z) + 0.5}
	if p.Sub(center).LenSqr() <= r*r {
		return true, f.Color
	}
	return false, [4]float32{}
}

// GradientFill activates every cell and colours it by its normalized
// coordinate.
type GradientFill struct{}

func (GradientFill) Fill(x, y, z, n int) (bool, [4]float32) {
	if n == 1 {
		return true, [4]float32{1, 1, 1, 1}
	}
	d := float32(n - 1)
	return true, [4]float32{float32(x) / d, float32(y) / d, float32(z) / d, 1}
}

// NewFill builds a fill by name. a is the primary color and b the checker's
// second color; random fills pick their own colors.
func NewFill(name string, probability float64, seed uint64, a, b [4]float32) (FillPolicy, error) {
	switch name {
	case "random", "":
		return NewRandomFill(probability, seed), nil
	case "solid":
		return SolidFill{Color: a}, nil
	case "empty":
		return EmptyFill{}, nil
	case "checker":
		return CheckerFill{A: a, B: b}, nil
	case "sphere":
		return SphereFill{Color: a}, nil
	case "gradient":
		return GradientFill{}, nil
	}
	return nil, fmt.Errorf("unknown fill %q", name)
}
