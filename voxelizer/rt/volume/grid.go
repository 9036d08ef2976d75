package volume

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrInvalidGridSize    = errors.New("grid size must be positive")
	ErrInvalidProbability = errors.New("fill probability must be in [0,1]")
)

type Voxel struct {
	Position [3]int32
	Active   bool
	Color    [4]float32
}

// Grid is a dense cubic voxel array, row-major in (x, y, z):
// index = x + y*Size + z*Size*Size. It is never mutated after NewGrid.
type Grid struct {
	ID     uuid.UUID
	Size   int
	Voxels []Voxel

	active int
}

// NewGrid allocates Size³ voxels and initializes every one of them through
// fill before returning.
func NewGrid(size int, fill FillPolicy) (*Grid, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidGridSize, size)
	}
	if fill == nil {
		return nil, errors.New("fill policy is nil")
	}
	if v, ok := fill.(interface{ validate() error }); ok {
		if err := v.validate(); err != nil {
			return nil, err
		}
	}

	g := &Grid{
		ID:     uuid.New(),
		Size:   size,
		Voxels: make([]Voxel, size*size*size),
	}
	for i := range g.Voxels {
		x, y, z := g.Coord(i)
		active, color := fill.Fill(x, y, z, size)
		g.Voxels[i] = Voxel{
			Position: [3]int32{int32(x), int32(y), int32(z)},
			Active:   active,
			Color:    color,
		}
		if active {
			g.active++
		}
	}
	return g, nil
}

func (g *Grid) Count() int { return len(g.Voxels) }

func (g *Grid) ActiveCount() int { return g.active }

func (g *Grid) Index(x, y, z int) int {
	return x + y*g.Size + z*g.Size*g.Size
}

func (g *Grid) Coord(i int) (x, y, z int) {
	n := g.Size
	return i % n, (i / n) % n, i / (n * n)
}

func (g *Grid) InBounds(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < g.Size && y < g.Size && z < g.Size
}

// At returns the voxel at (x, y, z) and false when out of bounds.
func (g *Grid) At(x, y, z int) (Voxel, bool) {
	if !g.InBounds(x, y, z) {
		return Voxel{}, false
	}
	return g.Voxels[g.Index(x, y, z)], true
}

// Occupancy returns one flag per cell in linear order.
func (g *Grid) Occupancy() []bool {
	occ := make([]bool, len(g.Voxels))
	for i, v := range g.Voxels {
		occ[i] = v.Active
	}
	return occ
}
