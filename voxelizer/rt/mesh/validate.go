package mesh

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/voxelizer/voxelizer/rt/volume"
)

var ErrInvalidMesh = errors.New("invalid mesh")

const maxReported = 8

type problems struct {
	errs []error
	more int
}

func (p *problems) addf(format string, args ...any) {
	if len(p.errs) >= maxReported {
		p.more++
		return
	}
	p.errs = append(p.errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidMesh}, args...)...))
}

func (p *problems) err() error {
	if p.more > 0 {
		p.errs = append(p.errs, fmt.Errorf("%w: %d more problems", ErrInvalidMesh, p.more))
	}
	return errors.Join(p.errs...)
}

// Validate checks m against the generator contract for grid g: fixed
// capacities, cell-local indices, one outward axis normal per face, CCW
// winding, positions inside the cell and zero-area inactive cells.
func Validate(m *Mesh, g *volume.Grid, p Params) error {
	var pr problems
	l := m.Layout
	if len(m.Vertices) != l.VertexCapacity() {
		pr.addf("vertex buffer holds %d, want %d", len(m.Vertices), l.VertexCapacity())
	}
	if len(m.Indices) != l.IndexCapacity() {
		pr.addf("index buffer holds %d, want %d", len(m.Indices), l.IndexCapacity())
	}
	if l.Policy == PolicyCompact && l.DrawSlots != g.ActiveCount() {
		pr.addf("compact draw covers %d slots, grid has %d active cells", l.DrawSlots, g.ActiveCount())
	}
	if len(pr.errs) > 0 {
		return pr.err()
	}

	s := p.VoxelSize
	const eps = 1e-5
	for i, voxel := range g.Voxels {
		slot := l.Slots[i]
		if slot == InvalidSlot {
			if voxel.Active {
				pr.addf("active cell %d has no slot", i)
			}
			continue
		}
		if int(slot) >= l.DrawSlots {
			pr.addf("cell %d slot %d outside draw range %d", i, slot, l.DrawSlots)
			continue
		}
		vFirst, vEnd := VertexRange(slot)
		iFirst, _ := IndexRange(slot)
		x, y, z := CellCoord(i, g.Size)
		lo := mgl32.Vec3{float32(x) * s, float32(y) * s, float32(z) * s}
		hi := lo.Add(mgl32.Vec3{s, s, s})

		usedBy := make(map[uint32]int, VerticesPerCell)
		normals := make(map[[3]float32]int, FacesPerCell)
		for f := 0; f < FacesPerCell; f++ {
			for t := 0; t < 2; t++ {
				var tri [3]mgl32.Vec3
				inBlock := true
				for k := 0; k < 3; k++ {
					idx := m.Indices[iFirst+uint32(f*IndicesPerFace+t*3+k)]
					if idx < vFirst || idx >= vEnd {
						pr.addf("cell %d index %d outside its vertex block [%d,%d)", i, idx, vFirst, vEnd)
						inBlock = false
						continue
					}
					if owner, seen := usedBy[idx]; seen && owner != f {
						pr.addf("cell %d vertex %d shared by faces %d and %d", i, idx, owner, f)
					}
					usedBy[idx] = f
					tri[k] = mgl32.Vec3(m.Vertices[idx].Position)
				}
				if !inBlock {
					continue
				}
				cross := tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0]))
				if !voxel.Active {
					if cross.Len() > eps {
						pr.addf("inactive cell %d face %d has visible area", i, f)
					}
					continue
				}
				n := mgl32.Vec3(m.Vertices[m.Indices[iFirst+uint32(f*IndicesPerFace+t*3)]].Normal)
				if cross.Dot(n) <= 0 {
					pr.addf("cell %d face %d triangle %d winds against its normal", i, f, t)
				}
			}
		}
		if len(usedBy) != VerticesPerCell {
			pr.addf("cell %d references %d of its %d vertices", i, len(usedBy), VerticesPerCell)
		}
		if !voxel.Active {
			continue
		}
		for vi := vFirst; vi < vEnd; vi++ {
			v := m.Vertices[vi]
			normals[v.Normal]++
			if v.Color != voxel.Color {
				pr.addf("cell %d vertex %d color %v, want %v", i, vi, v.Color, voxel.Color)
			}
			for c := 0; c < 3; c++ {
				if v.Position[c] < lo[c]-eps || v.Position[c] > hi[c]+eps {
					pr.addf("cell %d vertex %d position %v outside [%v,%v]", i, vi, v.Position, lo, hi)
					break
				}
			}
		}
		for _, fc := range cubeFaces {
			if normals[fc.normal] != VerticesPerFace {
				pr.addf("cell %d normal %v on %d vertices, want %d", i, fc.normal, normals[fc.normal], VerticesPerFace)
			}
		}
	}
	return pr.err()
}

// Compare reports where got differs from want over the drawn range.
func Compare(got, want *Mesh) error {
	var pr problems
	if got.Layout.IndexCount() != want.Layout.IndexCount() {
		pr.addf("index count %d, want %d", got.Layout.IndexCount(), want.Layout.IndexCount())
		return pr.err()
	}
	drawVerts := want.Layout.DrawSlots * VerticesPerCell
	if len(got.Vertices) < drawVerts || len(got.Indices) < want.IndexCount() {
		pr.addf("buffers shorter than the drawn range")
		return pr.err()
	}
	for i := 0; i < want.IndexCount(); i++ {
		if got.Indices[i] != want.Indices[i] {
			pr.addf("index %d is %d, want %d", i, got.Indices[i], want.Indices[i])
		}
	}
	const eps = 1e-5
	for i := 0; i < drawVerts; i++ {
		g, w := got.Vertices[i], want.Vertices[i]
		if !mgl32.Vec3(g.Position).ApproxEqualThreshold(mgl32.Vec3(w.Position), eps) ||
			g.Normal != w.Normal || g.Color != w.Color {
			pr.addf("vertex %d is %+v, want %+v", i, g, w)
		}
	}
	return pr.err()
}
