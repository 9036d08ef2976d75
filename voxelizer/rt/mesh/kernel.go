package mesh

import (
	"github.com/gekko3d/voxelizer/voxelizer/rt/volume"
)

type face struct {
	normal  [3]float32
	corners [VerticesPerFace][3]float32
}

// cubeFaces lists the unit cube's faces with corners counter-clockwise as
// seen from outside, so (0,1,2)(0,2,3) winds front-facing under CCW.
// Keep in sync with voxel_mesh.wgsl.
var cubeFaces = [FacesPerCell]face{
	{normal: [3]float32{1, 0, 0}, corners: [4][3]float32{{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}}},
	{normal: [3]float32{-1, 0, 0}, corners: [4][3]float32{{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}}},
	{normal: [3]float32{0, 1, 0}, corners: [4][3]float32{{0, 1, 0}, {0, 1, 1}, {1, 1, 1}, {1, 1, 0}}},
	{normal: [3]float32{0, -1, 0}, corners: [4][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}}},
	{normal: [3]float32{0, 0, 1}, corners: [4][3]float32{{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}}},
	{normal: [3]float32{0, 0, -1}, corners: [4][3]float32{{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}}},
}

var faceIndices = [IndicesPerFace]uint32{0, 1, 2, 0, 2, 3}

// CellCoord is the fixed linearization shared with the compute kernel.
func CellCoord(i, n int) (x, y, z int) {
	return i % n, (i / n) % n, i / (n * n)
}

// EmitCell writes cell i into its slot of vertices and indices. slot must
// come from the Layout; InvalidSlot writes nothing. Inactive cells under the
// degenerate policy collapse every vertex onto the cell origin.
func EmitCell(i int, p Params, voxel volume.Voxel, slot uint32, vertices []Vertex, indices []uint32) {
	if slot == InvalidSlot {
		return
	}
	n := int(p.GridSize)
	x, y, z := CellCoord(i, n)
	s := p.VoxelSize
	origin := [3]float32{float32(x) * s, float32(y) * s, float32(z) * s}

	vBase, _ := VertexRange(slot)
	iBase, _ := IndexRange(slot)

	for f, fc := range cubeFaces {
		fv := vBase + uint32(f*VerticesPerFace)
		for c, corner := range fc.corners {
			v := &vertices[fv+uint32(c)]
			if voxel.Active {
				v.Position = [3]float32{
					origin[0] + corner[0]*s,
					origin[1] + corner[1]*s,
					origin[2] + corner[2]*s,
				}
				v.Normal = fc.normal
				v.Color = voxel.Color
			} else {
				*v = Vertex{Position: origin}
			}
		}
		fi := iBase + uint32(f*IndicesPerFace)
		for k, idx := range faceIndices {
			indices[fi+uint32(k)] = fv + idx
		}
	}
}
