package mesh

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gekko3d/voxelizer/voxelizer/rt/volume"
)

const (
	FacesPerCell    = 6
	VerticesPerFace = 4
	IndicesPerFace  = 6

	// VerticesPerCell and IndicesPerCell are the fixed slot sizes every
	// cell owns in the vertex and index buffers.
	VerticesPerCell = FacesPerCell * VerticesPerFace // 24
	IndicesPerCell  = FacesPerCell * IndicesPerFace  // 36

	// VertexStride matches WGSL struct Vertex { vec3<f32>, vec3<f32>, vec4<f32> }
	// where each vec3 is padded to 16 bytes.
	VertexStride     = 48
	IndexStride      = 4
	VoxelStride      = 32
	ParamsSize       = 16
	UniformsSize     = 64
	NormalOffset     = 16
	ColorOffset      = 32
	InvalidSlot      = math.MaxUint32
	WorkgroupSize    = 64
	maxCellsPerSlots = math.MaxUint32 / IndicesPerCell
)

var (
	ErrGridTooLarge   = errors.New("grid too large for 32-bit indices")
	ErrBufferTooLarge = errors.New("buffer exceeds device limits")
)

// Policy selects what inactive cells contribute to the buffers.
type Policy uint32

const (
	// PolicyDegenerate keeps one slot per cell. Inactive cells write
	// zero-area triangles and the draw covers every slot.
	PolicyDegenerate Policy = iota
	// PolicyCompact packs active cells into consecutive slots. Inactive
	// cells write nothing and the draw covers only active slots.
	PolicyCompact
)

func (p Policy) String() string {
	switch p {
	case PolicyDegenerate:
		return "degenerate"
	case PolicyCompact:
		return "compact"
	}
	return fmt.Sprintf("Policy(%d)", uint32(p))
}

func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "degenerate", "":
		return PolicyDegenerate, nil
	case "compact":
		return PolicyCompact, nil
	}
	return 0, fmt.Errorf("unknown inactive cell policy %q", s)
}

type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	Color    [4]float32
}

// Params is the scalar configuration shared by the generator and the
// renderer. Immutable after creation.
type Params struct {
	VoxelSize float32
	GridSize  int32
	Policy    Policy
}

// Layout fixes where every cell writes. Capacities are always the worst
// case, Slots[i] is the slot owned by cell i (InvalidSlot when the cell
// writes nothing) and DrawSlots is how many slots the draw covers.
type Layout struct {
	GridSize  int
	Cells     int
	Slots     []uint32
	DrawSlots int
	Policy    Policy
}

// NewLayout computes slot ownership from occupancy. The compact policy is
// an exclusive prefix sum over active flags.
func NewLayout(occupancy []bool, gridSize int, policy Policy) (*Layout, error) {
	if gridSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", volume.ErrInvalidGridSize, gridSize)
	}
	cells := gridSize * gridSize * gridSize
	if len(occupancy) != cells {
		return nil, fmt.Errorf("occupancy has %d cells, want %d", len(occupancy), cells)
	}
	if uint64(cells) > maxCellsPerSlots {
		return nil, fmt.Errorf("%w: %d cells", ErrGridTooLarge, cells)
	}

	l := &Layout{
		GridSize: gridSize,
		Cells:    cells,
		Slots:    make([]uint32, cells),
		Policy:   policy,
	}
	switch policy {
	case PolicyDegenerate:
		for i := range l.Slots {
			l.Slots[i] = uint32(i)
		}
		l.DrawSlots = cells
	case PolicyCompact:
		next := uint32(0)
		for i, active := range occupancy {
			if !active {
				l.Slots[i] = InvalidSlot
				continue
			}
			l.Slots[i] = next
			next++
		}
		l.DrawSlots = int(next)
	default:
		return nil, fmt.Errorf("unknown inactive cell policy %d", policy)
	}
	return l, nil
}

func LayoutForGrid(g *volume.Grid, policy Policy) (*Layout, error) {
	return NewLayout(g.Occupancy(), g.Size, policy)
}

func (l *Layout) VertexCapacity() int { return l.Cells * VerticesPerCell }
func (l *Layout) IndexCapacity() int  { return l.Cells * IndicesPerCell }

// IndexCount is the number of indices the draw call must cover.
func (l *Layout) IndexCount() int { return l.DrawSlots * IndicesPerCell }

func (l *Layout) VertexBufferSize() uint64 { return uint64(l.VertexCapacity()) * VertexStride }
func (l *Layout) IndexBufferSize() uint64  { return uint64(l.IndexCapacity()) * IndexStride }
func (l *Layout) VoxelBufferSize() uint64  { return uint64(l.Cells) * VoxelStride }
func (l *Layout) SlotBufferSize() uint64   { return uint64(l.Cells) * 4 }

// CheckLimits rejects layouts whose buffers a device cannot allocate or
// bind as storage.
func (l *Layout) CheckLimits(maxBufferSize, maxStorageBinding uint64) error {
	buffers := []struct {
		name string
		size uint64
	}{
		{"vertex", l.VertexBufferSize()},
		{"index", l.IndexBufferSize()},
		{"voxel", l.VoxelBufferSize()},
		{"slot", l.SlotBufferSize()},
	}
	var errs []error
	for _, b := range buffers {
		if b.size > maxBufferSize || b.size > maxStorageBinding {
			errs = append(errs, fmt.Errorf("%w: %s buffer %d bytes, max buffer %d, max storage binding %d",
				ErrBufferTooLarge, b.name, b.size, maxBufferSize, maxStorageBinding))
		}
	}
	return errors.Join(errs...)
}

// DispatchSize returns workgroup counts covering cells invocations. Counts
// above maxPerDim fold into a second dimension; the kernel linearizes with
// num_workgroups.x.
func DispatchSize(cells int, maxPerDim uint32) (x, y uint32) {
	groups := uint32((cells + WorkgroupSize - 1) / WorkgroupSize)
	if groups == 0 {
		return 0, 0
	}
	if maxPerDim == 0 || groups <= maxPerDim {
		return groups, 1
	}
	return maxPerDim, (groups + maxPerDim - 1) / maxPerDim
}

// VertexRange is the half-open vertex range owned by slot.
func VertexRange(slot uint32) (first, end uint32) {
	first = slot * VerticesPerCell
	return first, first + VerticesPerCell
}

// IndexRange is the half-open index range owned by slot.
func IndexRange(slot uint32) (first, end uint32) {
	first = slot * IndicesPerCell
	return first, first + IndicesPerCell
}

// Encoding helpers. Layouts mirror the WGSL structs in rt/shaders.

func putF32(b []byte, off int, v float32) {
	binary.LittleEndian.PutUint32(b[off:], math.Float32bits(v))
}

func getF32(b []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}

func EncodeParams(p Params) []byte {
	buf := make([]byte, ParamsSize)
	putF32(buf, 0, p.VoxelSize)
	binary.LittleEndian.PutUint32(buf[4:], uint32(p.GridSize))
	binary.LittleEndian.PutUint32(buf[8:], uint32(p.Policy))
	return buf
}

func EncodeVoxels(voxels []volume.Voxel) []byte {
	buf := make([]byte, len(voxels)*VoxelStride)
	for i, v := range voxels {
		off := i * VoxelStride
		binary.LittleEndian.PutUint32(buf[off:], uint32(v.Position[0]))
		binary.LittleEndian.PutUint32(buf[off+4:], uint32(v.Position[1]))
		binary.LittleEndian.PutUint32(buf[off+8:], uint32(v.Position[2]))
		if v.Active {
			binary.LittleEndian.PutUint32(buf[off+12:], 1)
		}
		for c := 0; c < 4; c++ {
			putF32(buf, off+16+c*4, v.Color[c])
		}
	}
	return buf
}

func EncodeSlots(slots []uint32) []byte {
	buf := make([]byte, len(slots)*4)
	for i, s := range slots {
		binary.LittleEndian.PutUint32(buf[i*4:], s)
	}
	return buf
}

func EncodeVertices(vertices []Vertex) []byte {
	buf := make([]byte, len(vertices)*VertexStride)
	for i, v := range vertices {
		off := i * VertexStride
		for c := 0; c < 3; c++ {
			putF32(buf, off+c*4, v.Position[c])
			putF32(buf, off+NormalOffset+c*4, v.Normal[c])
		}
		for c := 0; c < 4; c++ {
			putF32(buf, off+ColorOffset+c*4, v.Color[c])
		}
	}
	return buf
}

func DecodeVertices(b []byte) ([]Vertex, error) {
	if len(b)%VertexStride != 0 {
		return nil, fmt.Errorf("vertex data length %d is not a multiple of %d", len(b), VertexStride)
	}
	out := make([]Vertex, len(b)/VertexStride)
	for i := range out {
		off := i * VertexStride
		for c := 0; c < 3; c++ {
			out[i].Position[c] = getF32(b, off+c*4)
			out[i].Normal[c] = getF32(b, off+NormalOffset+c*4)
		}
		for c := 0; c < 4; c++ {
			out[i].Color[c] = getF32(b, off+ColorOffset+c*4)
		}
	}
	return out, nil
}

func DecodeIndices(b []byte) ([]uint32, error) {
	if len(b)%IndexStride != 0 {
		return nil, fmt.Errorf("index data length %d is not a multiple of %d", len(b), IndexStride)
	}
	out := make([]uint32, len(b)/IndexStride)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[i*IndexStride:])
	}
	return out, nil
}
