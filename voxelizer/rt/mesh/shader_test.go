package mesh

import (
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/voxelizer/voxelizer/rt/shaders"
)

var vec3Literal = regexp.MustCompile(`vec3<f32>\(([-0-9.]+), ([-0-9.]+), ([-0-9.]+)\)`)

// wgslTable returns the vec3 literals of the private array named name.
func wgslTable(t *testing.T, src, name string) [][3]float32 {
	t.Helper()
	start := strings.Index(src, "var<private> "+name)
	require.GreaterOrEqual(t, start, 0, "table %s not found", name)
	body := src[start:]
	body = body[:strings.Index(body, ");")]
	// Skip the element type in the declaration.
	body = body[strings.Index(body, "= array")+1:]

	var out [][3]float32
	for _, m := range vec3Literal.FindAllStringSubmatch(body, -1) {
		var v [3]float32
		for c := 0; c < 3; c++ {
			f, err := strconv.ParseFloat(m[c+1], 32)
			require.NoError(t, err)
			v[c] = float32(f)
		}
		out = append(out, v)
	}
	return out
}

func TestShaderFaceTablesMatchKernel(t *testing.T) {
	normals := wgslTable(t, shaders.VoxelMeshWGSL, "FACE_NORMALS")
	corners := wgslTable(t, shaders.VoxelMeshWGSL, "FACE_CORNERS")
	require.Len(t, normals, FacesPerCell)
	require.Len(t, corners, VerticesPerCell)

	for f, fc := range cubeFaces {
		assert.Equal(t, fc.normal, normals[f], "face %d normal", f)
		for c := 0; c < VerticesPerFace; c++ {
			assert.Equal(t, fc.corners[c], corners[f*VerticesPerFace+c], "face %d corner %d", f, c)
		}
	}
}

func TestShaderWorkgroupSize(t *testing.T) {
	assert.Contains(t, shaders.VoxelMeshWGSL, "@workgroup_size("+strconv.Itoa(WorkgroupSize)+")")
}
