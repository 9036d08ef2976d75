package shaders

import (
	_ "embed"
)

//go:embed voxel_mesh.wgsl
var VoxelMeshWGSL string

//go:embed voxel_render.wgsl
var VoxelRenderWGSL string
