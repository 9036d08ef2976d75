//go:build mage

package main

import (
	"path/filepath"
)

const (
	shaderDir = "voxelizer/rt/shaders"
	binary    = "bin/voxelizer"
	mainPkg   = "./voxelizer"
)

var shaderFiles = []string{"voxel_mesh.wgsl", "voxel_render.wgsl"}

func shaderPaths() []string {
	paths := make([]string, len(shaderFiles))
	for i, f := range shaderFiles {
		paths[i] = filepath.Join(shaderDir, f)
	}
	return paths
}
