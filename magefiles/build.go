//go:build mage

package main

import (
	"fmt"
	"os/exec"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type Build mg.Namespace

// Shaders validates the embedded WGSL with naga.
func (Build) Shaders() error {
	if _, err := exec.LookPath("naga"); err != nil {
		return fmt.Errorf("naga not found, install it with cargo install naga-cli: %w", err)
	}
	for _, path := range shaderPaths() {
		if err := sh.RunV("naga", path); err != nil {
			return fmt.Errorf("validate %s: %w", path, err)
		}
	}
	return nil
}

// Binary builds the voxelizer into bin/.
func (Build) Binary() error {
	mg.Deps(Build.Shaders)
	return sh.RunV("go", "build", "-o", binary, mainPkg)
}
