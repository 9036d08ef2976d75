//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type Run mg.Namespace

// Demo opens the window with the default 32³ random grid.
func (Run) Demo() error {
	return sh.RunV("go", "run", mainPkg)
}

// Validate generates the mesh, checks it against the host kernel and keeps
// rendering.
func (Run) Validate() error {
	return sh.RunV("go", "run", mainPkg, "-validate", "-debug")
}

type Test mg.Namespace

// All runs every package test.
func (Test) All() error {
	return sh.RunV("go", "test", "./...")
}
