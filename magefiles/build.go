//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Builds a static labrig binary into bin/.
func (Build) Binary() error {
	if _, err := executeCmd("go", withArgs("build", "-trimpath", "-o", "bin/labrig", "."), withEnv("CGO_ENABLED=0"), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs go vet over every package.
func (Build) Vet() error {
	_, err := executeCmd("go", withArgs("vet", "./..."), withStream())
	return err
}
