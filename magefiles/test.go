//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs the unit tests with the race detector.
func (Test) Unit() error {
	_, err := executeCmd("go", withArgs("test", "-race", "-count=1", "./..."), withStream())
	return err
}

// Runs the unit tests and writes coverage.out.
func (Test) Cover() error {
	if _, err := executeCmd("go", withArgs("test", "-coverprofile=coverage.out", "./..."), withStream()); err != nil {
		return err
	}
	_, err := executeCmd("go", withArgs("tool", "cover", "-func=coverage.out"), withStream())
	return err
}
