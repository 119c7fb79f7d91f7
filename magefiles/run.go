//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

func runExperience(name string) error {
	fmt.Printf("Run %s experience...\n", name)
	if _, err := executeCmd("go", withArgs("run", ".", "-config", "labrig.toml", "-experience", name), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the hub demo.
func (Run) Hub() error {
	return runExperience("hub")
}

// Runs the watch scroll demo.
func (Run) Watch() error {
	return runExperience("watch")
}

// Runs the shoe configurator demo.
func (Run) Shoe() error {
	return runExperience("shoe")
}

// Runs the hub with rigs loaded from testbed/rigs and reloaded on change.
func (Run) Dev() error {
	_, err := executeCmd("go", withArgs("run", ".", "-config", "labrig.toml", "-rigs", "testbed/rigs"), withStream())
	return err
}
