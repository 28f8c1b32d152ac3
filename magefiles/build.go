//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Downloads the modules and compiles every package.
func (Build) Engine() error {
	if _, err := executeCmd("go", withArgs("mod", "download"), withStream()); err != nil {
		return err
	}
	if _, err := executeCmd("go", withArgs("build", "./..."), withStream()); err != nil {
		return err
	}
	return nil
}

// Compiles the testbed binary into bin/.
func (Build) Testbed() error {
	_, err := executeCmd("go", withArgs("build", "-o", "bin/vista-testbed", "."), withStream())
	return err
}
