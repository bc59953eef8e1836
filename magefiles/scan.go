//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// runCLI executes the built catalog-engine binary with args, building it
// first if bin/ is empty.
func runCLI(args ...string) error {
	bin := filepath.Join(binDir, binName)
	if _, err := os.Stat(bin); err != nil {
		if err := Build(); err != nil {
			return err
		}
	}

	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v: %w", binName, args, err)
	}
	return nil
}

// Scan resolves metadata for every file in the library.
func Scan() error {
	return runCLI("scan")
}

// Index builds the searchable catalog from resolved records.
func Index() error {
	return runCLI("index")
}

// Audit reports the files the lookup chain gave up on.
func Audit() error {
	return runCLI("audit")
}
