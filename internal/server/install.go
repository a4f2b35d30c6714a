package server

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
)

// requiredPackage is the runtime package whose presence under node_modules
// marks a completed install.
const requiredPackage = "lwr"

// InstallError wraps a failed dependency install, keeping the process output
// for diagnostics.
type InstallError struct {
	Output string
	Err    error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("dependency install failed: %v", e.Err)
}

func (e *InstallError) Unwrap() error { return e.Err }

// EnsureDependencies checks that the runtime project's node_modules contains
// a non-empty copy of the required package, and runs a blocking npm install
// if it does not. Resolves only on clean exit.
func EnsureDependencies(projectRoot string) error {
	if dependenciesPresent(projectRoot) {
		log.Printf("[server] dependencies already installed")
		return nil
	}

	log.Printf("[server] installing dependencies in %s", projectRoot)
	cmd := exec.Command("npm", "install")
	cmd.Dir = projectRoot

	output, err := cmd.CombinedOutput()
	if err != nil {
		return &InstallError{Output: string(output), Err: err}
	}

	if !dependenciesPresent(projectRoot) {
		return &InstallError{
			Output: string(output),
			Err:    fmt.Errorf("%s missing from node_modules after install", requiredPackage),
		}
	}

	log.Printf("[server] dependencies installed")
	return nil
}

// dependenciesPresent reports whether node_modules/<requiredPackage> exists
// and is non-empty.
func dependenciesPresent(projectRoot string) bool {
	dir := filepath.Join(projectRoot, "node_modules", requiredPackage)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	return len(entries) > 0
}
