// Package workspace materializes the bundled runtime project template into
// a writable, versioned cache directory.
package workspace

import (
	"embed"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/lwcdev-io/lwcdev/internal/config"
)

//go:embed all:template
var templateFS embed.FS

// templateRoot is the embedded directory holding the runtime project.
const templateRoot = "template"

// SetupError wraps a failed template materialization. Fatal: activation
// aborts without a usable runtime project.
type SetupError struct {
	Path string
	Err  error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("runtime project setup failed at %s: %v", e.Path, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// Materialize ensures the runtime project for the given tool version exists
// in the global template cache and returns its path. An already-populated
// cache directory is reused across sessions.
func Materialize(version string) (string, error) {
	dir, err := config.TemplateCacheDir(version)
	if err != nil {
		return "", &SetupError{Err: err}
	}
	if err := MaterializeInto(dir); err != nil {
		return "", err
	}
	return dir, nil
}

// MaterializeInto copies the embedded runtime project into dir unless dir is
// already populated. The copy is a one-time deterministic file write; partial
// results from a failed copy are removed so a retry starts clean.
func MaterializeInto(dir string) error {
	if populated(dir) {
		log.Printf("[workspace] reusing runtime project at %s", dir)
		return nil
	}

	log.Printf("[workspace] materializing runtime project into %s", dir)
	if err := copyTemplate(dir); err != nil {
		_ = os.RemoveAll(dir)
		return &SetupError{Path: dir, Err: err}
	}
	return nil
}

func copyTemplate(dir string) error {
	return fs.WalkDir(templateFS, templateRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel := strings.TrimPrefix(path, templateRoot)
		rel = strings.TrimPrefix(rel, "/")
		target := filepath.Join(dir, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		data, err := templateFS.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}

// populated reports whether dir exists and contains at least one entry.
func populated(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}

// StaleCaches lists template cache directories belonging to other tool
// versions. They are reported at setup, never deleted automatically.
func StaleCaches(version string) ([]string, error) {
	templatesDir, err := config.TemplatesDir()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(templatesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	current := "lwc-preview-" + version
	var stale []string
	for _, e := range entries {
		if !e.IsDir() || e.Name() == current {
			continue
		}
		if strings.HasPrefix(e.Name(), "lwc-preview-") {
			stale = append(stale, filepath.Join(templatesDir, e.Name()))
		}
	}
	return stale, nil
}
