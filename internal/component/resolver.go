// Package component maps workspace file paths to LWC component identity.
package component

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// MarkerSegment is the directory name that delimits the component source root.
	MarkerSegment = "lwc"

	// ModulePrefix is the namespace prefix for runtime module specifiers.
	ModulePrefix = "c"
)

// Identity describes a trackable component derived from a file path.
// It is recomputed on demand and never stored.
type Identity struct {
	Name       string
	ModulePath string
}

// Resolve maps a file path to a component identity.
// The component name is the path segment immediately following the last
// occurrence of the marker segment. Returns nil if the path does not belong
// to a component (no marker segment, marker is the final segment, or the
// extracted name is empty).
func Resolve(path string) *Identity {
	name := nameFromPath(path)
	if name == "" {
		return nil
	}
	return &Identity{
		Name:       name,
		ModulePath: ModulePrefix + "/" + name,
	}
}

// ResolveDir returns the component's enclosing directory: the input path
// truncated to end one level below the last marker segment. Returns "" under
// the same conditions Resolve returns nil.
func ResolveDir(path string) string {
	segs := splitPath(path)
	idx := lastMarkerIndex(segs)
	if idx < 0 || idx+1 >= len(segs) {
		return ""
	}
	if strings.TrimSpace(segs[idx+1]) == "" {
		return ""
	}
	return filepath.Join(segs[:idx+2]...)
}

// IsComplete reports whether both the .html and .js files for the named
// component exist as regular files directly inside dir. No content validation.
func IsComplete(dir, name string) bool {
	if dir == "" || name == "" {
		return false
	}
	for _, ext := range []string{".html", ".js"} {
		info, err := os.Stat(filepath.Join(dir, name+ext))
		if err != nil || !info.Mode().IsRegular() {
			return false
		}
	}
	return true
}

func nameFromPath(path string) string {
	segs := splitPath(path)
	idx := lastMarkerIndex(segs)
	if idx < 0 || idx+1 >= len(segs) {
		return ""
	}
	name := strings.TrimSpace(segs[idx+1])
	return name
}

// splitPath normalizes and splits a path into segments, preserving a leading
// separator as a root segment so rejoining keeps absolute paths absolute.
func splitPath(path string) []string {
	clean := filepath.Clean(path)
	segs := strings.Split(clean, string(filepath.Separator))
	if len(segs) > 0 && segs[0] == "" {
		// Absolute path: keep the root as its own segment for filepath.Join.
		segs[0] = string(filepath.Separator)
	}
	return segs
}

func lastMarkerIndex(segs []string) int {
	for i := len(segs) - 1; i >= 0; i-- {
		if segs[i] == MarkerSegment {
			return i
		}
	}
	return -1
}
