// Package sync mirrors component source trees into the runtime project.
package sync

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Stats counts the outcome of a single mirror pass.
type Stats struct {
	Copied  int
	Skipped int
}

// Error wraps a failed copy or delete with the path it concerns.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("sync %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ShouldCopy reports whether src is stale relative to dest: dest missing,
// src modified more recently, or byte sizes differing. This is a heuristic,
// not a content comparison — a file restored to identical content with an
// older mtime and equal size is treated as in sync.
func ShouldCopy(src, dest string) (bool, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false, &Error{Op: "stat", Path: src, Err: err}
	}

	destInfo, err := os.Stat(dest)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, &Error{Op: "stat", Path: dest, Err: err}
	}

	if srcInfo.ModTime().After(destInfo.ModTime()) {
		return true, nil
	}
	return srcInfo.Size() != destInfo.Size(), nil
}

// CopyFile copies src to dest byte-for-byte, creating any missing parent
// directories of dest. File content is preserved exactly; metadata is not.
func CopyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return &Error{Op: "open", Path: src, Err: err}
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return &Error{Op: "mkdir", Path: filepath.Dir(dest), Err: err}
	}

	out, err := os.Create(dest)
	if err != nil {
		return &Error{Op: "create", Path: dest, Err: err}
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return &Error{Op: "copy", Path: dest, Err: err}
	}
	if err := out.Close(); err != nil {
		return &Error{Op: "close", Path: dest, Err: err}
	}
	return nil
}

// MirrorDirectory recursively copies stale files from srcDir into destDir.
// The mirror is additive: destination entries with no source counterpart are
// left alone (deletions go through DeleteSubtree). destDir is created even
// when srcDir is empty.
func MirrorDirectory(srcDir, destDir string) (Stats, error) {
	var stats Stats

	if _, err := os.Stat(srcDir); err != nil {
		return stats, &Error{Op: "stat", Path: srcDir, Err: err}
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return stats, &Error{Op: "mkdir", Path: destDir, Err: err}
	}

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return stats, &Error{Op: "readdir", Path: srcDir, Err: err}
	}

	for _, entry := range entries {
		src := filepath.Join(srcDir, entry.Name())
		dest := filepath.Join(destDir, entry.Name())

		if entry.IsDir() {
			sub, err := MirrorDirectory(src, dest)
			stats.Copied += sub.Copied
			stats.Skipped += sub.Skipped
			if err != nil {
				return stats, err
			}
			continue
		}

		stale, err := ShouldCopy(src, dest)
		if err != nil {
			return stats, err
		}
		if !stale {
			stats.Skipped++
			continue
		}
		if err := CopyFile(src, dest); err != nil {
			return stats, err
		}
		stats.Copied++
	}

	return stats, nil
}

// DeleteSubtree removes dirPath and everything under it.
// A nonexistent path is a silent no-op.
func DeleteSubtree(dirPath string) error {
	if err := os.RemoveAll(dirPath); err != nil {
		return &Error{Op: "remove", Path: dirPath, Err: err}
	}
	return nil
}

// DeleteFile removes a single file. A nonexistent path is a silent no-op.
func DeleteFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return &Error{Op: "remove", Path: path, Err: err}
	}
	return nil
}
