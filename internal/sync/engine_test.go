package sync

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestShouldCopy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.js")
	dest := filepath.Join(dir, "dest.js")

	write(t, src, "hello")

	// Destination absent
	stale, err := ShouldCopy(src, dest)
	if err != nil {
		t.Fatal(err)
	}
	if !stale {
		t.Error("ShouldCopy = false with missing destination")
	}

	// Destination identical (same size, newer mtime)
	write(t, dest, "olleh")
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(dest, future, future); err != nil {
		t.Fatal(err)
	}
	stale, err = ShouldCopy(src, dest)
	if err != nil {
		t.Fatal(err)
	}
	if stale {
		t.Error("ShouldCopy = true with equal size and newer destination")
	}

	// Size differs
	write(t, dest, "different length")
	if err := os.Chtimes(dest, future, future); err != nil {
		t.Fatal(err)
	}
	stale, err = ShouldCopy(src, dest)
	if err != nil {
		t.Fatal(err)
	}
	if !stale {
		t.Error("ShouldCopy = false with differing sizes")
	}

	// Source newer
	write(t, dest, "hello")
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(dest, past, past); err != nil {
		t.Fatal(err)
	}
	stale, err = ShouldCopy(src, dest)
	if err != nil {
		t.Fatal(err)
	}
	if !stale {
		t.Error("ShouldCopy = false with newer source")
	}

	// Missing source is an error
	if _, err := ShouldCopy(filepath.Join(dir, "missing.js"), dest); err == nil {
		t.Error("ShouldCopy with missing source: want error")
	}
}

func TestCopyFileCreatesParents(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a", "file.js")
	dest := filepath.Join(dir, "deep", "nested", "file.js")

	write(t, src, "content")

	if err := CopyFile(src, dest); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "content" {
		t.Errorf("copied content = %q, want %q", data, "content")
	}
}

func TestCopyFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := CopyFile(filepath.Join(dir, "missing"), filepath.Join(dir, "out"))
	if err == nil {
		t.Fatal("CopyFile with missing source: want error")
	}
	var syncErr *Error
	if !errors.As(err, &syncErr) {
		t.Errorf("error type = %T, want *Error", err)
	}
}

func TestMirrorDirectoryEmptySource(t *testing.T) {
	dir := t.TempDir()
	srcDir := filepath.Join(dir, "src")
	destDir := filepath.Join(dir, "dest")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		t.Fatal(err)
	}

	stats, err := MirrorDirectory(srcDir, destDir)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Copied != 0 || stats.Skipped != 0 {
		t.Errorf("stats = %+v, want zero", stats)
	}

	// Destination directory must still be created
	info, err := os.Stat(destDir)
	if err != nil || !info.IsDir() {
		t.Errorf("destination directory not created: %v", err)
	}
}

func TestMirrorDirectoryCopiesAndSkips(t *testing.T) {
	dir := t.TempDir()
	srcDir := filepath.Join(dir, "src")
	destDir := filepath.Join(dir, "dest")

	write(t, filepath.Join(srcDir, "foo", "foo.js"), "console.log('foo')")

	// First pass copies
	stats, err := MirrorDirectory(srcDir, destDir)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Copied != 1 || stats.Skipped != 0 {
		t.Errorf("first pass stats = %+v, want {1 0}", stats)
	}

	data, err := os.ReadFile(filepath.Join(destDir, "foo", "foo.js"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "console.log('foo')" {
		t.Errorf("mirrored content = %q", data)
	}

	// Immediate rerun skips
	stats, err = MirrorDirectory(srcDir, destDir)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Copied != 0 || stats.Skipped != 1 {
		t.Errorf("second pass stats = %+v, want {0 1}", stats)
	}
}

func TestMirrorDirectoryIsAdditive(t *testing.T) {
	dir := t.TempDir()
	srcDir := filepath.Join(dir, "src")
	destDir := filepath.Join(dir, "dest")

	write(t, filepath.Join(srcDir, "a.js"), "a")
	extra := filepath.Join(destDir, "extra.js")
	write(t, extra, "must survive")

	if _, err := MirrorDirectory(srcDir, destDir); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(extra)
	if err != nil {
		t.Fatalf("extra destination file was removed: %v", err)
	}
	if string(data) != "must survive" {
		t.Errorf("extra file content = %q", data)
	}
}

func TestMirrorDirectoryMissingSource(t *testing.T) {
	dir := t.TempDir()
	_, err := MirrorDirectory(filepath.Join(dir, "nope"), filepath.Join(dir, "dest"))
	if err == nil {
		t.Fatal("MirrorDirectory with missing source: want error")
	}
}

func TestDeleteSubtree(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "tree")
	write(t, filepath.Join(target, "sub", "file.js"), "x")

	if err := DeleteSubtree(target); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Error("subtree still exists after DeleteSubtree")
	}

	// Nonexistent path is a silent no-op
	if err := DeleteSubtree(filepath.Join(dir, "never-existed")); err != nil {
		t.Errorf("DeleteSubtree on missing path: %v", err)
	}
}

func TestDeleteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.js")
	write(t, path, "x")

	if err := DeleteFile(path); err != nil {
		t.Fatal(err)
	}
	if err := DeleteFile(path); err != nil {
		t.Errorf("DeleteFile on missing path: %v", err)
	}
}
