package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func startWatcher(t *testing.T, root string) *Watcher {
	t.Helper()
	w, err := New(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(w.Stop)
	return w
}

func waitForEvent(t *testing.T, w *Watcher, path string) Event {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev := <-w.Events():
			if ev.Path == path {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event on %s", path)
		}
	}
}

func TestFileWriteEmitsEvent(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root)

	path := filepath.Join(root, "button.js")
	if err := os.WriteFile(path, []byte("export default {}"), 0o644); err != nil {
		t.Fatal(err)
	}

	ev := waitForEvent(t, w, path)
	if ev.Removed {
		t.Error("write reported as removal")
	}
}

func TestFileRemovalEmitsRemovedEvent(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "button.js")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := startWatcher(t, root)
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	ev := waitForEvent(t, w, path)
	if !ev.Removed {
		t.Error("removal reported as change")
	}
}

func TestNewSubdirectoryIsWatched(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root)

	sub := filepath.Join(root, "button")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	// Let the new watch register before writing into the directory.
	time.Sleep(300 * time.Millisecond)

	path := filepath.Join(sub, "button.html")
	if err := os.WriteFile(path, []byte("<template></template>"), 0o644); err != nil {
		t.Fatal(err)
	}

	waitForEvent(t, w, path)
}

func TestRapidWritesAreCoalesced(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root)

	path := filepath.Join(root, "button.js")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("rev"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	waitForEvent(t, w, path)

	// The burst fits one debounce window; no second event should follow.
	select {
	case ev := <-w.Events():
		if ev.Path == path {
			t.Error("burst produced more than one event")
		}
	case <-time.After(300 * time.Millisecond):
	}
}
