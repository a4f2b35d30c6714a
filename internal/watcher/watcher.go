// Package watcher handles file system watching for the component source tree.
package watcher

import (
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces rapid successive events for the same path.
const debounceWindow = 100 * time.Millisecond

// Event is a debounced file system change under the watched root.
type Event struct {
	Path    string
	Removed bool
}

// Watcher watches the component source root recursively and delivers
// debounced per-path events. Events for the same path preserve emission
// order; events for independent paths carry no cross-path ordering.
type Watcher struct {
	root       string
	fsWatcher  *fsnotify.Watcher
	eventsChan chan Event
	done       chan struct{}

	debounceMu sync.Mutex
	debounce   map[string]*time.Timer
	closed     bool
}

// New creates a watcher rooted at the component source directory.
func New(root string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		root:       root,
		fsWatcher:  fsWatcher,
		eventsChan: make(chan Event, 100),
		done:       make(chan struct{}),
		debounce:   make(map[string]*time.Timer),
	}, nil
}

// Events returns the channel for receiving events.
func (w *Watcher) Events() <-chan Event {
	return w.eventsChan
}

// Start registers watches on the root and every existing subdirectory, then
// begins processing events. New subdirectories are watched as they appear.
func (w *Watcher) Start() error {
	if err := w.addRecursive(w.root); err != nil {
		return err
	}
	go w.processEvents()
	return nil
}

// Stop stops the watcher and cancels pending debounce timers.
func (w *Watcher) Stop() {
	close(w.done)
	_ = w.fsWatcher.Close()

	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()
	w.closed = true
	for path, timer := range w.debounce {
		timer.Stop()
		delete(w.debounce, path)
	}
}

// addRecursive watches dir and all directories below it.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsWatcher.Add(path); err != nil {
			log.Printf("[watcher] warning: failed to watch %s: %v", path, err)
		}
		return nil
	})
}

// processEvents pumps fsnotify events into the debounced event channel.
func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Printf("[watcher] error: %v", err)
		}
	}
}

// handleEvent filters and debounces a single fsnotify event.
// Rename matters: atomic writes (write tmp, rename over target) surface as
// Rename on the target file — the standard editor save pattern.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove
	if event.Op&relevant == 0 {
		return
	}

	// A newly created directory needs its own watch before events inside it
	// can be seen.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				log.Printf("[watcher] warning: failed to watch new dir %s: %v", event.Name, err)
			}
		}
	}

	w.debounceEvent(event.Name, func() {
		w.emit(event.Name)
	})
}

// debounceEvent restarts the per-path timer; only the last event in a burst
// for one path is delivered.
func (w *Watcher) debounceEvent(path string, fn func()) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.closed {
		return
	}
	if timer, ok := w.debounce[path]; ok {
		timer.Stop()
	}
	w.debounce[path] = time.AfterFunc(debounceWindow, func() {
		w.debounceMu.Lock()
		closed := w.closed
		delete(w.debounce, path)
		w.debounceMu.Unlock()
		if !closed {
			fn()
		}
	})
}

// emit delivers the debounced event, deciding removal by a fresh stat so a
// create-then-delete burst resolves to its final state.
func (w *Watcher) emit(path string) {
	_, err := os.Stat(path)
	ev := Event{Path: path, Removed: os.IsNotExist(err)}

	select {
	case w.eventsChan <- ev:
	case <-w.done:
	}
}
