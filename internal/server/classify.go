package server

import (
	"regexp"
	"strings"
	"sync"
	"time"
)

// ErrorCategory identifies the kind of failure extracted from server stderr.
type ErrorCategory string

const (
	CategoryCompilation    ErrorCategory = "lwc_compilation"
	CategoryTemplate       ErrorCategory = "template"
	CategoryModuleNotFound ErrorCategory = "module_not_found"
	CategorySyntax         ErrorCategory = "syntax"
	CategoryGeneric        ErrorCategory = "generic"
)

// ServerError is a classified compilation or runtime error scraped from the
// preview server's stderr.
type ServerError struct {
	Category ErrorCategory
	Message  string
	Stack    string // raw chunk text
}

// compilerCodePrefix marks LWC compiler diagnostics (e.g. "LWC1010: ...").
const compilerCodePrefix = "LWC1"

var (
	compilationPattern    = regexp.MustCompile(`LWC1\d*[^:]*:\s*(.+)`)
	moduleNotFoundPattern = regexp.MustCompile(`(?:Cannot find module|Failed to resolve(?: entry for package| import)?)\s*['"]?([^'"\s]+)['"]?`)
	syntaxPattern         = regexp.MustCompile(`SyntaxError:?\s*(.+)`)
	genericPattern        = regexp.MustCompile(`Error:\s*(.+)`)
)

// IsErrorChunk reports whether a stderr chunk should enter the debounce
// window at all. Chunks without a generic Error token or a compiler code
// prefix are discarded without a callback.
func IsErrorChunk(chunk string) bool {
	return strings.Contains(chunk, "Error") || strings.Contains(chunk, compilerCodePrefix)
}

// Classify inspects a stderr chunk and extracts a categorized error.
// Categories are tested in priority order; the first match wins. Returns nil
// when no category matches — unrecognized stderr noise must not reach the UI.
func Classify(chunk string) *ServerError {
	if m := compilationPattern.FindStringSubmatch(chunk); m != nil {
		return &ServerError{Category: CategoryCompilation, Message: firstLine(m[1]), Stack: chunk}
	}

	lower := strings.ToLower(chunk)
	if strings.Contains(lower, "template") && strings.Contains(lower, "error") {
		msg := chunk
		if m := genericPattern.FindStringSubmatch(chunk); m != nil {
			msg = m[1]
		}
		return &ServerError{Category: CategoryTemplate, Message: firstLine(msg), Stack: chunk}
	}

	if m := moduleNotFoundPattern.FindStringSubmatch(chunk); m != nil {
		return &ServerError{Category: CategoryModuleNotFound, Message: "Cannot find module " + m[1], Stack: chunk}
	}

	if m := syntaxPattern.FindStringSubmatch(chunk); m != nil {
		return &ServerError{Category: CategorySyntax, Message: firstLine(m[1]), Stack: chunk}
	}

	if m := genericPattern.FindStringSubmatch(chunk); m != nil {
		return &ServerError{Category: CategoryGeneric, Message: firstLine(m[1]), Stack: chunk}
	}

	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// debouncer coalesces a burst of matching stderr chunks into a single
// classification. Explicit two-state machine: idle → pending(timer, last
// chunk) → idle. Each hit restarts the timer and replaces the stored chunk,
// so only the final chunk of a burst is classified.
type debouncer struct {
	mu       sync.Mutex
	interval time.Duration
	timer    *time.Timer
	last     string
	pending  bool
	fire     func(chunk string)
}

func newDebouncer(interval time.Duration, fire func(chunk string)) *debouncer {
	return &debouncer{interval: interval, fire: fire}
}

// Hit records a matching chunk and (re)starts the debounce window.
func (d *debouncer) Hit(chunk string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.last = chunk
	if d.pending {
		d.timer.Stop()
	}
	d.pending = true
	d.timer = time.AfterFunc(d.interval, d.expire)
}

func (d *debouncer) expire() {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	chunk := d.last
	d.pending = false
	d.last = ""
	d.mu.Unlock()

	d.fire(chunk)
}

// Cancel discards any pending chunk without firing.
func (d *debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending {
		d.timer.Stop()
		d.pending = false
		d.last = ""
	}
}
