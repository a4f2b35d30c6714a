// Package panel owns the preview display surface and its message protocol.
package panel

import (
	"log"
	"sync"

	"github.com/lwcdev-io/lwcdev/internal/component"
)

// Surface is a display surface that can receive and send protocol frames.
// The concrete implementation is a local web page over a websocket; tests
// substitute a fake.
type Surface interface {
	Post(msg Message) error
	Reveal()
	Dispose()
}

// SurfaceFactory creates a surface wired to an inbound-message handler and a
// disposal handler.
type SurfaceFactory func(inbound func(Message), onDispose func()) (Surface, error)

// SettingsStore persists the auto-open preference.
type SettingsStore interface {
	AutoOpen() bool
	SetAutoOpen(enabled bool) error
}

// Controller mediates between the orchestrator and at most one live surface.
type Controller struct {
	mu             sync.Mutex
	surface        Surface
	current        string
	hasActiveError bool
	autoOpen       bool

	newSurface SurfaceFactory
	settings   SettingsStore
	notify     func(string)

	onForceReload  func()
	onLoadComplete func(success bool, componentName string)
}

// NewController creates a panel controller. The auto-open preference is read
// from settings once at construction and mutated only by explicit toggle.
func NewController(factory SurfaceFactory, settings SettingsStore, notify func(string)) *Controller {
	if notify == nil {
		notify = func(string) {}
	}
	return &Controller{
		newSurface: factory,
		settings:   settings,
		autoOpen:   settings.AutoOpen(),
		notify:     notify,
	}
}

// SetOnForceReload registers the handler for the surface's forceReload
// request.
func (c *Controller) SetOnForceReload(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onForceReload = fn
}

// SetOnLoadComplete registers the handler for relayed componentLoadComplete
// frames.
func (c *Controller) SetOnLoadComplete(fn func(success bool, componentName string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onLoadComplete = fn
}

// Exists reports whether a surface is currently live.
func (c *Controller) Exists() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surface != nil
}

// Current returns the component currently shown, or "".
func (c *Controller) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.surface == nil {
		return ""
	}
	return c.current
}

// AutoOpen reports the auto-open-on-switch preference.
func (c *Controller) AutoOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoOpen
}

// Show reveals the panel on the given component. If a surface already exists
// it is brought to the foreground and, only when the server is ready, pointed
// at the component — a second surface is never created. Otherwise a new
// surface is created showing either the loading view (server not ready; the
// caller must invoke ServerReady later) or the component view.
func (c *Controller) Show(id *component.Identity, serverReady bool) error {
	c.mu.Lock()

	if c.surface != nil {
		surface := c.surface
		if serverReady {
			c.current = id.Name
			c.hasActiveError = false
		}
		c.mu.Unlock()

		surface.Reveal()
		if serverReady {
			return surface.Post(UpdateComponent(id.Name))
		}
		return nil
	}

	surface, err := c.newSurface(c.route, c.handleDispose)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.surface = surface
	c.current = id.Name
	c.hasActiveError = false
	c.mu.Unlock()

	surface.Reveal()
	if !serverReady {
		return surface.Post(LoadingState(true, "Starting preview server..."))
	}
	return surface.Post(UpdateComponent(id.Name))
}

// ServerReady switches an existing surface from the loading view to the live
// component view. No-op without a surface.
func (c *Controller) ServerReady() error {
	c.mu.Lock()
	surface := c.surface
	current := c.current
	c.mu.Unlock()

	if surface == nil {
		return nil
	}
	if err := surface.Post(LoadingState(false, "")); err != nil {
		return err
	}
	return surface.Post(UpdateComponent(current))
}

// UpdateComponent points the surface at a different component and clears any
// active error. No-op without a surface.
func (c *Controller) UpdateComponent(name string) error {
	c.mu.Lock()
	surface := c.surface
	if surface != nil {
		c.current = name
		c.hasActiveError = false
	}
	c.mu.Unlock()

	if surface == nil {
		return nil
	}
	return surface.Post(UpdateComponent(name))
}

// SendError pushes an error overlay. The first error wins: while one is
// displayed, further errors are suppressed until ClearError or a successful
// component update resets the flag. This keeps a burst of related stderr
// lines from flickering the overlay.
func (c *Controller) SendError(message, stack string) error {
	c.mu.Lock()
	surface := c.surface
	if surface == nil || c.hasActiveError {
		c.mu.Unlock()
		return nil
	}
	c.hasActiveError = true
	c.mu.Unlock()

	return surface.Post(ErrorOverlay(message, stack))
}

// ClearError dismisses the error overlay and resets the suppression flag.
func (c *Controller) ClearError() error {
	c.mu.Lock()
	surface := c.surface
	c.hasActiveError = false
	c.mu.Unlock()

	if surface == nil {
		return nil
	}
	return surface.Post(ClearErrorOverlay())
}

// Close disposes the surface if present.
func (c *Controller) Close() {
	c.mu.Lock()
	surface := c.surface
	c.mu.Unlock()

	if surface != nil {
		surface.Dispose()
	}
}

// ToggleAutoOpen mutates and persists the auto-open preference.
func (c *Controller) ToggleAutoOpen(enabled bool) {
	c.mu.Lock()
	c.autoOpen = enabled
	settings := c.settings
	c.mu.Unlock()

	if err := settings.SetAutoOpen(enabled); err != nil {
		log.Printf("[panel] failed to persist auto-open preference: %v", err)
	}

	if enabled {
		c.notify("Preview auto-open enabled")
	} else {
		c.notify("Preview auto-open disabled")
	}
}

// route dispatches inbound surface frames.
func (c *Controller) route(msg Message) {
	switch msg.Type {
	case MsgToggleAutoOpen:
		c.ToggleAutoOpen(msg.Enabled)

	case MsgForceReload:
		c.mu.Lock()
		fn := c.onForceReload
		c.mu.Unlock()
		if fn != nil {
			fn()
		}

	case MsgComponentLoadComplete:
		c.mu.Lock()
		if msg.Success {
			c.hasActiveError = false
		}
		fn := c.onLoadComplete
		c.mu.Unlock()
		if fn != nil {
			fn(msg.Success, msg.ComponentName)
		}

	default:
		log.Printf("[panel] unrecognized inbound message type %q", msg.Type)
	}
}

// handleDispose resets controller state when the surface goes away.
func (c *Controller) handleDispose() {
	c.mu.Lock()
	c.surface = nil
	c.current = ""
	c.hasActiveError = false
	c.mu.Unlock()
}
