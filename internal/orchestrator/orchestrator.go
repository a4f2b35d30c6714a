// Package orchestrator sequences activation and runs the watch loop that
// reacts to file changes, editor focus changes, and user commands.
package orchestrator

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/lwcdev-io/lwcdev/internal/component"
	"github.com/lwcdev-io/lwcdev/internal/config"
	"github.com/lwcdev-io/lwcdev/internal/panel"
	"github.com/lwcdev-io/lwcdev/internal/server"
	syncer "github.com/lwcdev-io/lwcdev/internal/sync"
	"github.com/lwcdev-io/lwcdev/internal/watcher"
	"github.com/lwcdev-io/lwcdev/internal/workspace"
)

// Phase is the orchestrator's lifecycle state.
type Phase int

const (
	PhaseInactive Phase = iota
	PhaseCheckingProject
	PhaseSettingUp
	PhaseInstallingDeps
	PhaseStartingServer
	PhaseSyncingInitial
	PhaseWatching
	PhaseNotApplicable
	PhaseSetupFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseInactive:
		return "inactive"
	case PhaseCheckingProject:
		return "checking project"
	case PhaseSettingUp:
		return "setting up"
	case PhaseInstallingDeps:
		return "installing dependencies"
	case PhaseStartingServer:
		return "starting server"
	case PhaseSyncingInitial:
		return "syncing components"
	case PhaseWatching:
		return "watching"
	case PhaseNotApplicable:
		return "not applicable"
	case PhaseSetupFailed:
		return "setup failed"
	default:
		return "unknown"
	}
}

const (
	// reloadStabilizeDelay gives the restarted server time to finish its
	// first compile pass before the panel points at it again.
	reloadStabilizeDelay = 1 * time.Second

	// notificationLimit truncates server error text in transient
	// notifications; the full text goes to the panel overlay and the log.
	notificationLimit = 120
)

// Notifier surfaces user-facing messages.
type Notifier interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
	ErrorWithRetry(msg string, retry func())
}

// StatusIndicator reflects the current phase in the host UI.
type StatusIndicator interface {
	Set(text string)
}

// ServerSupervisor is the slice of the server package the orchestrator
// drives. Satisfied by *server.Supervisor.
type ServerSupervisor interface {
	Start() error
	Stop()
	Restart() error
	WaitReady(timeout time.Duration) error
	IsReady() bool
	ClearError()
	SetOnReady(fn func())
	SetOnError(fn func(*server.ServerError))
	SetOnExit(fn func())
}

// PreviewPanel is the slice of the panel package the orchestrator drives.
// Satisfied by *panel.Controller.
type PreviewPanel interface {
	Show(id *component.Identity, serverReady bool) error
	ServerReady() error
	SendError(message, stack string) error
	Close()
	Exists() bool
	Current() string
	AutoOpen() bool
	SetOnForceReload(fn func())
	SetOnLoadComplete(fn func(success bool, componentName string))
}

// FileWatcher is the slice of the watcher package the orchestrator drives.
// Satisfied by *watcher.Watcher.
type FileWatcher interface {
	Start() error
	Stop()
	Events() <-chan watcher.Event
}

// Orchestrator owns the shared mutable session state. All of it is touched
// only from the event loop goroutine; external entry points post closures
// onto the loop instead of mutating directly.
type Orchestrator struct {
	workspaceRoot string
	version       string
	notifier      Notifier
	status        StatusIndicator

	server ServerSupervisor
	panel  PreviewPanel
	watch  FileWatcher

	// construction seams, replaced in tests
	newServer   func(projectRoot string, port int) ServerSupervisor
	newPanel    func(previewPort int, settings panel.SettingsStore) PreviewPanel
	newWatcher  func(root string) (FileWatcher, error)
	materialize func(version string) (string, error)
	staleCaches func(version string) ([]string, error)
	ensureDeps  func(projectRoot string) error

	projectRoot      string
	phase            Phase
	active           *component.Identity
	isForceReloading bool
	syncInProgress   bool

	events chan func()
	done   chan struct{}
}

// New creates an orchestrator for the given workspace root.
func New(workspaceRoot, version string, notifier Notifier, status StatusIndicator) *Orchestrator {
	o := &Orchestrator{
		workspaceRoot: workspaceRoot,
		version:       version,
		notifier:      notifier,
		status:        status,
		phase:         PhaseInactive,
		events:        make(chan func(), 64),
		done:          make(chan struct{}),
	}

	o.newServer = func(projectRoot string, port int) ServerSupervisor {
		return server.New(projectRoot, port)
	}
	o.newPanel = func(previewPort int, settings panel.SettingsStore) PreviewPanel {
		factory := func(inbound func(panel.Message), onDispose func()) (panel.Surface, error) {
			return panel.NewWebSurface(previewPort, inbound, onDispose)
		}
		return panel.NewController(factory, settings, notifier.Info)
	}
	o.newWatcher = func(root string) (FileWatcher, error) {
		return watcher.New(root)
	}
	o.materialize = workspace.Materialize
	o.staleCaches = workspace.StaleCaches
	o.ensureDeps = server.EnsureDependencies

	return o
}

// Phase returns the current lifecycle phase. Only safe to call before
// Activate or after Deactivate, or from within posted events.
func (o *Orchestrator) Phase() Phase {
	return o.phase
}

// Activate runs the setup sequence and, on success, starts the watch loop.
// Any setup-stage failure is terminal; the caller must surface it and the
// session stays down until the tool is relaunched.
func (o *Orchestrator) Activate() error {
	o.setPhase(PhaseCheckingProject)
	if !config.IsWorkspace(o.workspaceRoot) {
		o.setPhase(PhaseNotApplicable)
		log.Printf("[orchestrator] %s is not an SFDX workspace; preview disabled", o.workspaceRoot)
		return nil
	}

	if err := config.EnsureWorkspaceDir(o.workspaceRoot); err != nil {
		return o.setupFailed(fmt.Errorf("preparing workspace state dir: %w", err))
	}

	settings, err := config.NewSettingsStore(o.workspaceRoot)
	if err != nil {
		return o.setupFailed(fmt.Errorf("loading settings: %w", err))
	}

	o.setPhase(PhaseSettingUp)
	projectRoot, err := o.materialize(o.version)
	if err != nil {
		return o.setupFailed(err)
	}
	o.projectRoot = projectRoot
	o.reportStaleCaches()

	o.setPhase(PhaseInstallingDeps)
	if err := o.ensureDeps(projectRoot); err != nil {
		return o.setupFailed(err)
	}

	o.setPhase(PhaseStartingServer)
	o.server = o.newServer(projectRoot, settings.PreviewPort())
	o.panel = o.newPanel(settings.PreviewPort(), settings)
	o.wireCallbacks()
	if err := o.server.Start(); err != nil {
		return o.setupFailed(err)
	}

	o.setPhase(PhaseSyncingInitial)
	o.syncInProgress = true
	stats, syncErr := syncer.MirrorDirectory(o.sourceRoot(), o.destRoot())
	o.syncInProgress = false
	if syncErr != nil {
		// One notification for the whole bulk sync, never one per file.
		o.notifier.Warn(fmt.Sprintf("Some components failed to sync: %v", syncErr))
	}
	o.notifier.Info(fmt.Sprintf("Components synced: %d copied, %d up to date", stats.Copied, stats.Skipped))

	w, err := o.newWatcher(o.sourceRoot())
	if err != nil {
		return o.setupFailed(fmt.Errorf("starting file watcher: %w", err))
	}
	o.watch = w
	if err := o.watch.Start(); err != nil {
		return o.setupFailed(fmt.Errorf("starting file watcher: %w", err))
	}

	o.setPhase(PhaseWatching)
	go o.loop()
	return nil
}

// Deactivate tears the session down: watcher, panel, server, event loop.
func (o *Orchestrator) Deactivate() {
	if o.watch != nil {
		o.watch.Stop()
	}
	if o.panel != nil {
		o.panel.Close()
	}
	if o.server != nil {
		o.server.Stop()
	}
	close(o.done)
	o.setPhase(PhaseInactive)
}

// ActiveFileChanged reports that the editor's focused file changed.
func (o *Orchestrator) ActiveFileChanged(path string) {
	o.post(func() { o.handleActiveFile(path) })
}

// TogglePreview opens the panel on the active component, or closes it.
// In the NotApplicable terminal state no event loop is running, so the
// stub warning is produced directly.
func (o *Orchestrator) TogglePreview() {
	if o.phase == PhaseNotApplicable {
		o.notifier.Warn("This workspace is not an SFDX project; LWC preview is unavailable")
		return
	}
	o.post(o.handleToggle)
}

// ForceReload restarts the preview server and reopens the panel.
func (o *Orchestrator) ForceReload() {
	o.post(o.doForceReload)
}

func (o *Orchestrator) setupFailed(err error) error {
	// A failure after StartingServer would otherwise leak the npm process
	// group: the caller never reaches its Deactivate defer on error.
	if o.server != nil {
		o.server.Stop()
	}
	o.setPhase(PhaseSetupFailed)
	o.notifier.Error(fmt.Sprintf("LWC preview setup failed: %v", err))
	return err
}

func (o *Orchestrator) setPhase(p Phase) {
	o.phase = p
	o.status.Set(p.String())
	log.Printf("[orchestrator] phase: %s", p)
}

func (o *Orchestrator) sourceRoot() string {
	return config.SourceRoot(o.workspaceRoot)
}

func (o *Orchestrator) destRoot() string {
	return config.RuntimeModulesDir(o.projectRoot)
}

func (o *Orchestrator) reportStaleCaches() {
	stale, err := o.staleCaches(o.version)
	if err != nil || len(stale) == 0 {
		return
	}
	for _, dir := range stale {
		log.Printf("[orchestrator] stale template cache from another version: %s", dir)
	}
	o.notifier.Info(fmt.Sprintf("%d template cache(s) from other versions can be removed", len(stale)))
}

// wireCallbacks connects supervisor and panel callbacks to the event loop.
// Callbacks arrive on supervisor/surface goroutines and are serialized here.
func (o *Orchestrator) wireCallbacks() {
	o.server.SetOnReady(func() {
		o.post(func() {
			if o.panel.Exists() {
				if err := o.panel.ServerReady(); err != nil {
					log.Printf("[orchestrator] panel refresh after ready: %v", err)
				}
			}
		})
	})
	o.server.SetOnError(func(e *server.ServerError) {
		o.post(func() { o.handleServerError(e) })
	})
	o.server.SetOnExit(func() {
		o.post(func() {
			if o.phase == PhaseWatching && !o.isForceReloading {
				o.notifier.Warn("Preview server exited unexpectedly; use force reload to restart it")
			}
		})
	})
	o.panel.SetOnForceReload(func() {
		o.post(o.doForceReload)
	})
	o.panel.SetOnLoadComplete(func(success bool, componentName string) {
		o.post(func() {
			if success {
				o.server.ClearError()
			}
		})
	})
}

// post queues fn on the event loop. Drops the event if the session is done.
func (o *Orchestrator) post(fn func()) {
	select {
	case o.events <- fn:
	case <-o.done:
	}
}

// loop is the single goroutine that owns all session state mutation.
func (o *Orchestrator) loop() {
	for {
		select {
		case <-o.done:
			return
		case fn := <-o.events:
			fn()
		case ev, ok := <-o.watch.Events():
			if !ok {
				return
			}
			o.handleFileEvent(ev)
		}
	}
}

// handleFileEvent mirrors one watched change into the runtime tree. Failures
// are logged and skipped; the watch loop never halts on a sync error.
func (o *Orchestrator) handleFileEvent(ev watcher.Event) {
	id := component.Resolve(ev.Path)
	if id == nil {
		return
	}

	srcDir := component.ResolveDir(ev.Path)
	destDir := filepath.Join(o.destRoot(), id.Name)

	if ev.Removed {
		o.handleRemoval(ev.Path, id, srcDir, destDir)
		return
	}

	if ev.Path == srcDir {
		// Whole component appeared (created or restored).
		if _, err := syncer.MirrorDirectory(srcDir, destDir); err != nil {
			log.Printf("[orchestrator] sync %s: %v", id.Name, err)
		}
		return
	}

	rel, err := filepath.Rel(srcDir, ev.Path)
	if err != nil {
		return
	}
	dest := filepath.Join(destDir, rel)
	ok, err := syncer.ShouldCopy(ev.Path, dest)
	if err != nil || !ok {
		if err != nil {
			log.Printf("[orchestrator] sync %s: %v", ev.Path, err)
		}
		return
	}
	if err := syncer.CopyFile(ev.Path, dest); err != nil {
		log.Printf("[orchestrator] sync %s: %v", ev.Path, err)
	}
}

// handleRemoval deletes the runtime mirror of a removed source path. When
// the whole component is gone and it is the one on screen, the panel closes
// rather than pointing at a component the server can no longer serve.
func (o *Orchestrator) handleRemoval(path string, id *component.Identity, srcDir, destDir string) {
	if path == srcDir || !dirExists(srcDir) {
		if err := syncer.DeleteSubtree(destDir); err != nil {
			log.Printf("[orchestrator] delete %s: %v", destDir, err)
		}
		if o.panel.Exists() && o.panel.Current() == id.Name {
			o.panel.Close()
			o.notifier.Warn(fmt.Sprintf("Component %s was deleted; preview closed", id.Name))
		}
		return
	}

	rel, err := filepath.Rel(srcDir, path)
	if err != nil {
		return
	}
	if err := syncer.DeleteFile(filepath.Join(destDir, rel)); err != nil {
		log.Printf("[orchestrator] delete %s: %v", path, err)
	}
}

// handleActiveFile tracks editor focus and keeps the panel on the focused
// component. Suppressed during force reload so the panel is not reopened
// against a server mid-restart.
func (o *Orchestrator) handleActiveFile(path string) {
	if o.isForceReloading || o.phase != PhaseWatching {
		return
	}

	id := component.Resolve(path)
	if id == nil {
		return
	}
	o.active = id

	if o.panel.Exists() {
		if o.panel.Current() == id.Name {
			return
		}
		if err := o.panel.Show(id, o.server.IsReady()); err != nil {
			log.Printf("[orchestrator] panel update: %v", err)
		}
		return
	}

	// openPanel waits for readiness (bounded) itself, so a focus event that
	// lands while the server is still starting opens the panel once it is up.
	if o.panel.AutoOpen() && component.IsComplete(component.ResolveDir(path), id.Name) {
		o.openPanel(id)
	}
}

// handleToggle implements the one user-facing command.
func (o *Orchestrator) handleToggle() {
	if o.panel.Exists() {
		o.panel.Close()
		return
	}
	if o.phase != PhaseWatching || !o.server.IsReady() {
		o.notifier.Warn("Preview server is still starting; try again shortly")
		return
	}
	if o.active == nil {
		o.notifier.Warn("Open a Lightning web component file first")
		return
	}
	dir := filepath.Join(o.sourceRoot(), o.active.Name)
	if !component.IsComplete(dir, o.active.Name) {
		o.notifier.Warn(fmt.Sprintf("Component %s needs both .html and .js files to preview", o.active.Name))
		return
	}
	o.openPanel(o.active)
}

// openPanel renders the live view, awaiting readiness bounded first.
func (o *Orchestrator) openPanel(id *component.Identity) {
	if err := o.server.WaitReady(server.ReadyWaitCeiling); err != nil {
		o.notifier.Warn("Preview server is not responding; use force reload to restart it")
		return
	}
	if err := o.panel.Show(id, true); err != nil {
		o.notifier.Warn(fmt.Sprintf("Could not open preview: %v", err))
	}
}

// doForceReload is the nested restart sequence entered from the watch loop.
// It runs on the event loop; handleActiveFile is additionally guarded so a
// queued focus event cannot reopen the panel between its steps.
func (o *Orchestrator) doForceReload() {
	if o.isForceReloading {
		return
	}
	o.isForceReloading = true
	defer func() { o.isForceReloading = false }()

	shown := o.panel.Current()
	o.panel.Close()

	if err := o.server.Restart(); err != nil {
		o.notifier.ErrorWithRetry(
			fmt.Sprintf("Preview server restart failed: %v", err),
			o.ForceReload,
		)
		return
	}
	time.Sleep(reloadStabilizeDelay)

	if shown == "" {
		return
	}
	dir := filepath.Join(o.sourceRoot(), shown)
	if !component.IsComplete(dir, shown) {
		o.notifier.Warn(fmt.Sprintf("Component %s is no longer complete; preview left closed", shown))
		return
	}
	id := &component.Identity{Name: shown, ModulePath: component.ModulePrefix + "/" + shown}
	if err := o.panel.Show(id, true); err != nil {
		o.notifier.Warn(fmt.Sprintf("Could not reopen preview: %v", err))
	}
}

// handleServerError surfaces a classified runtime error on every channel:
// panel overlay, transient notification, session error log.
func (o *Orchestrator) handleServerError(e *server.ServerError) {
	if o.panel.Exists() {
		if err := o.panel.SendError(e.Message, e.Stack); err != nil {
			log.Printf("[orchestrator] error overlay: %v", err)
		}
	}
	o.notifier.Warn("LWC error: " + truncate(e.Message, notificationLimit))
	if err := config.AppendServerError(o.workspaceRoot, string(e.Category), e.Message, e.Stack); err != nil {
		log.Printf("[orchestrator] error log: %v", err)
	}
}

// truncate shortens s to limit runes, never splitting a multi-byte sequence.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "…"
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
