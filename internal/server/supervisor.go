// Package server supervises the local preview server process.
package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
)

// State is the supervisor's view of the preview server.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateReady
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateErrored:
		return "errored"
	}
	return "unknown"
}

// readinessSignatures are the stdout substrings that prove the server has
// bound its port and begun serving. Output scraping is the only readiness
// signal the server offers; there is no structured IPC.
var readinessSignatures = []string{
	"Server up on",
	"Listening on",
	"Application available at",
}

// Timing constants for stop/start cycles and readiness waits.
const (
	DebounceInterval = 300 * time.Millisecond
	SettleDelay      = 1 * time.Second
	ReadyPollEvery   = 500 * time.Millisecond
	ReadyWaitCeiling = 30 * time.Second
	stopGracePeriod  = 2 * time.Second
)

// ErrStartTimeout is returned when readiness is not observed before the
// ceiling elapses. The underlying process is not necessarily dead.
var ErrStartTimeout = errors.New("preview server did not become ready in time")

// Supervisor owns at most one preview server process at a time.
type Supervisor struct {
	projectRoot string
	port        int

	mu         sync.Mutex
	cmd        *exec.Cmd
	state      State
	done       chan struct{}
	readyFired bool
	restarting bool

	deb *debouncer

	// newCmd builds the server command; replaceable in tests.
	newCmd func() *exec.Cmd

	onReady func()
	onError func(*ServerError)
	onExit  func()
}

// New creates a supervisor for the runtime project at projectRoot, serving
// on the given port. No process is spawned until Start.
func New(projectRoot string, port int) *Supervisor {
	s := &Supervisor{
		projectRoot: projectRoot,
		port:        port,
		state:       StateStopped,
	}
	s.newCmd = func() *exec.Cmd {
		cmd := exec.Command("npm", "run", "dev", "--", "--port", fmt.Sprintf("%d", port))
		cmd.Dir = projectRoot
		return cmd
	}
	s.deb = newDebouncer(DebounceInterval, s.classifyAndNotify)
	return s
}

// SetOnReady registers a callback fired once per start cycle when the
// readiness signature first appears on stdout.
func (s *Supervisor) SetOnReady(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReady = fn
}

// SetOnError registers a callback fired with each classified stderr error.
func (s *Supervisor) SetOnError(fn func(*ServerError)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = fn
}

// SetOnExit registers a callback fired when the server process terminates
// for any reason.
func (s *Supervisor) SetOnExit(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExit = fn
}

// State returns the current server state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsReady reports whether the readiness signature has been observed and the
// process is still tracked.
func (s *Supervisor) IsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateReady || s.state == StateErrored
}

// Start spawns the preview server. A start request while a process is
// already tracked is a no-op.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	if s.cmd != nil {
		s.mu.Unlock()
		return nil
	}

	cmd := s.newCmd()
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to start preview server: %w", err)
	}

	s.cmd = cmd
	s.state = StateStarting
	s.readyFired = false
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	log.Printf("[server] preview server started (pid %d, port %d)", cmd.Process.Pid, s.port)

	go s.scanStdout(stdout)
	go s.scanStderr(stderr)
	go s.monitor(cmd, done)

	return nil
}

// scanStdout watches stdout line by line for a readiness signature.
// The status callback fires exactly once per start cycle; later matches are
// no-ops.
func (s *Supervisor) scanStdout(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if !matchesReadiness(line) {
			continue
		}

		s.mu.Lock()
		if s.readyFired || s.state != StateStarting {
			s.mu.Unlock()
			continue
		}
		s.state = StateReady
		s.readyFired = true
		fn := s.onReady
		s.mu.Unlock()

		log.Printf("[server] readiness signature observed: %q", line)
		if fn != nil {
			fn()
		}
	}
}

// scanStderr feeds matching stderr lines into the debouncer. Non-matching
// lines are discarded without a callback.
func (s *Supervisor) scanStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !IsErrorChunk(line) {
			continue
		}
		s.deb.Hit(line)
	}
}

// classifyAndNotify runs when the debounce window closes. Only the last
// chunk of the burst is classified; unrecognized chunks are dropped.
func (s *Supervisor) classifyAndNotify(chunk string) {
	serr := Classify(chunk)
	if serr == nil {
		return
	}

	s.mu.Lock()
	// The process stays alive; only the displayed state flips to errored.
	if s.state == StateReady {
		s.state = StateErrored
	}
	fn := s.onError
	s.mu.Unlock()

	log.Printf("[server] classified %s error: %s", serr.Category, serr.Message)
	if fn != nil {
		fn(serr)
	}
}

// ClearError returns the displayed state from errored back to ready.
// Called after a successful component load.
func (s *Supervisor) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateErrored {
		s.state = StateReady
	}
}

// monitor waits for the process to exit and resets state.
func (s *Supervisor) monitor(cmd *exec.Cmd, done chan struct{}) {
	err := cmd.Wait()

	s.mu.Lock()
	if s.cmd == cmd {
		s.cmd = nil
		s.state = StateStopped
		s.readyFired = false
	}
	fn := s.onExit
	s.mu.Unlock()

	s.deb.Cancel()
	close(done)

	if err != nil {
		log.Printf("[server] preview server exited: %v", err)
	} else {
		log.Printf("[server] preview server exited cleanly")
	}
	if fn != nil {
		fn()
	}
}

// Stop terminates the tracked process, cancels any pending error debounce,
// and resets state. Idempotent.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	cmd := s.cmd
	done := s.done
	s.mu.Unlock()

	s.deb.Cancel()

	if cmd == nil || cmd.Process == nil {
		return
	}

	// Kill the whole process group: npm spawns the actual server as a child.
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)

	select {
	case <-done:
	case <-time.After(stopGracePeriod):
		_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		<-done
	}
}

// Restart stops the server, waits for the OS to release the port, starts a
// fresh process, and polls for readiness up to the ceiling. A restart
// request while another restart's readiness wait is in flight is rejected
// as a no-op rather than racing it.
func (s *Supervisor) Restart() error {
	s.mu.Lock()
	if s.restarting {
		s.mu.Unlock()
		return nil
	}
	s.restarting = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.restarting = false
		s.mu.Unlock()
	}()

	log.Printf("[server] restarting preview server")
	s.Stop()
	time.Sleep(SettleDelay)

	if err := s.Start(); err != nil {
		return err
	}
	return s.WaitReady(ReadyWaitCeiling)
}

// WaitReady polls IsReady at a fixed interval until it is true or the
// timeout elapses. On timeout the process is left running.
func (s *Supervisor) WaitReady(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if s.IsReady() {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrStartTimeout
		}
		time.Sleep(ReadyPollEvery)
	}
}

func matchesReadiness(line string) bool {
	for _, sig := range readinessSignatures {
		if strings.Contains(line, sig) {
			return true
		}
	}
	return false
}
