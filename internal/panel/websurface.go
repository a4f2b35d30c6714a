package panel

import (
	_ "embed"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

//go:embed panel.html
var panelHTML []byte

var upgrader = websocket.Upgrader{
	// The panel server binds to loopback only; cross-origin is not a concern.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSurface is the concrete display surface: a local HTTP server serving
// the embedded panel shell plus a websocket carrying protocol frames.
type WebSurface struct {
	srv *http.Server
	url string

	mu        sync.Mutex
	conns     map[string]*websocket.Conn
	disposed  bool
	inbound   func(Message)
	onDispose func()

	// Retained view state, replayed to each client on connect. The browser
	// always connects after the first frames are posted, so without replay a
	// fresh panel would render blank until the next event.
	lastLoading   *Message
	lastComponent *Message
	lastError     *Message
}

// NewWebSurface starts the surface server on an ephemeral loopback port.
func NewWebSurface(previewPort int, inbound func(Message), onDispose func()) (*WebSurface, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to bind panel port: %w", err)
	}

	ws := &WebSurface{
		conns:     make(map[string]*websocket.Conn),
		inbound:   inbound,
		onDispose: onDispose,
		url:       fmt.Sprintf("http://%s/?preview=%d", ln.Addr().String(), previewPort),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(panelHTML)
	})
	mux.HandleFunc("/ws", ws.handleWS)

	ws.srv = &http.Server{Handler: mux}
	go func() {
		if err := ws.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("[panel] surface server stopped: %v", err)
		}
	}()

	log.Printf("[panel] surface available at %s", ws.url)
	return ws, nil
}

// URL returns the address of the panel page.
func (ws *WebSurface) URL() string {
	return ws.url
}

// handleWS upgrades a browser connection and pumps inbound frames.
func (ws *WebSurface) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[panel] websocket upgrade failed: %v", err)
		return
	}

	id := uuid.New().String()
	ws.mu.Lock()
	if ws.disposed {
		ws.mu.Unlock()
		_ = conn.Close()
		return
	}
	ws.conns[id] = conn
	// Replay under the same lock Post writes under; gorilla connections do
	// not tolerate concurrent writers.
	for _, m := range []*Message{ws.lastLoading, ws.lastComponent, ws.lastError} {
		if m == nil {
			continue
		}
		if err := conn.WriteJSON(*m); err != nil {
			break
		}
	}
	ws.mu.Unlock()

	log.Printf("[panel] surface client connected (%s)", id)

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		if ws.inbound != nil {
			ws.inbound(msg)
		}
	}

	ws.mu.Lock()
	delete(ws.conns, id)
	ws.mu.Unlock()
	_ = conn.Close()
	log.Printf("[panel] surface client disconnected (%s)", id)
}

// Post broadcasts a protocol frame to every connected client and retains
// the frames that make up the current view for late-joining clients.
func (ws *WebSurface) Post(msg Message) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	switch msg.Type {
	case MsgUpdateComponent:
		m := msg
		ws.lastComponent = &m
	case MsgUpdateLoadingState:
		m := msg
		ws.lastLoading = &m
	case MsgError:
		m := msg
		ws.lastError = &m
	case MsgClearError:
		ws.lastError = nil
	}

	var firstErr error
	for id, conn := range ws.conns {
		if err := conn.WriteJSON(msg); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("write to client %s: %w", id, err)
		}
	}
	return firstErr
}

// Reveal opens the panel page in the default browser. Repeated calls just
// re-open the page; the shell itself deduplicates via a shared websocket.
func (ws *WebSurface) Reveal() {
	openBrowser(ws.url)
}

// Dispose closes all clients and the surface server, then fires the disposal
// handler exactly once.
func (ws *WebSurface) Dispose() {
	ws.mu.Lock()
	if ws.disposed {
		ws.mu.Unlock()
		return
	}
	ws.disposed = true
	conns := ws.conns
	ws.conns = make(map[string]*websocket.Conn)
	fn := ws.onDispose
	ws.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
	_ = ws.srv.Close()

	if fn != nil {
		fn()
	}
}

// openBrowser launches the platform's URL opener. Failure is logged, not
// fatal — the URL is always printed so the user can open it by hand.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	if err := cmd.Start(); err != nil {
		log.Printf("[panel] could not open browser: %v (open %s manually)", err, url)
		return
	}
	go func() {
		// Reap the opener; give up after a while so we never leak the wait.
		done := make(chan struct{})
		go func() { _ = cmd.Wait(); close(done) }()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
		}
	}()
}
