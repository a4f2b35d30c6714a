package panel

import (
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestSurface(t *testing.T) *WebSurface {
	t.Helper()
	ws, err := NewWebSurface(3333, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(ws.Dispose)
	return ws
}

func dialSurface(t *testing.T, ws *WebSurface) *websocket.Conn {
	t.Helper()
	addr := strings.TrimPrefix(ws.URL(), "http://")
	if i := strings.IndexByte(addr, '/'); i >= 0 {
		addr = addr[:i]
	}
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("reading frame: %v", err)
	}
	return msg
}

func TestLateJoiningClientReceivesCurrentComponent(t *testing.T) {
	ws := newTestSurface(t)

	if err := ws.Post(UpdateComponent("button")); err != nil {
		t.Fatal(err)
	}

	conn := dialSurface(t, ws)
	msg := readFrame(t, conn)
	if msg.Type != MsgUpdateComponent || msg.ComponentName != "button" {
		t.Fatalf("first frame = %+v, want updateComponent button", msg)
	}
}

func TestLateJoiningClientReceivesLoadingThenError(t *testing.T) {
	ws := newTestSurface(t)

	if err := ws.Post(LoadingState(false, "")); err != nil {
		t.Fatal(err)
	}
	if err := ws.Post(UpdateComponent("card")); err != nil {
		t.Fatal(err)
	}
	if err := ws.Post(ErrorOverlay("Unexpected token", "at card.js:3")); err != nil {
		t.Fatal(err)
	}

	conn := dialSurface(t, ws)
	wantTypes := []string{MsgUpdateLoadingState, MsgUpdateComponent, MsgError}
	for _, want := range wantTypes {
		if msg := readFrame(t, conn); msg.Type != want {
			t.Fatalf("frame type = %q, want %q", msg.Type, want)
		}
	}
}

func TestClearedErrorIsNotReplayed(t *testing.T) {
	ws := newTestSurface(t)

	if err := ws.Post(ErrorOverlay("boom", "")); err != nil {
		t.Fatal(err)
	}
	if err := ws.Post(ClearErrorOverlay()); err != nil {
		t.Fatal(err)
	}
	if err := ws.Post(UpdateComponent("button")); err != nil {
		t.Fatal(err)
	}

	conn := dialSurface(t, ws)
	msg := readFrame(t, conn)
	if msg.Type != MsgUpdateComponent {
		t.Fatalf("first frame = %+v, want updateComponent", msg)
	}

	// Nothing else should follow: the cleared error must not be replayed.
	_ = conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var extra Message
	if err := conn.ReadJSON(&extra); err == nil {
		t.Fatalf("unexpected extra frame %+v", extra)
	}
}
