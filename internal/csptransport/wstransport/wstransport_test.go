package wstransport

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ocx/csp/internal/csp/status"
)

type echoDispatcher struct{}

func (echoDispatcher) HandleMessage(in []byte, clientID string) ([]byte, status.Status) {
	return append([]byte(nil), in...), status.NoError
}

func dialTestServer(t *testing.T, h *Handler) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestServeHTTPEchoesBinaryFrames(t *testing.T) {
	h := New(echoDispatcher{})
	conn := dialTestServer(t, h)

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{0x01, 0x02, 0x03}); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, reply, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if kind != websocket.BinaryMessage {
		t.Fatalf("kind = %d, want BinaryMessage", kind)
	}
	if string(reply) != "\x01\x02\x03" {
		t.Fatalf("reply = %v", reply)
	}
}

func TestActiveConnectionsTracksLifecycle(t *testing.T) {
	h := New(echoDispatcher{})
	if h.ActiveConnections() != 0 {
		t.Fatalf("ActiveConnections = %d, want 0", h.ActiveConnections())
	}

	conn := dialTestServer(t, h)
	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{0x00}); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if h.ActiveConnections() != 1 {
		t.Fatalf("ActiveConnections = %d, want 1", h.ActiveConnections())
	}

	conn.Close()
	time.Sleep(50 * time.Millisecond)
	if h.ActiveConnections() != 0 {
		t.Fatalf("ActiveConnections = %d, want 0 after close", h.ActiveConnections())
	}
}
