// Package wstransport frames the CSP dispatcher over a persistent
// WebSocket connection: one binary WS message in, one binary WS message
// out, reusing the connection across calls instead of the HTTP
// transport's one-shot request/response. Grounded on the teacher's
// internal/websocket.DAGStreamer, which owns a websocket.Upgrader and a
// register/unregister bookkeeping loop; this package keeps that
// connection-lifecycle shape but replaces the fan-out broadcast loop with
// a per-connection read/dispatch/write loop, since CSP clients expect a
// reply to their own request rather than a shared event stream.
package wstransport

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/ocx/csp/internal/csp/idgen"
	"github.com/ocx/csp/internal/csp/status"
)

// MessageHandler is the narrow slice of server.Server this transport
// depends on.
type MessageHandler interface {
	HandleMessage(in []byte, clientID string) ([]byte, status.Status)
}

// Handler upgrades incoming HTTP connections to WebSocket and dispatches
// every binary frame received on them through a MessageHandler.
type Handler struct {
	dispatcher MessageHandler
	upgrader   websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*websocket.Conn
}

// New wraps dispatcher behind WebSocket framing. CheckOrigin is
// permissive, matching the teacher's development-mode upgrader; a
// production deployment should tighten it at the cmd/cspserver call
// site.
func New(dispatcher MessageHandler) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*websocket.Conn),
	}
}

// ServeHTTP upgrades the connection and runs its read/dispatch loop until
// the client disconnects or sends a close frame.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("csp ws: upgrade error: %v", err)
		return
	}

	clientID := idgen.NewClientID()
	h.mu.Lock()
	h.clients[clientID] = conn
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, clientID)
		h.mu.Unlock()
		conn.Close()
	}()

	for {
		kind, in, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.BinaryMessage {
			continue
		}

		reply, st := h.dispatcher.HandleMessage(in, clientID)
		if st != status.NoError && len(reply) == 0 {
			log.Printf("csp ws: HandleMessage failed for client %s with no reply: %v", clientID, st)
			continue
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, reply); err != nil {
			log.Printf("csp ws: write error for client %s: %v", clientID, err)
			return
		}
	}
}

// ActiveConnections reports how many clients are currently attached.
func (h *Handler) ActiveConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
