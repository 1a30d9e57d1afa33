// Package httptransport frames the CSP dispatcher behind a plain HTTP
// POST endpoint. Grounded on the teacher's internal/api.APIServer, which
// builds a mux.Router, attaches a permissive CORS middleware, and wires
// one HandleFunc per route; this package keeps that shape but has a
// single route carrying opaque CSP frames instead of JSON REST bodies.
package httptransport

import (
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ocx/csp/internal/csp/idgen"
	"github.com/ocx/csp/internal/csp/status"
)

// MessageHandler is the narrow slice of server.Server this transport
// depends on, so tests can substitute a stub dispatcher.
type MessageHandler interface {
	HandleMessage(in []byte, clientID string) ([]byte, status.Status)
}

// Handler exposes a MessageHandler as an HTTP endpoint.
type Handler struct {
	dispatcher MessageHandler
}

// New wraps dispatcher behind HTTP framing.
func New(dispatcher MessageHandler) *Handler {
	return &Handler{dispatcher: dispatcher}
}

// Router builds the mux.Router the teacher's Start(port int) constructs
// inline; split out here so cmd/cspserver can attach it to its own
// http.Server and control the listen lifecycle itself.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(corsMiddleware)
	r.HandleFunc("/csp", h.handleMessage).Methods("POST")
	r.HandleFunc("/healthz", h.handleHealthz).Methods("GET")
	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Csp-Client-Id")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIDHeader lets a caller pin its own identity across requests; a
// fresh one is minted when absent, matching a one-shot anonymous client.
const clientIDHeader = "X-Csp-Client-Id"

func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	clientID := r.Header.Get(clientIDHeader)
	if clientID == "" {
		clientID = idgen.NewClientID()
	}

	reply, st := h.dispatcher.HandleMessage(body, clientID)
	if st != status.NoError && len(reply) == 0 {
		log.Printf("csp http: HandleMessage failed with no reply: %v", st)
		http.Error(w, st.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set(clientIDHeader, clientID)
	if _, err := w.Write(reply); err != nil {
		log.Printf("csp http: failed to write reply: %v", err)
	}
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
