package httptransport

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ocx/csp/internal/csp/status"
)

type stubDispatcher struct {
	gotBody     []byte
	gotClientID string
	reply       []byte
	status      status.Status
}

func (s *stubDispatcher) HandleMessage(in []byte, clientID string) ([]byte, status.Status) {
	s.gotBody = in
	s.gotClientID = clientID
	return s.reply, s.status
}

func TestHandleMessagePostsBodyAndReturnsReply(t *testing.T) {
	stub := &stubDispatcher{reply: []byte{0xAA, 0xBB}, status: status.NoError}
	h := New(stub)

	req := httptest.NewRequest("POST", "/csp", bytes.NewReader([]byte{0x01, 0x02, 0x03}))
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !bytes.Equal(stub.gotBody, []byte{0x01, 0x02, 0x03}) {
		t.Fatalf("gotBody = %v", stub.gotBody)
	}
	if stub.gotClientID == "" {
		t.Fatal("expected a minted client id")
	}
	if !bytes.Equal(rec.Body.Bytes(), []byte{0xAA, 0xBB}) {
		t.Fatalf("reply body = %v", rec.Body.Bytes())
	}
	if rec.Header().Get(clientIDHeader) != stub.gotClientID {
		t.Fatalf("reply client id header mismatch")
	}
}

func TestHandleMessageHonorsClientIDHeader(t *testing.T) {
	stub := &stubDispatcher{reply: []byte{}, status: status.NoError}
	h := New(stub)

	req := httptest.NewRequest("POST", "/csp", bytes.NewReader(nil))
	req.Header.Set(clientIDHeader, "fixed-client-id")
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if stub.gotClientID != "fixed-client-id" {
		t.Fatalf("gotClientID = %q, want fixed-client-id", stub.gotClientID)
	}
}

func TestHandleMessageErrorWithNoReplyIsBadRequest(t *testing.T) {
	stub := &stubDispatcher{reply: nil, status: status.ErrorDataCorrupted}
	h := New(stub)

	req := httptest.NewRequest("POST", "/csp", bytes.NewReader([]byte{0x00}))
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	h := New(&stubDispatcher{})
	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
