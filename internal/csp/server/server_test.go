package server

import (
	"bytes"
	"io"
	"testing"

	"github.com/ocx/csp/internal/csp/body"
	"github.com/ocx/csp/internal/csp/context"
	"github.com/ocx/csp/internal/csp/primitive"
	"github.com/ocx/csp/internal/csp/settings"
	"github.com/ocx/csp/internal/csp/status"
	"github.com/ocx/csp/internal/csp/statusmsg"
	"github.com/ocx/csp/internal/csp/wire"
)

// echoPayload is a minimal registered struct: one int32 field, echoed back
// by echoHandler unchanged.
type echoPayload struct{ Value int32 }

func (echoPayload) StructID() context.StructID            { return context.StructID{0xEC} }
func (echoPayload) LatestVersion() uint32                 { return 1 }
func (echoPayload) MinSupportedVersion() uint32           { return 1 }
func (echoPayload) MandatoryDataFlags() context.DataFlags { return 0 }
func (echoPayload) ForbiddenDataFlags() context.DataFlags { return 0 }
func (echoPayload) Category() body.LayoutCategory         { return body.NotSimplyAssignable }

func (p echoPayload) SerializeFields(w io.Writer, ctx *context.DataContext) status.Status {
	return primitive.WriteFixed(w, p.Value, ctx.Common.CommonFlags.EndiannessNotMatch())
}

func (p *echoPayload) DeserializeFields(r io.Reader, ctx *context.DataContext) status.Status {
	return primitive.ReadFixed(r, &p.Value, ctx.Common.CommonFlags.EndiannessNotMatch())
}

type echoHandler struct{ calls int }

func (h *echoHandler) MinInputInterfaceVersion() uint32 { return 1 }
func (h *echoHandler) InputMeta() context.StructMeta    { return echoPayload{} }
func (h *echoHandler) OutputMeta() context.StructMeta   { return echoPayload{} }

func (h *echoHandler) HandleData(clientID string, ctx *context.DataContext, r io.Reader, w io.Writer) status.Status {
	h.calls++
	var in echoPayload
	if st := body.Deserialize(&in, ctx, r); st != status.NoError {
		return st
	}
	return body.Serialize(&in, ctx, w)
}

func newTestServer() (*Server, *echoHandler) {
	s := New(settings.PartySettings{SupportedProtocolVersions: []uint16{1}}, 1, 1, []uint8{1})
	h := &echoHandler{}
	s.Registrar.RegisterHandler(echoPayload{}.StructID(), false, "svc-echo", h)
	return s, h
}

func buildDataFrame(t *testing.T, value int32) []byte {
	t.Helper()
	common := context.CommonHeader{ProtocolVersion: 1, MessageKind: context.KindData}
	var buf bytes.Buffer
	if st := common.Serialize(&buf); st != status.NoError {
		t.Fatalf("common.Serialize: %v", st)
	}
	dataHeader := context.DataHeader{StructID: echoPayload{}.StructID(), InterfaceVersion: 1}
	if st := dataHeader.Serialize(&buf); st != status.NoError {
		t.Fatalf("dataHeader.Serialize: %v", st)
	}
	ctx, st := context.New(common, dataHeader, nil)
	if st != status.NoError {
		t.Fatalf("context.New: %v", st)
	}
	payload := echoPayload{Value: value}
	if st := body.Serialize(&payload, ctx, &buf); st != status.NoError {
		t.Fatalf("body.Serialize: %v", st)
	}
	return buf.Bytes()
}

func TestHandleMessageEchoesData(t *testing.T) {
	s, h := newTestServer()
	frame := buildDataFrame(t, 42)

	reply, st := s.HandleMessage(frame, "client-1")
	if st != status.NoError {
		t.Fatalf("HandleMessage: %v", st)
	}
	if h.calls != 1 {
		t.Fatalf("handler calls = %d, want 1", h.calls)
	}

	src := wire.NewSource(reply)
	common, st := context.DeserializeCommonHeader(src)
	if st != status.NoError {
		t.Fatalf("DeserializeCommonHeader: %v", st)
	}
	if common.MessageKind != context.KindData {
		t.Fatalf("reply MessageKind = %v, want KindData", common.MessageKind)
	}
	replyHeader, st := context.DeserializeDataHeaderNoChecks(src)
	if st != status.NoError {
		t.Fatalf("DeserializeDataHeaderNoChecks: %v", st)
	}
	if replyHeader.StructID != (echoPayload{}).StructID() {
		t.Fatalf("reply StructID = %v, want echoPayload's", replyHeader.StructID)
	}
	replyCtx, st := context.New(common, replyHeader, nil)
	if st != status.NoError {
		t.Fatalf("context.New: %v", st)
	}
	var got echoPayload
	if st := body.Deserialize(&got, replyCtx, src); st != status.NoError {
		t.Fatalf("body.Deserialize reply payload: %v", st)
	}
	if got.Value != 42 {
		t.Fatalf("reply Value = %d, want 42", got.Value)
	}
}

func TestHandleMessageUnsupportedProtocolVersion(t *testing.T) {
	s, _ := newTestServer()
	common := context.CommonHeader{ProtocolVersion: 9, MessageKind: context.KindData}
	var buf bytes.Buffer
	common.Serialize(&buf)

	reply, st := s.HandleMessage(buf.Bytes(), "client-1")
	if st != status.ErrorNotSupportedProtocolVersion {
		t.Fatalf("HandleMessage = %v, want ErrorNotSupportedProtocolVersion", st)
	}
	src := wire.NewSource(reply)
	if _, hst := context.DeserializeCommonHeader(src); hst != status.NoError {
		t.Fatalf("DeserializeCommonHeader: %v", hst)
	}
	msg, dst := statusmsg.Deserialize(src)
	if dst != status.NoError {
		t.Fatalf("statusmsg.Deserialize: %v", dst)
	}
	if msg.Code != status.ErrorNotSupportedProtocolVersion {
		t.Fatalf("reply code = %v, want ErrorNotSupportedProtocolVersion", msg.Code)
	}
}

func TestHandleMessageGetSettings(t *testing.T) {
	s, _ := newTestServer()
	common := context.CommonHeader{ProtocolVersion: 1, MessageKind: context.KindGetSettings}
	var buf bytes.Buffer
	common.Serialize(&buf)

	reply, st := s.HandleMessage(buf.Bytes(), "client-1")
	if st != status.NoError {
		t.Fatalf("HandleMessage: %v", st)
	}
	replyCommon, st := context.DeserializeCommonHeader(bytes.NewReader(reply))
	if st != status.NoError {
		t.Fatalf("DeserializeCommonHeader: %v", st)
	}
	if replyCommon.MessageKind != context.KindData {
		t.Fatalf("GetSettings reply MessageKind = %v, want KindData", replyCommon.MessageKind)
	}
}

func TestHandleMessageNoSuchHandler(t *testing.T) {
	s := New(settings.PartySettings{SupportedProtocolVersions: []uint16{1}}, 1, 1, []uint8{1})
	frame := buildDataFrame(t, 7)

	_, st := s.HandleMessage(frame, "client-1")
	if st != status.ErrorNoSuchHandler {
		t.Fatalf("HandleMessage = %v, want ErrorNoSuchHandler", st)
	}
}

// strictHandler declares a minimum input interface version above what the
// registered struct itself requires, exercising the handler-level floor
// separately from the struct's own MinSupportedVersion.
type strictHandler struct{ min uint32 }

func (h *strictHandler) MinInputInterfaceVersion() uint32 { return h.min }
func (h *strictHandler) InputMeta() context.StructMeta    { return echoPayload{} }
func (h *strictHandler) OutputMeta() context.StructMeta   { return echoPayload{} }
func (h *strictHandler) HandleData(clientID string, ctx *context.DataContext, r io.Reader, w io.Writer) status.Status {
	var p echoPayload
	if st := body.Deserialize(&p, ctx, r); st != status.NoError {
		return st
	}
	return body.Serialize(&p, ctx, w)
}

func TestHandleMessageRejectsBelowHandlerMinimumInterfaceVersion(t *testing.T) {
	s := New(settings.PartySettings{SupportedProtocolVersions: []uint16{1}}, 1, 1, []uint8{1})
	s.Registrar.RegisterHandler(echoPayload{}.StructID(), false, "svc-strict", &strictHandler{min: 2})
	frame := buildDataFrame(t, 1)

	reply, st := s.HandleMessage(frame, "client-1")
	if st != status.ErrorNotSupportedInterfaceVersion {
		t.Fatalf("HandleMessage = %v, want ErrorNotSupportedInterfaceVersion", st)
	}
	src := wire.NewSource(reply)
	if _, hst := context.DeserializeCommonHeader(src); hst != status.NoError {
		t.Fatalf("DeserializeCommonHeader: %v", hst)
	}
	msg, dst := statusmsg.Deserialize(src)
	if dst != status.NoError {
		t.Fatalf("statusmsg.Deserialize: %v", dst)
	}
	ivBody, ok := msg.Body.(statusmsg.NotSupportedInterfaceVersionBody)
	if !ok {
		t.Fatalf("reply body = %T, want NotSupportedInterfaceVersionBody", msg.Body)
	}
	if ivBody.MinimumSupportedInterfaceVersion != 2 {
		t.Fatalf("MinimumSupportedInterfaceVersion = %d, want 2", ivBody.MinimumSupportedInterfaceVersion)
	}
}

// noOutputHandler has no reply payload: it returns nil from OutputMeta, so
// the dispatcher must not frame any Data header ahead of it, leaving the
// top-level reply a plain Status frame.
type noOutputHandler struct{ calls int }

func (h *noOutputHandler) MinInputInterfaceVersion() uint32 { return 1 }
func (h *noOutputHandler) InputMeta() context.StructMeta    { return echoPayload{} }
func (h *noOutputHandler) OutputMeta() context.StructMeta   { return nil }
func (h *noOutputHandler) HandleData(clientID string, ctx *context.DataContext, r io.Reader, w io.Writer) status.Status {
	h.calls++
	var in echoPayload
	return body.Deserialize(&in, ctx, r)
}

func TestHandleMessageNoOutputHandlerRepliesWithPlainStatus(t *testing.T) {
	s := New(settings.PartySettings{SupportedProtocolVersions: []uint16{1}}, 1, 1, []uint8{1})
	h := &noOutputHandler{}
	s.Registrar.RegisterHandler(echoPayload{}.StructID(), false, "svc-noop", h)
	frame := buildDataFrame(t, 9)

	reply, st := s.HandleMessage(frame, "client-1")
	if st != status.NoError {
		t.Fatalf("HandleMessage: %v", st)
	}
	if h.calls != 1 {
		t.Fatalf("handler calls = %d, want 1", h.calls)
	}

	src := wire.NewSource(reply)
	common, st := context.DeserializeCommonHeader(src)
	if st != status.NoError {
		t.Fatalf("DeserializeCommonHeader: %v", st)
	}
	if common.MessageKind != context.KindStatus {
		t.Fatalf("reply MessageKind = %v, want KindStatus", common.MessageKind)
	}
	msg, dst := statusmsg.Deserialize(src)
	if dst != status.NoError {
		t.Fatalf("statusmsg.Deserialize: %v", dst)
	}
	if msg.Code != status.NoError {
		t.Fatalf("reply code = %v, want NoError", msg.Code)
	}
}
