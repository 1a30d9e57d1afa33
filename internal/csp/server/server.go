// Package server implements Component L: the synchronous dispatcher that
// deserializes an incoming frame, routes it by message kind, and frames a
// reply. Grounded on the reference implementation's
// CspMessaging::Server::handleMessage/handleData
// (_examples/original_source/cslib/include/common_serialization/CspMessaging/Server.h),
// adapted to Go's byte-slice-in/byte-slice-out style instead of an
// out-parameter sink.
package server

import (
	"io"

	"github.com/ocx/csp/internal/csp/body"
	"github.com/ocx/csp/internal/csp/context"
	"github.com/ocx/csp/internal/csp/ptrkeeper"
	"github.com/ocx/csp/internal/csp/registrar"
	"github.com/ocx/csp/internal/csp/settings"
	"github.com/ocx/csp/internal/csp/status"
	"github.com/ocx/csp/internal/csp/statusmsg"
	"github.com/ocx/csp/internal/csp/wire"
)

// Server owns the handler registrar and the protocol-version/settings
// policy a process advertises to peers. One Server is shared across
// concurrently calling goroutines; see spec §5 for the concurrency model.
type Server struct {
	Registrar                 *registrar.Registrar
	LocalSettings              settings.PartySettings
	MinProtocolVersion         uint16
	LatestProtocolVersion      uint16
	SupportedProtocolVersions  []uint8

	inited bool
}

// New constructs an initialized Server advertising localSettings and the
// given protocol-version range.
func New(localSettings settings.PartySettings, minProtocolVersion, latestProtocolVersion uint16, supportedProtocolVersions []uint8) *Server {
	return &Server{
		Registrar:                 registrar.New(),
		LocalSettings:             localSettings,
		MinProtocolVersion:        minProtocolVersion,
		LatestProtocolVersion:     latestProtocolVersion,
		SupportedProtocolVersions: supportedProtocolVersions,
		inited:                    true,
	}
}

// HandleMessage is the single entry point: it deserializes in, routes, and
// returns the reply frame along with the terminal status. A non-NoError
// status does not necessarily mean the returned bytes are empty — Status
// replies carry their own error code as their payload.
func (s *Server) HandleMessage(in []byte, clientID string) ([]byte, status.Status) {
	if !s.inited {
		return nil, status.ErrorNotInited
	}

	source := wire.NewSource(in)
	common, st := context.DeserializeCommonHeader(source)
	if st != status.NoError {
		return nil, st
	}

	if st := common.ValidateProtocolVersion(s.MinProtocolVersion, s.LatestProtocolVersion); st != status.NoError {
		sink := wire.NewSink()
		_ = statusmsg.BuildUndefinedProtocolVersionReply(s.SupportedProtocolVersions, sink)
		return sink.Bytes(), st
	}

	sink := wire.NewSink()
	switch common.MessageKind {
	case context.KindGetSettings:
		if st := s.handleGetSettings(common, sink); st != status.NoError {
			return s.replyStatus(common, st), st
		}
		return sink.Bytes(), status.NoError

	case context.KindData:
		if st := common.ValidateCommonFlags(); st != status.NoError {
			return s.replyStatus(common, st), st
		}
		st := s.handleData(common, source, sink, clientID)
		if sink.Size() == 0 {
			return s.replyStatus(common, st), st
		}
		return sink.Bytes(), st

	default:
		st := status.ErrorDataCorrupted
		return s.replyStatus(common, st), st
	}
}

// replyStatus frames a bare Status reply using the request's own protocol
// version and common flags.
func (s *Server) replyStatus(common context.CommonHeader, code status.Status) []byte {
	sink := wire.NewSink()
	_ = statusmsg.BuildReply(common.ProtocolVersion, common.CommonFlags, statusmsg.Message{Code: code}, sink)
	return sink.Bytes()
}

// handleGetSettings replies with a Data-framed PartySettings value, per
// spec §6's external-interface note that a GetSettings reply is framed as
// Data even though the request was not.
func (s *Server) handleGetSettings(common context.CommonHeader, sink *wire.Sink) status.Status {
	replyCommon := context.CommonHeader{
		ProtocolVersion: common.ProtocolVersion,
		MessageKind:     context.KindData,
		CommonFlags:     common.CommonFlags,
	}
	if st := replyCommon.Serialize(sink); st != status.NoError {
		return st
	}
	dataHeader := context.DataHeader{
		StructID:         s.LocalSettings.StructID(),
		InterfaceVersion: s.LocalSettings.LatestVersion(),
	}
	if st := dataHeader.Serialize(sink); st != status.NoError {
		return st
	}
	ctx, st := context.New(replyCommon, dataHeader, nil)
	if st != status.NoError {
		return st
	}
	return body.Serialize(&s.LocalSettings, ctx, sink)
}

// handleData implements spec §4.L's handleData: parse the data header,
// build a scoped context, acquire the handler(s) registered for it, and
// for the multicast case replay the same body bytes to each one.
func (s *Server) handleData(common context.CommonHeader, source *wire.Source, sink *wire.Sink, clientID string) status.Status {
	dataHeader, st := context.DeserializeDataHeaderNoChecks(source)
	if st != status.NoError {
		return st
	}

	var keepers *ptrkeeper.List
	if dataHeader.DataFlags.Has(context.AllowUnmanagedPointers) {
		keepers = &ptrkeeper.List{}
	}
	ctx, st := context.New(common, dataHeader, keepers)
	if st != status.NoError {
		return st
	}
	defer ctx.Close()

	acq, st := s.Registrar.AcquireHandler(dataHeader.StructID)
	switch st {
	case status.NoError:
		defer acq.Release()
		return s.invokeHandler(acq.Handler, common, dataHeader, ctx, source, sink, clientID)

	case status.ErrorMoreEntires:
		// Multicast delivery replies with a single aggregated Status, never
		// a Data frame (spec §4.L scenario 4), so each handler's output is
		// framed into a scratch sink and discarded rather than appended to
		// the shared reply.
		handlers, st := s.Registrar.AcquireHandlers(dataHeader.StructID)
		if st != status.NoError {
			return st
		}
		bodyStart := source.Tell()
		first := status.NoError
		for _, h := range handlers {
			hst := s.invokeHandler(h.Handler, common, dataHeader, ctx, source, wire.NewSink(), clientID)
			h.Release()
			first = status.First(first, hst)
			source.Seek(bodyStart)
		}
		return first

	default:
		return st
	}
}

// invokeHandler runs spec §4.L's "Handler invocation" steps around a single
// registered handler: reject a wire interface version below the handler's
// declared minimum, validate and arm version conversion against the
// handler's declared input type, frame the reply's data header against the
// handler's declared output type (or write nothing for a handler with no
// output), then run the handler itself.
func (s *Server) invokeHandler(h registrar.Handler, common context.CommonHeader, dataHeader context.DataHeader, ctx *context.DataContext, r io.Reader, w io.Writer, clientID string) status.Status {
	if dataHeader.InterfaceVersion < h.MinInputInterfaceVersion() {
		code := status.ErrorNotSupportedInterfaceVersion
		_ = statusmsg.BuildReply(common.ProtocolVersion, common.CommonFlags, statusmsg.Message{
			Code: code,
			Body: statusmsg.NotSupportedInterfaceVersionBody{
				MinimumSupportedInterfaceVersion: h.MinInputInterfaceVersion(),
				StructID:                         dataHeader.StructID,
			},
		}, w)
		return code
	}

	notMatch, st := context.ValidateForStruct(dataHeader, h.InputMeta())
	if st != status.NoError {
		_ = statusmsg.BuildReply(common.ProtocolVersion, common.CommonFlags, statusmsg.Message{Code: st}, w)
		return st
	}
	ctx.ArmConversion(notMatch)

	if outMeta := h.OutputMeta(); outMeta != nil {
		replyCommon := context.CommonHeader{
			ProtocolVersion: common.ProtocolVersion,
			MessageKind:     context.KindData,
			CommonFlags:     common.CommonFlags,
		}
		if st := replyCommon.Serialize(w); st != status.NoError {
			return st
		}
		replyHeader := context.DataHeader{
			StructID:         outMeta.StructID(),
			InterfaceVersion: outMeta.LatestVersion(),
			DataFlags:        dataHeader.DataFlags,
		}
		if st := replyHeader.Serialize(w); st != status.NoError {
			return st
		}
	}

	return h.HandleData(clientID, ctx, r, w)
}
