// Package statusmsg implements Component I: the wire body of a Status
// message, the kind the dispatcher sends back when it rejects or fails a
// request. Grounded on the status payload layouts described in the
// reference implementation's CspMessaging/Server.h handleMessage error
// paths and on the teacher's fixed-field Marshal/Unmarshal style.
package statusmsg

import (
	"io"

	"github.com/ocx/csp/internal/csp/context"
	"github.com/ocx/csp/internal/csp/primitive"
	"github.com/ocx/csp/internal/csp/status"
)

// Body is the variant-dependent payload following a Status code.
type Body interface {
	Serialize(w io.Writer) status.Status
}

// NotSupportedProtocolVersionBody lists the protocol versions this server
// accepts, sent when the request's version was out of range.
type NotSupportedProtocolVersionBody struct {
	SupportedVersions []uint8
}

func (b NotSupportedProtocolVersionBody) Serialize(w io.Writer) status.Status {
	if len(b.SupportedVersions) > 255 {
		return status.ErrorInvalidArgument
	}
	if st := primitive.WriteFixed(w, uint8(len(b.SupportedVersions)), false); st != status.NoError {
		return st
	}
	for _, v := range b.SupportedVersions {
		if st := primitive.WriteFixed(w, v, false); st != status.NoError {
			return st
		}
	}
	return status.NoError
}

func deserializeNotSupportedProtocolVersion(r io.Reader) (NotSupportedProtocolVersionBody, status.Status) {
	var count uint8
	if st := primitive.ReadFixed(r, &count, false); st != status.NoError {
		return NotSupportedProtocolVersionBody{}, st
	}
	versions := make([]uint8, count)
	for i := range versions {
		if st := primitive.ReadFixed(r, &versions[i], false); st != status.NoError {
			return NotSupportedProtocolVersionBody{}, st
		}
	}
	return NotSupportedProtocolVersionBody{SupportedVersions: versions}, status.NoError
}

// NotSupportedInterfaceVersionBody names the minimum interface version the
// server supports for the struct the request named.
type NotSupportedInterfaceVersionBody struct {
	MinimumSupportedInterfaceVersion uint32
	StructID                         context.StructID
}

func (b NotSupportedInterfaceVersionBody) Serialize(w io.Writer) status.Status {
	if st := primitive.WriteFixed(w, b.MinimumSupportedInterfaceVersion, false); st != status.NoError {
		return st
	}
	if _, err := w.Write(b.StructID[:]); err != nil {
		return status.ErrorNoMemory
	}
	return status.NoError
}

func deserializeNotSupportedInterfaceVersion(r io.Reader) (NotSupportedInterfaceVersionBody, status.Status) {
	var b NotSupportedInterfaceVersionBody
	if st := primitive.ReadFixed(r, &b.MinimumSupportedInterfaceVersion, false); st != status.NoError {
		return NotSupportedInterfaceVersionBody{}, st
	}
	if _, err := io.ReadFull(r, b.StructID[:]); err != nil {
		return NotSupportedInterfaceVersionBody{}, status.ErrorOverflow
	}
	return b, status.NoError
}

// NotSupportedInOutInterfaceVersionBody reports the supported version range
// for a handler's input and output interfaces.
type NotSupportedInOutInterfaceVersionBody struct {
	InMin, InMax   uint32
	OutMin, OutMax uint32
}

func (b NotSupportedInOutInterfaceVersionBody) Serialize(w io.Writer) status.Status {
	for _, v := range []uint32{b.InMin, b.InMax, b.OutMin, b.OutMax} {
		if st := primitive.WriteFixed(w, v, false); st != status.NoError {
			return st
		}
	}
	return status.NoError
}

func deserializeNotSupportedInOutInterfaceVersion(r io.Reader) (NotSupportedInOutInterfaceVersionBody, status.Status) {
	var b NotSupportedInOutInterfaceVersionBody
	fields := []*uint32{&b.InMin, &b.InMax, &b.OutMin, &b.OutMax}
	for _, f := range fields {
		if st := primitive.ReadFixed(r, f, false); st != status.NoError {
			return NotSupportedInOutInterfaceVersionBody{}, st
		}
	}
	return b, status.NoError
}

// Message is a full Status payload: the result code plus its variant body.
// Body is nil for NoError and for error codes with no defined body.
type Message struct {
	Code status.Status
	Body Body
}

// Serialize writes the status code and, if present, its body.
func (m Message) Serialize(w io.Writer) status.Status {
	if st := primitive.WriteFixed(w, int32(m.Code), false); st != status.NoError {
		return st
	}
	if m.Body == nil {
		return status.NoError
	}
	return m.Body.Serialize(w)
}

// Deserialize reads a status code and dispatches to the matching body
// decoder, per spec §4.I's defined variants.
func Deserialize(r io.Reader) (Message, status.Status) {
	var code int32
	if st := primitive.ReadFixed(r, &code, false); st != status.NoError {
		return Message{}, st
	}
	sc := status.Status(code)
	switch sc {
	case status.ErrorNotSupportedProtocolVersion:
		body, st := deserializeNotSupportedProtocolVersion(r)
		if st != status.NoError {
			return Message{}, st
		}
		return Message{Code: sc, Body: body}, status.NoError
	case status.ErrorNotSupportedInterfaceVersion:
		body, st := deserializeNotSupportedInterfaceVersion(r)
		if st != status.NoError {
			return Message{}, st
		}
		return Message{Code: sc, Body: body}, status.NoError
	case status.ErrorNotSupportedInOutInterfaceVersion:
		body, st := deserializeNotSupportedInOutInterfaceVersion(r)
		if st != status.NoError {
			return Message{}, st
		}
		return Message{Code: sc, Body: body}, status.NoError
	default:
		return Message{Code: sc}, status.NoError
	}
}

// BuildReply writes a complete Status frame: common header then status
// body. Most callers should go through BuildUndefinedProtocolVersionReply
// or supply the request's own negotiated protocol version and common
// flags.
func BuildReply(protocolVersion uint16, commonFlags context.CommonFlags, msg Message, w io.Writer) status.Status {
	header := context.CommonHeader{
		ProtocolVersion: protocolVersion,
		MessageKind:     context.KindStatus,
		CommonFlags:     commonFlags,
	}
	if st := header.Serialize(w); st != status.NoError {
		return st
	}
	return msg.Serialize(w)
}

// BuildUndefinedProtocolVersionReply is the only permitted way to build a
// Status frame carrying context.ProtocolVersionUndefined: used exclusively
// when the request's protocol version is outside the range the server
// supports.
func BuildUndefinedProtocolVersionReply(supportedVersions []uint8, w io.Writer) status.Status {
	return BuildReply(context.ProtocolVersionUndefined, 0, Message{
		Code: status.ErrorNotSupportedProtocolVersion,
		Body: NotSupportedProtocolVersionBody{SupportedVersions: supportedVersions},
	}, w)
}
