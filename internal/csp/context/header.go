package context

import (
	"io"

	"github.com/ocx/csp/internal/csp/primitive"
	"github.com/ocx/csp/internal/csp/status"
)

// ProtocolVersionUndefined marks a Status reply sent when the peer's
// protocol version is outside the range the server supports (spec §4.I).
const ProtocolVersionUndefined uint16 = 0xFF

// CommonHeader is the 10-byte frame prefix present on every message.
// Always serialized little-endian with flags forced off for this frame.
type CommonHeader struct {
	ProtocolVersion uint16
	MessageKind     MessageKind
	CommonFlags     CommonFlags
}

// Serialize writes the header. This never fails except on sink exhaustion.
func (h CommonHeader) Serialize(w io.Writer) status.Status {
	if st := primitive.WriteFixed(w, h.ProtocolVersion, false); st != status.NoError {
		return st
	}
	if st := primitive.WriteFixed(w, uint32(h.MessageKind), false); st != status.NoError {
		return st
	}
	return primitive.WriteFixed(w, uint32(h.CommonFlags), false)
}

// DeserializeCommonHeader reads a CommonHeader with no cross-checks beyond
// the wire shape. Full validation is a separate step (Validate) so the
// dispatcher can special-case an unsupported protocol version before it
// knows whether the rest of the frame is trustworthy.
func DeserializeCommonHeader(r io.Reader) (CommonHeader, status.Status) {
	var h CommonHeader
	if st := primitive.ReadFixed(r, &h.ProtocolVersion, false); st != status.NoError {
		return CommonHeader{}, st
	}
	var kind, flags uint32
	if st := primitive.ReadFixed(r, &kind, false); st != status.NoError {
		return CommonHeader{}, st
	}
	if st := primitive.ReadFixed(r, &flags, false); st != status.NoError {
		return CommonHeader{}, st
	}
	h.MessageKind = MessageKind(kind)
	h.CommonFlags = CommonFlags(flags)
	return h, status.NoError
}

// ValidateProtocolVersion applies the range check half of spec §4.C. Kept
// separate from ValidateCommonFlags so the dispatcher can special-case this
// failure with an Undefined-protocol-version reply before it has decided
// whether the rest of the frame is trustworthy.
func (h CommonHeader) ValidateProtocolVersion(minSupported, latestKnown uint16) status.Status {
	if h.ProtocolVersion < minSupported || h.ProtocolVersion > latestKnown {
		return status.ErrorNotSupportedProtocolVersion
	}
	return status.NoError
}

// ValidateCommonFlags applies the flag-compatibility half of spec §4.C.
func (h CommonHeader) ValidateCommonFlags() status.Status {
	if !h.CommonFlags.Valid() {
		return status.ErrorNotCompatibleCommonFlagsSettings
	}
	if h.CommonFlags.EndiannessNotMatch() && !h.CommonFlags.Has(EndiannessDifference) {
		return status.ErrorNotCompatibleCommonFlagsSettings
	}
	return status.NoError
}

// Validate runs both checks in order, for callers that don't need the
// split (most non-dispatcher code).
func (h CommonHeader) Validate(minSupported, latestKnown uint16) status.Status {
	if st := h.ValidateProtocolVersion(minSupported, latestKnown); st != status.NoError {
		return st
	}
	return h.ValidateCommonFlags()
}

// StructID is the 128-bit identity of a registered payload type.
type StructID [16]byte

// DataHeader is the per-payload header following the common header when
// MessageKind is Data.
type DataHeader struct {
	StructID         StructID
	InterfaceVersion uint32
	DataFlags        DataFlags
}

// Serialize writes the data header.
func (h DataHeader) Serialize(w io.Writer) status.Status {
	if _, err := w.Write(h.StructID[:]); err != nil {
		return status.ErrorNoMemory
	}
	if st := primitive.WriteFixed(w, h.InterfaceVersion, false); st != status.NoError {
		return st
	}
	return primitive.WriteFixed(w, uint32(h.DataFlags), false)
}

// DeserializeDataHeaderNoChecks reads the raw data header without comparing
// structId against any known type. Used by the dispatcher to learn which
// struct a message names before a handler (and hence the handler's T) has
// been chosen — validation against a specific T happens afterward, when the
// dispatcher calls ValidateForStruct with the chosen handler's InputMeta.
func DeserializeDataHeaderNoChecks(r io.Reader) (DataHeader, status.Status) {
	var h DataHeader
	if _, err := io.ReadFull(r, h.StructID[:]); err != nil {
		return DataHeader{}, status.ErrorOverflow
	}
	if st := primitive.ReadFixed(r, &h.InterfaceVersion, false); st != status.NoError {
		return DataHeader{}, st
	}
	var flags uint32
	if st := primitive.ReadFixed(r, &flags, false); st != status.NoError {
		return DataHeader{}, st
	}
	h.DataFlags = DataFlags(flags)
	return h, status.NoError
}

// StructMeta is the identity and version/flag policy a registered struct
// type publishes, standing in for the code generator's per-struct traits.
type StructMeta interface {
	StructID() StructID
	LatestVersion() uint32
	MinSupportedVersion() uint32
	MandatoryDataFlags() DataFlags
	ForbiddenDataFlags() DataFlags
}

// ValidateForStruct applies spec §4.D steps 1-4 against a known T. The
// dispatcher calls it with a handler's InputMeta after routing on the raw
// struct id and before invoking the handler. Returns whether the declared
// interface version is older than latest, arming the version-conversion
// path.
func ValidateForStruct(h DataHeader, meta StructMeta) (interfaceVersionsNotMatch bool, st status.Status) {
	if h.StructID != meta.StructID() {
		return false, status.ErrorMismatchOfStructId
	}
	if h.InterfaceVersion < meta.MinSupportedVersion() || h.InterfaceVersion > meta.LatestVersion() {
		return false, status.ErrorMismatchOfInterfaceVersions
	}
	notMatch := h.InterfaceVersion < meta.LatestVersion()
	if h.DataFlags&meta.MandatoryDataFlags() != meta.MandatoryDataFlags() {
		return notMatch, status.ErrorNotCompatibleDataFlagsSettings
	}
	if h.DataFlags&meta.ForbiddenDataFlags() != 0 {
		return notMatch, status.ErrorNotCompatibleDataFlagsSettings
	}
	return notMatch, status.NoError
}
