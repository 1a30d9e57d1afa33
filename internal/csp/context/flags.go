// Package context implements Components C, D, and G: the common message
// header, the per-payload data header, and the data-context object that
// carries pointer-identity maps and the ptr-keeper list through one
// serialize/deserialize call. Grounded on the bitmask-flag style of the
// teacher repo's internal/protocol.FrameHeader (SetFlag/ClearFlag/HasFlag)
// and on the header layout of Server.h in the reference implementation.
package context

// MessageKind discriminates the four frame shapes defined in spec §3.
type MessageKind uint32

const (
	KindStatus                    MessageKind = 0
	KindData                      MessageKind = 1
	KindCommonCapabilitiesRequest MessageKind = 2
	KindGetSettings               MessageKind = 3
)

// CommonFlags is the header-level bitmask. Only the low 3 bits are valid;
// everything else is reserved and rejected.
type CommonFlags uint32

const (
	Bitness32            CommonFlags = 1 << 0
	BigEndianFormat      CommonFlags = 1 << 1
	EndiannessDifference CommonFlags = 1 << 2

	commonFlagsValidMask CommonFlags = 0x7
)

// Has reports whether bit is set in f.
func (f CommonFlags) Has(bit CommonFlags) bool { return f&bit != 0 }

// Valid reports whether f has no bits outside the defined set.
func (f CommonFlags) Valid() bool { return f&^commonFlagsValidMask == 0 }

// platformIsBigEndian is false: CSP targets the little-endian architectures
// this codebase ships to (amd64, arm64). Full big-endian body support is
// declared by the flag scheme but intentionally not exercised.
const platformIsBigEndian = false

// EndiannessNotMatch reports whether the peer's declared byte order differs
// from this platform's.
func (f CommonFlags) EndiannessNotMatch() bool {
	return f.Has(BigEndianFormat) != platformIsBigEndian
}

// DataFlags is the per-payload bitmask controlling the body codec's
// behavior. Only the low 5 bits are valid.
type DataFlags uint32

const (
	AlignmentMayBeNotEqual                         DataFlags = 1 << 0
	SizeOfIntegersMayBeNotEqual                     DataFlags = 1 << 1
	AllowUnmanagedPointers                          DataFlags = 1 << 2
	CheckRecursivePointers                          DataFlags = 1 << 3
	SimplyAssignableTagsOptimizationsAreTurnedOff   DataFlags = 1 << 4

	dataFlagsValidMask DataFlags = 0x1F
)

// Has reports whether bit is set in f.
func (f DataFlags) Has(bit DataFlags) bool { return f&bit != 0 }

// Valid reports whether f has no bits outside the defined set.
func (f DataFlags) Valid() bool { return f&^dataFlagsValidMask == 0 }
