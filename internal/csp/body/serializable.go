package body

import (
	"io"

	"github.com/ocx/csp/internal/csp/context"
	"github.com/ocx/csp/internal/csp/status"
)

// Serializable is implemented by every registered struct type. It supplies
// identity/version/flag policy (via context.StructMeta) plus the
// field-by-field codec the processor falls back to when the fast path
// isn't eligible or isn't implemented.
type Serializable interface {
	context.StructMeta
	// Category reports which memcpy-eligibility class this struct belongs
	// to, used by FastPathEligible.
	Category() LayoutCategory
	SerializeFields(w io.Writer, ctx *context.DataContext) status.Status
	DeserializeFields(r io.Reader, ctx *context.DataContext) status.Status
}

// SimplyAssignable is implemented by struct types whose Category() is one
// of the four memcpy-eligible categories. MarshalRaw/UnmarshalRaw perform
// the bulk copy; they may refuse by returning
// ErrorNotSupportedSerializationSettingsForStruct, which tells the
// processor to fall back to SerializeFields/DeserializeFields.
type SimplyAssignable interface {
	Serializable
	MarshalRaw(w io.Writer, swapEndian bool) status.Status
	UnmarshalRaw(r io.Reader, swapEndian bool) status.Status
}

// VersionConvertible is implemented by struct types that have at least one
// legacy representation in their private-version chain. The processor
// invokes these only when the context's InterfaceVersionsNotMatch flag is
// armed (set by context.ValidateForStruct when the wire's declared
// interface version is older than this type's latest).
type VersionConvertible interface {
	Serializable
	// ConvertToOld serializes the receiver as whatever legacy
	// representation corresponds to ctx.Header.InterfaceVersion, writing
	// directly to w. Returns NoFurtherProcessingRequired on success (the
	// processor must not also run the normal path) or an error.
	ConvertToOld(ctx *context.DataContext, w io.Writer) status.Status
	// ConvertFromOld reads a legacy representation from r and populates
	// the receiver by upgrading it. Returns NoFurtherProcessingRequired on
	// success or an error.
	ConvertFromOld(ctx *context.DataContext, r io.Reader) status.Status
}
