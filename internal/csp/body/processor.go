package body

import (
	"io"

	"github.com/ocx/csp/internal/csp/context"
	"github.com/ocx/csp/internal/csp/status"
)

// Serialize runs the full prelude-then-body sequence of spec §4.F for one
// struct value: version conversion if armed, data-flag re-validation, then
// either the memcpy fast path or the field-by-field fallback.
func Serialize(v Serializable, ctx *context.DataContext, w io.Writer) status.Status {
	if ctx.InterfaceVersionsNotMatch {
		if vc, ok := v.(VersionConvertible); ok {
			st := vc.ConvertToOld(ctx, w)
			if st == status.NoFurtherProcessingRequired {
				return status.NoError
			}
			return st
		}
	}
	if st := validateDataFlags(v, ctx); st != status.NoError {
		return st
	}
	return serializeBody(v, ctx, w)
}

// Deserialize mirrors Serialize on the read side.
func Deserialize(v Serializable, ctx *context.DataContext, r io.Reader) status.Status {
	if ctx.InterfaceVersionsNotMatch {
		if vc, ok := v.(VersionConvertible); ok {
			st := vc.ConvertFromOld(ctx, r)
			if st == status.NoFurtherProcessingRequired {
				return status.NoError
			}
			return st
		}
	}
	if st := validateDataFlags(v, ctx); st != status.NoError {
		return st
	}
	return deserializeBody(v, ctx, r)
}

func validateDataFlags(v Serializable, ctx *context.DataContext) status.Status {
	df := ctx.Header.DataFlags
	mandatory := v.MandatoryDataFlags()
	if df&mandatory != mandatory {
		return status.ErrorNotCompatibleDataFlagsSettings
	}
	if df&v.ForbiddenDataFlags() != 0 {
		return status.ErrorNotCompatibleDataFlagsSettings
	}
	return status.NoError
}

func serializeBody(v Serializable, ctx *context.DataContext, w io.Writer) status.Status {
	cat := v.Category()
	if cat == EmptyType {
		return status.NoError
	}
	if FastPathEligible(cat, ctx.Header.DataFlags) {
		if sa, ok := v.(SimplyAssignable); ok {
			st := sa.MarshalRaw(w, ctx.Common.CommonFlags.EndiannessNotMatch())
			if st != status.ErrorNotSupportedSerializationSettingsForStruct {
				return st
			}
		}
	}
	return v.SerializeFields(w, ctx)
}

func deserializeBody(v Serializable, ctx *context.DataContext, r io.Reader) status.Status {
	cat := v.Category()
	if cat == EmptyType {
		return status.NoError
	}
	if FastPathEligible(cat, ctx.Header.DataFlags) {
		if sa, ok := v.(SimplyAssignable); ok {
			st := sa.UnmarshalRaw(r, ctx.Common.CommonFlags.EndiannessNotMatch())
			if st != status.ErrorNotSupportedSerializationSettingsForStruct {
				return st
			}
		}
	}
	return v.DeserializeFields(r, ctx)
}
