package fixtures

import (
	"io"

	"github.com/ocx/csp/internal/csp/body"
	"github.com/ocx/csp/internal/csp/context"
	"github.com/ocx/csp/internal/csp/primitive"
	"github.com/ocx/csp/internal/csp/status"
)

// Vector3 is AlwaysSimplyAssignable: three fixed-width fields, alignment 1,
// so the body processor always takes the bulk-copy fast path for it.
type Vector3 struct {
	X, Y, Z float32
}

var vector3ID = context.StructID{0x56, 0x45, 0x43, 0x33}

func (Vector3) StructID() context.StructID            { return vector3ID }
func (Vector3) LatestVersion() uint32                 { return 1 }
func (Vector3) MinSupportedVersion() uint32           { return 1 }
func (Vector3) MandatoryDataFlags() context.DataFlags { return 0 }
func (Vector3) ForbiddenDataFlags() context.DataFlags { return 0 }
func (Vector3) Category() body.LayoutCategory         { return body.AlwaysSimplyAssignable }

func (v Vector3) MarshalRaw(w io.Writer, swap bool) status.Status {
	if st := primitive.WriteFixed(w, v.X, swap); st != status.NoError {
		return st
	}
	if st := primitive.WriteFixed(w, v.Y, swap); st != status.NoError {
		return st
	}
	return primitive.WriteFixed(w, v.Z, swap)
}

func (v *Vector3) UnmarshalRaw(r io.Reader, swap bool) status.Status {
	if st := primitive.ReadFixed(r, &v.X, swap); st != status.NoError {
		return st
	}
	if st := primitive.ReadFixed(r, &v.Y, swap); st != status.NoError {
		return st
	}
	return primitive.ReadFixed(r, &v.Z, swap)
}

func (v Vector3) SerializeFields(w io.Writer, ctx *context.DataContext) status.Status {
	return v.MarshalRaw(w, ctx.Common.CommonFlags.EndiannessNotMatch())
}

func (v *Vector3) DeserializeFields(r io.Reader, ctx *context.DataContext) status.Status {
	return v.UnmarshalRaw(r, ctx.Common.CommonFlags.EndiannessNotMatch())
}
