// Package fixtures holds example registered structs exercising the full
// stack end to end: field-by-field bodies, pointer graphs, containers, and
// version conversion. Grounded on the generated test structs under
// _examples/original_source/UnitTests/SerializableStructs/InterfaceForTest,
// which play the same role for the reference implementation's test suite.
package fixtures

import (
	"io"

	"github.com/ocx/csp/internal/csp/context"
	"github.com/ocx/csp/internal/csp/primitive"
	"github.com/ocx/csp/internal/csp/status"
)

// Address is a plain field-by-field value, never registered on its own —
// it only ever appears as the pointee of UserProfile.HomeAddress.
type Address struct {
	City string
	Zip  uint32
}

func serializeAddress(a *Address, ctx *context.DataContext, w io.Writer) status.Status {
	if st := primitive.WriteString(w, a.City); st != status.NoError {
		return st
	}
	return primitive.WriteFixed(w, a.Zip, ctx.Common.CommonFlags.EndiannessNotMatch())
}

func deserializeAddress(a *Address, ctx *context.DataContext, r io.Reader) status.Status {
	city, st := primitive.ReadString(r)
	if st != status.NoError {
		return st
	}
	a.City = city
	return primitive.ReadFixed(r, &a.Zip, ctx.Common.CommonFlags.EndiannessNotMatch())
}
