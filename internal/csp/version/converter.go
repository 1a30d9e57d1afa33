// Package version implements Component H: the per-struct version-
// conversion chain that lets a newer and an older peer interoperate. Each
// registered struct that has ever changed shape declares a Chain of Steps,
// one per legacy representation, and implements body.VersionConvertible by
// delegating to the chain. Grounded on the reference implementation's
// FromVersionConverter/ToVersionConverter templates
// (_examples/original_source/UnitTests/SerializableStructs/InterfaceForTest/src/Generated/ConvertFromOldStruct.cpp,
// ConvertToOldStruct.cpp): Go generics can't enumerate a heterogeneous list
// of legacy types the way a C++ template parameter pack does, so the chain
// is expressed as a slice of closures instead, one per legacy version,
// each capturing its own generated serialize/deserialize/upgrade calls.
package version

import (
	"io"

	"github.com/ocx/csp/internal/csp/context"
	"github.com/ocx/csp/internal/csp/status"
)

// Step is one entry in a struct's descending legacy-version chain.
type Step struct {
	// Version is the interface version this legacy representation speaks.
	Version uint32
	// SerializeOld writes the current value downgraded to this
	// representation. Called by Chain.ConvertToOld.
	SerializeOld func(ctx *context.DataContext, w io.Writer) status.Status
	// DeserializeOld reads this representation from the wire and upgrades
	// the enclosing current-version value in place. Called by
	// Chain.ConvertFromOld.
	DeserializeOld func(ctx *context.DataContext, r io.Reader) status.Status
}

// Chain is the ordered set of legacy representations a struct declares.
// Order does not matter; ConvertToOld picks the closest version at or
// below the target, as the reference implementation's converter does.
type Chain struct {
	Steps []Step
}

// ConvertToOld locates the highest declared version not exceeding
// targetVersion and serializes through it, per spec §4.H's toOldStruct. A
// targetVersion equal to or above the struct's latest version is a caller
// error: the body processor should not have armed conversion in that case.
func (c Chain) ConvertToOld(targetVersion uint32, ctx *context.DataContext, w io.Writer) status.Status {
	best := -1
	for i, s := range c.Steps {
		if s.Version <= targetVersion && (best == -1 || s.Version > c.Steps[best].Version) {
			best = i
		}
	}
	if best == -1 {
		return status.ErrorMismatchOfInterfaceVersions
	}
	if st := c.Steps[best].SerializeOld(ctx, w); st != status.NoError {
		return st
	}
	return status.NoFurtherProcessingRequired
}

// ConvertFromOld deserializes the representation matching targetVersion
// exactly and upgrades the current value from it, per spec §4.H's
// fromOldStruct.
func (c Chain) ConvertFromOld(targetVersion uint32, ctx *context.DataContext, r io.Reader) status.Status {
	for _, s := range c.Steps {
		if s.Version == targetVersion {
			if st := s.DeserializeOld(ctx, r); st != status.NoError {
				return st
			}
			return status.NoFurtherProcessingRequired
		}
	}
	return status.ErrorMismatchOfInterfaceVersions
}
