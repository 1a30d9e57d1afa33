// Package body implements Component F: the recursive serialize/deserialize
// engine that per-struct generated code is written against. It supplies the
// shared machinery — the fast-path eligibility predicate, the prelude that
// hooks into the version converter, and the pointer/container helpers —
// while each registered struct type supplies its own field layout by
// implementing Serializable (and, where eligible, SimplyAssignable).
// Grounded on the layout-category dispatch described in the reference
// implementation's BodyProcessor templates
// (_examples/original_source/csp_base/include/common_serialization/csp_base/processing/DataBodyProcessor.h)
// and on the teacher's field-ordered binary.Write/Read style.
package body

import "github.com/ocx/csp/internal/csp/context"

// LayoutCategory classifies how a struct's fields are laid out in memory,
// chosen per struct by whatever produced its generated code (here, chosen
// by hand on each fixture type).
type LayoutCategory int

const (
	// NotSimplyAssignable structs always go through the field-by-field path.
	NotSimplyAssignable LayoutCategory = iota
	// EmptyType structs occupy zero bytes on the wire.
	EmptyType
	// AlwaysSimplyAssignable: fixed-width fields, alignment 1. Memcpy always.
	AlwaysSimplyAssignable
	// SimplyAssignableFixedSize: fixed-width fields, arbitrary alignment.
	// Memcpy unless AlignmentMayBeNotEqual is set.
	SimplyAssignableFixedSize
	// SimplyAssignableAlignedToOne: possibly platform-sized fields,
	// alignment 1. Memcpy unless SizeOfIntegersMayBeNotEqual is set.
	SimplyAssignableAlignedToOne
	// SimplyAssignableGeneric: possibly platform-sized fields, arbitrary alignment.
	// Memcpy only when both flags above are clear.
	SimplyAssignableGeneric
)

// FastPathEligible implements the memcpy eligibility predicate of spec
// §4.F: true when the struct's layout category tolerates the data-flags
// currently in effect.
func FastPathEligible(cat LayoutCategory, flags context.DataFlags) bool {
	if flags.Has(context.SimplyAssignableTagsOptimizationsAreTurnedOff) {
		return false
	}
	switch cat {
	case AlwaysSimplyAssignable:
		return true
	case SimplyAssignableFixedSize:
		return !flags.Has(context.AlignmentMayBeNotEqual)
	case SimplyAssignableAlignedToOne:
		return !flags.Has(context.SizeOfIntegersMayBeNotEqual)
	case SimplyAssignableGeneric:
		return !flags.Has(context.AlignmentMayBeNotEqual) && !flags.Has(context.SizeOfIntegersMayBeNotEqual)
	default:
		return false
	}
}
