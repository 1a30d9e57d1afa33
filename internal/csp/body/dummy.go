package body

import (
	"io"

	"github.com/ocx/csp/internal/csp/context"
	"github.com/ocx/csp/internal/csp/status"
)

var dummyTypeID = context.StructID{0x44, 0x55, 0x4D, 0x4D, 0x59}

// DummyType is a zero-size sentinel type with the EmptyType layout: it
// occupies zero bytes on the wire. The dispatcher does not use it; a handler
// with no reply returns nil from OutputMeta, which the dispatcher
// special-cases by framing no Data header.
type DummyType struct{}

func (DummyType) StructID() context.StructID             { return dummyTypeID }
func (DummyType) LatestVersion() uint32                  { return 1 }
func (DummyType) MinSupportedVersion() uint32            { return 1 }
func (DummyType) MandatoryDataFlags() context.DataFlags  { return 0 }
func (DummyType) ForbiddenDataFlags() context.DataFlags  { return 0 }
func (DummyType) Category() LayoutCategory               { return EmptyType }
func (DummyType) SerializeFields(io.Writer, *context.DataContext) status.Status   { return status.NoError }
func (DummyType) DeserializeFields(io.Reader, *context.DataContext) status.Status { return status.NoError }
