package context

import (
	"github.com/ocx/csp/internal/csp/ptrkeeper"
	"github.com/ocx/csp/internal/csp/status"
)

// DataContext carries the per-message state a body-processor walk needs
// beyond the raw bytes: the negotiated headers, the version-mismatch flag
// armed by ValidateForStruct, the pointer-identity maps used when
// CheckRecursivePointers is set, and the ptr-keeper list that owns whatever
// the parser allocates while AllowUnmanagedPointers is set. Lives on the
// caller's stack for exactly one handleMessage call, per spec §5.
type DataContext struct {
	Common                    CommonHeader
	Header                    DataHeader
	InterfaceVersionsNotMatch bool

	serializeMap   map[any]uint64
	deserializeMap map[uint64]any
	nextPtrID      uint64

	Keepers *ptrkeeper.List
}

// New validates the resource-related invariants of spec §4.D steps 5-6 and
// constructs a DataContext ready for a body-processor walk. keepers must be
// non-nil whenever AllowUnmanagedPointers is set; pass nil otherwise.
func New(common CommonHeader, header DataHeader, keepers *ptrkeeper.List) (*DataContext, status.Status) {
	df := header.DataFlags
	if df.Has(CheckRecursivePointers) && !df.Has(AllowUnmanagedPointers) {
		return nil, status.ErrorNotCompatibleDataFlagsSettings
	}
	if df.Has(AllowUnmanagedPointers) && keepers == nil {
		return nil, status.ErrorInvalidArgument
	}
	ctx := &DataContext{Common: common, Header: header, Keepers: keepers}
	if df.Has(CheckRecursivePointers) {
		ctx.serializeMap = make(map[any]uint64)
		ctx.deserializeMap = make(map[uint64]any)
	}
	return ctx, status.NoError
}

// ArmConversion records that the wire interface version is older than the
// struct's latest, per ValidateForStruct's return value.
func (c *DataContext) ArmConversion(notMatch bool) { c.InterfaceVersionsNotMatch = notMatch }

// RecursionTracked reports whether pointer-identity maps are active.
func (c *DataContext) RecursionTracked() bool { return c.serializeMap != nil }

// AssignSerializeID returns the id previously assigned to ptr, or assigns
// and records a new one. isNew tells the caller whether to write the
// pointee bytes (new) or just the backref id.
func (c *DataContext) AssignSerializeID(ptr any) (id uint64, isNew bool) {
	if id, ok := c.serializeMap[ptr]; ok {
		return id, false
	}
	c.nextPtrID++
	id = c.nextPtrID
	c.serializeMap[ptr] = id
	return id, true
}

// RegisterDeserializedPtr records a freshly materialized pointee under id
// so a later backref can resolve it.
func (c *DataContext) RegisterDeserializedPtr(id uint64, ptr any) {
	c.deserializeMap[id] = ptr
}

// LookupDeserializedPtr resolves a backref id, as written by
// AssignSerializeID's "not new" branch's peer on the wire.
func (c *DataContext) LookupDeserializedPtr(id uint64) (any, bool) {
	ptr, ok := c.deserializeMap[id]
	return ptr, ok
}

// TrackKeeper appends an owned allocation to the context's ptr-keeper list.
// No-op if the context was constructed without AllowUnmanagedPointers.
func (c *DataContext) TrackKeeper(k *ptrkeeper.Keeper) {
	if c.Keepers != nil {
		c.Keepers.Append(k)
	}
}

// Close releases every ptr-keeper this context accumulated. Called when the
// context goes out of scope, successfully or not.
func (c *DataContext) Close() {
	if c.Keepers != nil {
		c.Keepers.ReleaseAll()
	}
}
