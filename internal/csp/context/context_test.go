package context

import (
	"bytes"
	"testing"

	"github.com/ocx/csp/internal/csp/ptrkeeper"
	"github.com/ocx/csp/internal/csp/status"
)

func TestCommonHeaderRoundTrip(t *testing.T) {
	h := CommonHeader{ProtocolVersion: 3, MessageKind: KindData, CommonFlags: Bitness32}
	var buf bytes.Buffer
	if st := h.Serialize(&buf); st != status.NoError {
		t.Fatalf("Serialize: %v", st)
	}
	got, st := DeserializeCommonHeader(&buf)
	if st != status.NoError {
		t.Fatalf("Deserialize: %v", st)
	}
	if got != h {
		t.Fatalf("got %+v, want %+v", got, h)
	}
}

func TestCommonHeaderValidateProtocolVersionRange(t *testing.T) {
	h := CommonHeader{ProtocolVersion: 1}
	if st := h.Validate(2, 5); st != status.ErrorNotSupportedProtocolVersion {
		t.Fatalf("Validate = %v, want ErrorNotSupportedProtocolVersion", st)
	}
	h.ProtocolVersion = 3
	if st := h.Validate(2, 5); st != status.NoError {
		t.Fatalf("Validate = %v, want NoError", st)
	}
}

func TestCommonHeaderValidateEndiannessMismatch(t *testing.T) {
	h := CommonHeader{ProtocolVersion: 1, CommonFlags: BigEndianFormat}
	if st := h.Validate(0, 5); st != status.ErrorNotCompatibleCommonFlagsSettings {
		t.Fatalf("Validate = %v, want ErrorNotCompatibleCommonFlagsSettings", st)
	}
	h.CommonFlags |= EndiannessDifference
	if st := h.Validate(0, 5); st != status.NoError {
		t.Fatalf("Validate = %v, want NoError when EndiannessDifference tolerated", st)
	}
}

func TestDataHeaderRoundTrip(t *testing.T) {
	h := DataHeader{StructID: StructID{1, 2, 3}, InterfaceVersion: 7, DataFlags: AllowUnmanagedPointers}
	var buf bytes.Buffer
	if st := h.Serialize(&buf); st != status.NoError {
		t.Fatalf("Serialize: %v", st)
	}
	got, st := DeserializeDataHeaderNoChecks(&buf)
	if st != status.NoError {
		t.Fatalf("Deserialize: %v", st)
	}
	if got != h {
		t.Fatalf("got %+v, want %+v", got, h)
	}
}

type fakeMeta struct {
	id                 StructID
	latest, minSupport uint32
	mandatory, forbid  DataFlags
}

func (m fakeMeta) StructID() StructID              { return m.id }
func (m fakeMeta) LatestVersion() uint32           { return m.latest }
func (m fakeMeta) MinSupportedVersion() uint32     { return m.minSupport }
func (m fakeMeta) MandatoryDataFlags() DataFlags   { return m.mandatory }
func (m fakeMeta) ForbiddenDataFlags() DataFlags   { return m.forbid }

func TestValidateForStructMismatchedID(t *testing.T) {
	meta := fakeMeta{id: StructID{9}, latest: 1, minSupport: 1}
	h := DataHeader{StructID: StructID{1}, InterfaceVersion: 1}
	if _, st := ValidateForStruct(h, meta); st != status.ErrorMismatchOfStructId {
		t.Fatalf("ValidateForStruct = %v, want ErrorMismatchOfStructId", st)
	}
}

func TestValidateForStructArmsConversionOnOlderVersion(t *testing.T) {
	meta := fakeMeta{id: StructID{9}, latest: 3, minSupport: 1}
	h := DataHeader{StructID: StructID{9}, InterfaceVersion: 2}
	notMatch, st := ValidateForStruct(h, meta)
	if st != status.NoError {
		t.Fatalf("ValidateForStruct: %v", st)
	}
	if !notMatch {
		t.Fatal("expected interfaceVersionsNotMatch to be armed for an older declared version")
	}
}

func TestValidateForStructForbiddenFlag(t *testing.T) {
	meta := fakeMeta{id: StructID{9}, latest: 1, minSupport: 1, forbid: CheckRecursivePointers}
	h := DataHeader{StructID: StructID{9}, InterfaceVersion: 1, DataFlags: CheckRecursivePointers}
	if _, st := ValidateForStruct(h, meta); st != status.ErrorNotCompatibleDataFlagsSettings {
		t.Fatalf("ValidateForStruct = %v, want ErrorNotCompatibleDataFlagsSettings", st)
	}
}

func TestNewRejectsRecursiveWithoutUnmanaged(t *testing.T) {
	_, st := New(CommonHeader{}, DataHeader{DataFlags: CheckRecursivePointers}, nil)
	if st != status.ErrorNotCompatibleDataFlagsSettings {
		t.Fatalf("New = %v, want ErrorNotCompatibleDataFlagsSettings", st)
	}
}

func TestNewRejectsUnmanagedWithoutKeeperList(t *testing.T) {
	_, st := New(CommonHeader{}, DataHeader{DataFlags: AllowUnmanagedPointers}, nil)
	if st != status.ErrorInvalidArgument {
		t.Fatalf("New = %v, want ErrorInvalidArgument", st)
	}
}

func TestPointerIdentityRoundTrip(t *testing.T) {
	var keepers ptrkeeper.List
	ctx, st := New(CommonHeader{}, DataHeader{DataFlags: AllowUnmanagedPointers | CheckRecursivePointers}, &keepers)
	if st != status.NoError {
		t.Fatalf("New: %v", st)
	}
	if !ctx.RecursionTracked() {
		t.Fatal("RecursionTracked() should be true")
	}
	type node struct{ v int }
	p := &node{v: 1}
	id1, isNew1 := ctx.AssignSerializeID(p)
	if !isNew1 {
		t.Fatal("first assignment should be new")
	}
	id2, isNew2 := ctx.AssignSerializeID(p)
	if isNew2 || id2 != id1 {
		t.Fatalf("second assignment should reuse id %d, got %d isNew=%v", id1, id2, isNew2)
	}
	ctx.RegisterDeserializedPtr(id1, p)
	got, ok := ctx.LookupDeserializedPtr(id1)
	if !ok || got != any(p) {
		t.Fatalf("LookupDeserializedPtr = %v, %v", got, ok)
	}
	ctx.Close()
}
