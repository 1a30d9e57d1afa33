package fixtures

import (
	"bytes"
	"testing"

	"github.com/ocx/csp/internal/csp/body"
	"github.com/ocx/csp/internal/csp/context"
	"github.com/ocx/csp/internal/csp/ptrkeeper"
	"github.com/ocx/csp/internal/csp/status"
)

func freshCtx(flags context.DataFlags, interfaceVersion uint32, notMatch bool) *context.DataContext {
	var keepers *ptrkeeper.List
	if flags.Has(context.AllowUnmanagedPointers) {
		keepers = &ptrkeeper.List{}
	}
	ctx, st := context.New(context.CommonHeader{}, context.DataHeader{DataFlags: flags, InterfaceVersion: interfaceVersion}, keepers)
	if st != status.NoError {
		panic(st)
	}
	ctx.InterfaceVersionsNotMatch = notMatch
	return ctx
}

func TestVector3FastPathRoundTrip(t *testing.T) {
	v := Vector3{X: 1.5, Y: -2.5, Z: 3.0}
	ctx := freshCtx(0, 1, false)
	var buf bytes.Buffer
	if st := body.Serialize(&v, ctx, &buf); st != status.NoError {
		t.Fatalf("Serialize: %v", st)
	}
	if buf.Len() != 12 {
		t.Fatalf("expected 12 bytes for three float32 fields, got %d", buf.Len())
	}
	var got Vector3
	if st := body.Deserialize(&got, ctx, &buf); st != status.NoError {
		t.Fatalf("Deserialize: %v", st)
	}
	if got != v {
		t.Fatalf("got %+v, want %+v", got, v)
	}
}

func TestUserProfileRoundTripWithPointerAndSlice(t *testing.T) {
	flags := context.AllowUnmanagedPointers
	ctx := freshCtx(flags, 2, false)
	p := UserProfile{
		Name: "Ada",
		Age:  30,
		Tags: []string{"admin", "beta"},
		HomeAddress: &Address{
			City: "London",
			Zip:  10000,
		},
	}
	var buf bytes.Buffer
	if st := body.Serialize(&p, ctx, &buf); st != status.NoError {
		t.Fatalf("Serialize: %v", st)
	}
	var got UserProfile
	if st := body.Deserialize(&got, ctx, &buf); st != status.NoError {
		t.Fatalf("Deserialize: %v", st)
	}
	if got.Name != p.Name || got.Age != p.Age {
		t.Fatalf("got %+v, want %+v", got, p)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "admin" || got.Tags[1] != "beta" {
		t.Fatalf("Tags = %v", got.Tags)
	}
	if got.HomeAddress == nil || got.HomeAddress.City != "London" || got.HomeAddress.Zip != 10000 {
		t.Fatalf("HomeAddress = %+v", got.HomeAddress)
	}
}

func TestUserProfileNilPointerRoundTrip(t *testing.T) {
	flags := context.AllowUnmanagedPointers
	ctx := freshCtx(flags, 2, false)
	p := UserProfile{Name: "Grace", Age: 40, Tags: nil, HomeAddress: nil}
	var buf bytes.Buffer
	if st := body.Serialize(&p, ctx, &buf); st != status.NoError {
		t.Fatalf("Serialize: %v", st)
	}
	var got UserProfile
	if st := body.Deserialize(&got, ctx, &buf); st != status.NoError {
		t.Fatalf("Deserialize: %v", st)
	}
	if got.HomeAddress != nil {
		t.Fatalf("HomeAddress = %+v, want nil", got.HomeAddress)
	}
	if len(got.Tags) != 0 {
		t.Fatalf("Tags = %v, want empty", got.Tags)
	}
}

func TestUserProfileConvertToOldDropsTags(t *testing.T) {
	flags := context.AllowUnmanagedPointers
	writeCtx := freshCtx(flags, 1, true)
	p := UserProfile{
		Name:        "Ada",
		Age:         30,
		Tags:        []string{"ignored-on-old-wire"},
		HomeAddress: &Address{City: "Paris", Zip: 75000},
	}
	var buf bytes.Buffer
	if st := body.Serialize(&p, writeCtx, &buf); st != status.NoError {
		t.Fatalf("Serialize (ConvertToOld): %v", st)
	}

	readCtx := freshCtx(flags, 1, true)
	var got UserProfile
	if st := body.Deserialize(&got, readCtx, &buf); st != status.NoError {
		t.Fatalf("Deserialize (ConvertFromOld): %v", st)
	}
	if got.Name != "Ada" || got.Age != 30 {
		t.Fatalf("got %+v", got)
	}
	if len(got.Tags) != 0 {
		t.Fatalf("Tags = %v, want empty after round-tripping through the v1 wire shape", got.Tags)
	}
	if got.HomeAddress == nil || got.HomeAddress.City != "Paris" {
		t.Fatalf("HomeAddress = %+v", got.HomeAddress)
	}
}
