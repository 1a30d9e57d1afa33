package body

import (
	"io"

	"github.com/ocx/csp/internal/csp/context"
	"github.com/ocx/csp/internal/csp/primitive"
	"github.com/ocx/csp/internal/csp/ptrkeeper"
	"github.com/ocx/csp/internal/csp/status"
)

// Pointer tags, written as a single byte ahead of the pointee (if any),
// per spec §4.F's "Raw pointer T*" rule.
const (
	tagNull    byte = 0
	tagNew     byte = 1
	tagBackref byte = 2
)

// ElemSerializer serializes one pointee's bytes.
type ElemSerializer[T any] func(v *T, ctx *context.DataContext, w io.Writer) status.Status

// ElemDeserializer fills a freshly allocated pointee's bytes.
type ElemDeserializer[T any] func(v *T, ctx *context.DataContext, r io.Reader) status.Status

// WritePointer serializes *T, consulting the context's recursion map when
// CheckRecursivePointers is set and otherwise requiring only
// AllowUnmanagedPointers.
func WritePointer[T any](w io.Writer, ptr *T, ctx *context.DataContext, serializeElem ElemSerializer[T]) status.Status {
	if ptr == nil {
		return writeTag(w, tagNull)
	}
	df := ctx.Header.DataFlags
	if df.Has(context.CheckRecursivePointers) {
		id, isNew := ctx.AssignSerializeID(ptr)
		if !isNew {
			if st := writeTag(w, tagBackref); st != status.NoError {
				return st
			}
			return primitive.WriteFixed(w, id, false)
		}
		if st := writeTag(w, tagNew); st != status.NoError {
			return st
		}
		if st := primitive.WriteFixed(w, id, false); st != status.NoError {
			return st
		}
		return serializeElem(ptr, ctx, w)
	}
	if !df.Has(context.AllowUnmanagedPointers) {
		return status.ErrorNotCompatibleDataFlagsSettings
	}
	if st := writeTag(w, tagNew); st != status.NoError {
		return st
	}
	return serializeElem(ptr, ctx, w)
}

// ReadPointer mirrors WritePointer, allocating a new T on "new" tags,
// resolving the context's recursion map on "backref" tags, and tracking
// every new allocation in the context's ptr-keeper list.
func ReadPointer[T any](r io.Reader, ctx *context.DataContext, deserializeElem ElemDeserializer[T]) (*T, status.Status) {
	var tagBuf [1]byte
	if _, err := io.ReadFull(r, tagBuf[:]); err != nil {
		return nil, status.ErrorOverflow
	}
	switch tagBuf[0] {
	case tagNull:
		return nil, status.NoError
	case tagBackref:
		var id uint64
		if st := primitive.ReadFixed(r, &id, false); st != status.NoError {
			return nil, st
		}
		resolved, ok := ctx.LookupDeserializedPtr(id)
		if !ok {
			return nil, status.ErrorInternal
		}
		typed, ok := resolved.(*T)
		if !ok {
			return nil, status.ErrorInvalidType
		}
		return typed, status.NoError
	case tagNew:
		df := ctx.Header.DataFlags
		var id uint64
		if df.Has(context.CheckRecursivePointers) {
			if st := primitive.ReadFixed(r, &id, false); st != status.NoError {
				return nil, st
			}
		} else if !df.Has(context.AllowUnmanagedPointers) {
			return nil, status.ErrorNotCompatibleDataFlagsSettings
		}
		value := new(T)
		// Register before recursing: a backref nested inside this pointee's
		// own fields (a cycle closing back through it) must resolve against
		// this identity while it is still being filled in, mirroring the
		// order WritePointer assigns ids in.
		if df.Has(context.CheckRecursivePointers) {
			ctx.RegisterDeserializedPtr(id, value)
		}
		if st := deserializeElem(value, ctx, r); st != status.NoError {
			return nil, st
		}
		ctx.TrackKeeper(ptrkeeper.New(value, 1, nil))
		return value, status.NoError
	default:
		return nil, status.ErrorDataCorrupted
	}
}

func writeTag(w io.Writer, tag byte) status.Status {
	if _, err := w.Write([]byte{tag}); err != nil {
		return status.ErrorNoMemory
	}
	return status.NoError
}
