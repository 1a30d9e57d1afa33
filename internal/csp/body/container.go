package body

import (
	"io"

	"github.com/ocx/csp/internal/csp/context"
	"github.com/ocx/csp/internal/csp/primitive"
	"github.com/ocx/csp/internal/csp/status"
)

// WriteSlice serializes a variable-length sequence: a portable size_t
// length prefix followed by each element in order, per spec §4.F.
func WriteSlice[T any](w io.Writer, items []T, ctx *context.DataContext, serializeElem func(T, *context.DataContext, io.Writer) status.Status) status.Status {
	if st := primitive.WriteSize(w, len(items)); st != status.NoError {
		return st
	}
	for _, item := range items {
		if st := serializeElem(item, ctx, w); st != status.NoError {
			return st
		}
	}
	return status.NoError
}

// ReadSlice mirrors WriteSlice.
func ReadSlice[T any](r io.Reader, ctx *context.DataContext, deserializeElem func(*context.DataContext, io.Reader) (T, status.Status)) ([]T, status.Status) {
	n, st := primitive.ReadSize(r)
	if st != status.NoError {
		return nil, st
	}
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		v, st := deserializeElem(ctx, r)
		if st != status.NoError {
			return nil, st
		}
		out = append(out, v)
	}
	return out, status.NoError
}

// WritePair serializes first then second, per spec §4.F's Pair rule.
func WritePair[A, B any](w io.Writer, a A, b B, ctx *context.DataContext,
	serializeA func(A, *context.DataContext, io.Writer) status.Status,
	serializeB func(B, *context.DataContext, io.Writer) status.Status) status.Status {
	if st := serializeA(a, ctx, w); st != status.NoError {
		return st
	}
	return serializeB(b, ctx, w)
}

// ReadPair mirrors WritePair.
func ReadPair[A, B any](r io.Reader, ctx *context.DataContext,
	deserializeA func(*context.DataContext, io.Reader) (A, status.Status),
	deserializeB func(*context.DataContext, io.Reader) (B, status.Status)) (A, B, status.Status) {
	var zeroA A
	var zeroB B
	a, st := deserializeA(ctx, r)
	if st != status.NoError {
		return zeroA, zeroB, st
	}
	b, st := deserializeB(ctx, r)
	if st != status.NoError {
		return zeroA, zeroB, st
	}
	return a, b, status.NoError
}

// WriteMap serializes a map as a size prefix followed by size x (key,
// value) pairs. Iteration order is Go's map order and is not meaningful on
// the wire beyond round-tripping the same set of entries.
func WriteMap[K comparable, V any](w io.Writer, m map[K]V, ctx *context.DataContext,
	serializeKey func(K, *context.DataContext, io.Writer) status.Status,
	serializeVal func(V, *context.DataContext, io.Writer) status.Status) status.Status {
	if st := primitive.WriteSize(w, len(m)); st != status.NoError {
		return st
	}
	for k, v := range m {
		if st := serializeKey(k, ctx, w); st != status.NoError {
			return st
		}
		if st := serializeVal(v, ctx, w); st != status.NoError {
			return st
		}
	}
	return status.NoError
}

// ReadMap mirrors WriteMap.
func ReadMap[K comparable, V any](r io.Reader, ctx *context.DataContext,
	deserializeKey func(*context.DataContext, io.Reader) (K, status.Status),
	deserializeVal func(*context.DataContext, io.Reader) (V, status.Status)) (map[K]V, status.Status) {
	n, st := primitive.ReadSize(r)
	if st != status.NoError {
		return nil, st
	}
	out := make(map[K]V, n)
	for i := 0; i < n; i++ {
		k, st := deserializeKey(ctx, r)
		if st != status.NoError {
			return nil, st
		}
		v, st := deserializeVal(ctx, r)
		if st != status.NoError {
			return nil, st
		}
		out[k] = v
	}
	return out, status.NoError
}
