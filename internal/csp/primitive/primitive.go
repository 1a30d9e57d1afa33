// Package primitive implements Component E: endian-aware reads and writes
// of the scalar values a generated struct codec is built from. It stands in
// for the reference implementation's sizeof-driven templates
// (_examples/original_source/csp_base/include/common_serialization/csp_base/processing/DataBodyProcessor.h)
// using Go generics over encoding/binary, grounded on the teacher's
// field-by-field binary.Write/Read style in
// internal/protocol/frame.go's Marshal/Unmarshal.
package primitive

import (
	"encoding/binary"
	"io"
	"math"
	"unsafe"

	"github.com/ocx/csp/internal/csp/status"
)

// Fixed is any scalar type whose wire representation is a direct byte copy:
// fixed-width integers, platform-sized integers, and floats.
type Fixed interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 |
		~int | ~uint | ~float32 | ~float64
}

func byteOrder(swapEndian bool) binary.ByteOrder {
	if swapEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// WriteFixed writes v in wire order. swapEndian is true only when the
// context's EndiannessNotMatch flag is set, per spec §4.E.
func WriteFixed[T Fixed](w io.Writer, v T, swapEndian bool) status.Status {
	if err := binary.Write(w, byteOrder(swapEndian), v); err != nil {
		return status.ErrorNoMemory
	}
	return status.NoError
}

// ReadFixed reads one T from r in wire order.
func ReadFixed[T Fixed](r io.Reader, out *T, swapEndian bool) status.Status {
	if err := binary.Read(r, byteOrder(swapEndian), out); err != nil {
		return status.ErrorOverflow
	}
	return status.NoError
}

// WriteRawArray bulk-writes arr as a single wire write, used on the fast
// path when the element is fixed-width or the size-elasticity flag is off.
func WriteRawArray[T Fixed](w io.Writer, arr []T, swapEndian bool) status.Status {
	if len(arr) == 0 {
		return status.NoError
	}
	if err := binary.Write(w, byteOrder(swapEndian), arr); err != nil {
		return status.ErrorNoMemory
	}
	return status.NoError
}

// ReadRawArray mirrors WriteRawArray; out must already be sized.
func ReadRawArray[T Fixed](r io.Reader, out []T, swapEndian bool) status.Status {
	if len(out) == 0 {
		return status.NoError
	}
	if err := binary.Read(r, byteOrder(swapEndian), out); err != nil {
		return status.ErrorOverflow
	}
	return status.NoError
}

// Integer restricts to the types the elastic-size codec operates on
// (size_t-ish platform integers, not floats).
type Integer interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~int | ~uint
}

func isSigned[T Integer]() bool {
	var zero T
	return zero-1 < zero
}

// WriteIntSize writes sizeof(T) as a leading u8 followed by the value,
// used when SizeOfIntegersMayBeNotEqual is set for a platform-sized field.
func WriteIntSize[T Integer](w io.Writer, v T, swapEndian bool) status.Status {
	size := uint8(unsafe.Sizeof(v))
	if err := binary.Write(w, binary.LittleEndian, size); err != nil {
		return status.ErrorNoMemory
	}
	return WriteFixed(w, v, swapEndian)
}

// ReadIntSize reads the wire-side size prefix, then widens or narrows into
// T, sign-extending signed values and overflow-checking narrowing casts.
func ReadIntSize[T Integer](r io.Reader, out *T, swapEndian bool) status.Status {
	var wireSize uint8
	if err := binary.Read(r, binary.LittleEndian, &wireSize); err != nil {
		return status.ErrorOverflow
	}
	localSize := uint8(unsafe.Sizeof(*out))
	buf := make([]byte, wireSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return status.ErrorOverflow
	}
	littleEndian := !swapEndian

	if isSigned[T]() {
		v := decodeSigned(buf, littleEndian)
		if wireSize > localSize {
			lo, hi := signedRange(localSize)
			if v < lo || v > hi {
				return status.ErrorValueOverflow
			}
		}
		*out = T(v)
		return status.NoError
	}

	v := decodeUnsigned(buf, littleEndian)
	if wireSize > localSize {
		if v > unsignedMax(localSize) {
			return status.ErrorValueOverflow
		}
	}
	*out = T(v)
	return status.NoError
}

func decodeUnsigned(buf []byte, littleEndian bool) uint64 {
	var u uint64
	n := len(buf)
	for i := 0; i < n; i++ {
		var b byte
		if littleEndian {
			b = buf[i]
		} else {
			b = buf[n-1-i]
		}
		u |= uint64(b) << (8 * uint(i))
	}
	return u
}

func decodeSigned(buf []byte, littleEndian bool) int64 {
	u := decodeUnsigned(buf, littleEndian)
	n := len(buf)
	if n > 0 && n < 8 {
		signBit := uint64(1) << (8*uint(n) - 1)
		if u&signBit != 0 {
			u |= ^uint64(0) << (8 * uint(n))
		}
	}
	return int64(u)
}

func signedRange(size uint8) (lo, hi int64) {
	switch size {
	case 1:
		return math.MinInt8, math.MaxInt8
	case 2:
		return math.MinInt16, math.MaxInt16
	case 4:
		return math.MinInt32, math.MaxInt32
	default:
		return math.MinInt64, math.MaxInt64
	}
}

func unsignedMax(size uint8) uint64 {
	switch size {
	case 1:
		return math.MaxUint8
	case 2:
		return math.MaxUint16
	case 4:
		return math.MaxUint32
	default:
		return math.MaxUint64
	}
}

// WriteSize serializes a container length as a portable u64, per spec §4.E's
// size_t rule.
func WriteSize(w io.Writer, n int) status.Status {
	if n < 0 {
		return status.ErrorInvalidArgument
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(n)); err != nil {
		return status.ErrorNoMemory
	}
	return status.NoError
}

// ReadSize reads a portable u64 length and narrows it to the platform int,
// failing with ErrorValueOverflow if it cannot fit.
func ReadSize(r io.Reader) (int, status.Status) {
	var v uint64
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, status.ErrorOverflow
	}
	if v > math.MaxInt {
		return 0, status.ErrorValueOverflow
	}
	return int(v), status.NoError
}

// WriteString serializes a string as a size-prefixed raw byte sequence,
// the same shape as a variable-length sequence of bytes in spec §4.F.
func WriteString(w io.Writer, s string) status.Status {
	if st := WriteSize(w, len(s)); st != status.NoError {
		return st
	}
	if _, err := io.WriteString(w, s); err != nil {
		return status.ErrorNoMemory
	}
	return status.NoError
}

// ReadString mirrors WriteString.
func ReadString(r io.Reader) (string, status.Status) {
	n, st := ReadSize(r)
	if st != status.NoError {
		return "", st
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", status.ErrorOverflow
	}
	return string(buf), status.NoError
}
