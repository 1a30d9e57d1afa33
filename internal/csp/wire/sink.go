// Package wire implements Component A: the append-only byte sink used for
// serialization and the cursored byte source used for deserialization. Both
// are thin wrappers around a []byte, grounded on the buffer-handling style
// of the teacher repo's internal/protocol.Frame.Marshal/Unmarshal.
package wire

import (
	"github.com/ocx/csp/internal/csp/status"
)

// reservedBytes is the capacity every serialization sink is pre-reserved to
// on construction, per spec §4.A.
const reservedBytes = 256

// Sink is an append-only byte buffer. It satisfies io.Writer so the
// primitive package can drive it with encoding/binary.
type Sink struct {
	buf []byte
}

// NewSink creates a sink reserved to 256 bytes.
func NewSink() *Sink {
	return &Sink{buf: make([]byte, 0, reservedBytes)}
}

// Write implements io.Writer. Appending to an in-memory slice cannot fail in
// practice; growth failures surface as a panic from the runtime allocator,
// consistent with the core doing no recovery of its own.
func (s *Sink) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	return len(p), nil
}

// Append is the Status-returning form used by code that isn't going through
// encoding/binary.
func (s *Sink) Append(p []byte) status.Status {
	s.buf = append(s.buf, p...)
	return status.NoError
}

// Reserve grows the backing array so that at least n further bytes can be
// appended without reallocating.
func (s *Sink) Reserve(n int) {
	if cap(s.buf)-len(s.buf) >= n {
		return
	}
	grown := make([]byte, len(s.buf), len(s.buf)+n)
	copy(grown, s.buf)
	s.buf = grown
}

// Size returns the number of bytes written so far.
func (s *Sink) Size() int { return len(s.buf) }

// Clear truncates the sink back to empty without releasing capacity.
func (s *Sink) Clear() { s.buf = s.buf[:0] }

// Bytes returns the sink's contents. The slice is owned by the sink and is
// invalidated by the next Write/Append/Clear.
func (s *Sink) Bytes() []byte { return s.buf }
