package stream

import (
	"errors"
	"fmt"

	"github.com/danmuck/tcpcl/internal/protocol/contact"
)

// DefaultMaxBuffered bounds undecoded bytes held by an Accumulator.
const DefaultMaxBuffered = contact.MaxLen

var ErrBufferLimit = errors.New("stream: buffered bytes exceed limit")

// Accumulator buffers bytes from one connection until a whole contact header
// is available. It is owned by a single reader and is not safe for concurrent
// use.
type Accumulator struct {
	buf  []byte
	need int
	err  error
	max  int
}

// NewAccumulator returns an empty accumulator bounded by DefaultMaxBuffered.
func NewAccumulator() *Accumulator {
	return NewAccumulatorLimit(DefaultMaxBuffered)
}

// NewAccumulatorLimit returns an empty accumulator holding at most max bytes.
func NewAccumulatorLimit(max int) *Accumulator {
	if max <= 0 {
		max = DefaultMaxBuffered
	}
	return &Accumulator{need: contact.NeedUnknown, max: max}
}

// Write appends p to the pending bytes.
func (a *Accumulator) Write(p []byte) (int, error) {
	if a.err != nil {
		return 0, a.err
	}
	if len(a.buf)+len(p) > a.max {
		return 0, fmt.Errorf("%w: %d > %d", ErrBufferLimit, len(a.buf)+len(p), a.max)
	}
	a.buf = append(a.buf, p...)
	return len(p), nil
}

// Next decodes a header from the start of the pending bytes. ok is false with
// a nil error when more bytes are needed. A format violation is sticky: every
// later call returns the same error.
func (a *Accumulator) Next() (h contact.Header, ok bool, err error) {
	if a.err != nil {
		return contact.Header{}, false, a.err
	}
	h, n, err := contact.Decode(a.buf)
	if err != nil {
		if need, incomplete := contact.NeedOf(err); incomplete {
			a.need = need
			return contact.Header{}, false, nil
		}
		a.err = err
		return contact.Header{}, false, err
	}
	a.buf = append(a.buf[:0], a.buf[n:]...)
	a.need = contact.NeedUnknown
	return h, true, nil
}

// Need returns the exact number of bytes still missing, or
// contact.NeedUnknown when the shortfall cannot be computed yet.
func (a *Accumulator) Need() int {
	return a.need
}

// Remaining returns the minimum number of bytes that must arrive before Next
// can make progress.
func (a *Accumulator) Remaining() int {
	if a.need != contact.NeedUnknown {
		return a.need
	}
	if len(a.buf) < contact.FixedLen {
		return contact.FixedLen - len(a.buf)
	}
	return 1
}

// Buffered returns the number of pending bytes.
func (a *Accumulator) Buffered() int {
	return len(a.buf)
}

// Pending returns a copy of the bytes not yet consumed by a decoded header.
func (a *Accumulator) Pending() []byte {
	return append([]byte(nil), a.buf...)
}

// Err returns the sticky format violation, if any.
func (a *Accumulator) Err() error {
	return a.err
}

// Reset drops pending bytes and any sticky error.
func (a *Accumulator) Reset() {
	a.buf = a.buf[:0]
	a.need = contact.NeedUnknown
	a.err = nil
}
