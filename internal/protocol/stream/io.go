package stream

import (
	"context"
	"errors"
	"io"

	"github.com/danmuck/tcpcl/internal/protocol/contact"
)

// ReadHeader reads from r into acc until one header decodes. It never asks r
// for more bytes than acc reports missing, so bytes following the header stay
// in r. Bytes already pending in acc are decoded first.
//
// ctx is checked between reads; a blocked Read is only released by r itself
// (for example a connection deadline).
func ReadHeader(ctx context.Context, r io.Reader, acc *Accumulator) (contact.Header, error) {
	chunk := make([]byte, contact.FixedLen)
	for {
		h, ok, err := acc.Next()
		if err != nil {
			return contact.Header{}, err
		}
		if ok {
			return h, nil
		}
		if err := ctx.Err(); err != nil {
			return contact.Header{}, err
		}

		want := acc.Remaining()
		if want > cap(chunk) {
			chunk = make([]byte, want)
		}
		n, rerr := r.Read(chunk[:want])
		if n > 0 {
			if _, err := acc.Write(chunk[:n]); err != nil {
				return contact.Header{}, err
			}
		}
		if rerr == nil {
			continue
		}
		if h, ok, err := acc.Next(); err != nil {
			return contact.Header{}, err
		} else if ok {
			return h, nil
		}
		if errors.Is(rerr, io.EOF) {
			if acc.Buffered() == 0 {
				return contact.Header{}, io.EOF
			}
			return contact.Header{}, io.ErrUnexpectedEOF
		}
		return contact.Header{}, rerr
	}
}

// WriteHeader writes the whole encoding of h to w.
func WriteHeader(w io.Writer, h contact.Header) (int, error) {
	buf := contact.Encode(h)
	written := 0
	for written < len(buf) {
		n, err := w.Write(buf[written:])
		written += n
		if err != nil {
			return written, err
		}
		if n == 0 {
			return written, io.ErrShortWrite
		}
	}
	return written, nil
}
