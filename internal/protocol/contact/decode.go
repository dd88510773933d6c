package contact

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

const (
	offVersion    = 4
	offFlags      = 5
	offKeepalive  = 6
	offSegmentMRU = 8
	offTransfer   = 16
	offEIDLen     = 24
)

// Decode parses one header from the start of buf and returns it with the
// number of bytes it occupied. Bytes after the header are ignored.
//
// A buffer that is a valid but short prefix yields an *IncompleteError; the
// caller should append more bytes and call Decode again from the same start.
// Any other error is a permanent format violation. buf is never modified.
func Decode(buf []byte) (Header, int, error) {
	if len(buf) < offVersion {
		return Header{}, 0, incomplete(NeedUnknown)
	}
	if !bytes.Equal(buf[:offVersion], magic[:]) {
		return Header{}, 0, fmt.Errorf("%w: % x", ErrBadMagic, buf[:offVersion])
	}

	if len(buf) <= offVersion {
		return Header{}, 0, incomplete(NeedUnknown)
	}
	if v := buf[offVersion]; v != Version {
		return Header{}, 0, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	if len(buf) <= offFlags {
		return Header{}, 0, incomplete(NeedUnknown)
	}
	flags, err := ParseFlags(buf[offFlags])
	if err != nil {
		return Header{}, 0, err
	}

	if len(buf) < FixedLen {
		return Header{}, 0, incomplete(NeedUnknown)
	}
	h := Header{
		flags:       flags,
		keepalive:   binary.BigEndian.Uint16(buf[offKeepalive:offSegmentMRU]),
		segmentMRU:  binary.BigEndian.Uint64(buf[offSegmentMRU:offTransfer]),
		transferMRU: binary.BigEndian.Uint64(buf[offTransfer:offEIDLen]),
	}

	eidLen := int(binary.BigEndian.Uint16(buf[offEIDLen:FixedLen]))
	if avail := len(buf) - FixedLen; avail < eidLen {
		return Header{}, 0, incomplete(eidLen - avail)
	}
	if eidLen > 0 {
		raw := buf[FixedLen : FixedLen+eidLen]
		if !utf8.Valid(raw) {
			return Header{}, 0, ErrEndpointIDNotUTF8
		}
		h.endpointID = string(raw)
	}
	return h, FixedLen + eidLen, nil
}
