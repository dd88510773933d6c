package contact

import (
	"fmt"
	"math"
	"unicode/utf8"
)

const (
	// Version is the only contact header version this package speaks.
	Version uint8 = 4
	// MaxEndpointIDLen is the largest endpoint id, in bytes, the length field can carry.
	MaxEndpointIDLen = math.MaxUint16
	// FixedLen is the header length without the endpoint id bytes.
	FixedLen = 26
	// MaxLen is the length of a header carrying the longest endpoint id.
	MaxLen = FixedLen + MaxEndpointIDLen
)

var magic = [4]byte{0x64, 0x74, 0x6e, 0x21} // dtn!

// Header is the contact header exchanged at session start. The zero value is
// a valid header: version 4, no flags, keepalive and MRUs zero, no endpoint id.
type Header struct {
	flags       Flags
	keepalive   uint16
	segmentMRU  uint64
	transferMRU uint64
	endpointID  string
}

// New returns a header with default values.
func New() Header {
	return Header{}
}

// SetEndpointID replaces the endpoint id. An empty id clears it. A rejected
// id leaves the previous value in place.
func (h *Header) SetEndpointID(eid string) (*Header, error) {
	if len(eid) > MaxEndpointIDLen {
		return h, fmt.Errorf("%w: %d bytes (max %d)", ErrEndpointIDTooLong, len(eid), MaxEndpointIDLen)
	}
	if !utf8.ValidString(eid) {
		return h, fmt.Errorf("%w: %q", ErrEndpointIDNotUTF8, eid)
	}
	h.endpointID = eid
	return h, nil
}

// WithFlags replaces the flag set.
func (h *Header) WithFlags(flags Flags) *Header {
	h.flags = flags
	return h
}

// WithKeepalive sets the keepalive interval in seconds; 0 disables keepalives.
func (h *Header) WithKeepalive(seconds uint16) *Header {
	h.keepalive = seconds
	return h
}

// WithSegmentMRU sets the maximum receivable segment size.
func (h *Header) WithSegmentMRU(n uint64) *Header {
	h.segmentMRU = n
	return h
}

// WithTransferMRU sets the maximum receivable transfer size.
func (h *Header) WithTransferMRU(n uint64) *Header {
	h.transferMRU = n
	return h
}

// SetFlag sets a single flag. Setting an already set flag is a no-op.
func (h *Header) SetFlag(f Flag) {
	h.flags = h.flags.With(f)
}

// UnsetFlag clears a single flag. Clearing an unset flag is a no-op.
func (h *Header) UnsetFlag(f Flag) {
	h.flags = h.flags.Without(f)
}

// ClearFlags resets the flag set to empty.
func (h *Header) ClearFlags() {
	h.flags = Flags{}
}

// Version is always the package Version; no other version can be built or decoded.
func (h Header) Version() uint8 { return Version }

func (h Header) Flags() Flags { return h.flags }
func (h Header) Keepalive() uint16 { return h.keepalive }
func (h Header) SegmentMRU() uint64 { return h.segmentMRU }
func (h Header) TransferMRU() uint64 { return h.transferMRU }

// EndpointID returns the endpoint id and whether one is present.
func (h Header) EndpointID() (string, bool) {
	return h.endpointID, h.endpointID != ""
}

// Len returns the encoded length of h.
func (h Header) Len() int {
	return FixedLen + len(h.endpointID)
}

// Equal reports whether h and o carry identical field values.
func (h Header) Equal(o Header) bool {
	return h == o
}

func (h Header) String() string {
	eid := "<none>"
	if id, ok := h.EndpointID(); ok {
		eid = fmt.Sprintf("%q", id)
	}
	return fmt.Sprintf(
		"contact.Header{version=%d flags=%s keepalive=%d segment_mru=%d transfer_mru=%d eid=%s}",
		Version, h.flags, h.keepalive, h.segmentMRU, h.transferMRU, eid,
	)
}
