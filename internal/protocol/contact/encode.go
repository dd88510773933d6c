package contact

import "encoding/binary"

// Encode returns the wire encoding of h.
func Encode(h Header) []byte {
	return AppendEncode(make([]byte, 0, h.Len()), h)
}

// AppendEncode appends the wire encoding of h to dst.
func AppendEncode(dst []byte, h Header) []byte {
	if len(h.endpointID) > MaxEndpointIDLen {
		// SetEndpointID rejects these, so reaching here is a bug in this package.
		panic("contact: endpoint id exceeds length field")
	}
	dst = append(dst, magic[:]...)
	dst = append(dst, Version, h.flags.octet())
	dst = binary.BigEndian.AppendUint16(dst, h.keepalive)
	dst = binary.BigEndian.AppendUint64(dst, h.segmentMRU)
	dst = binary.BigEndian.AppendUint64(dst, h.transferMRU)
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(h.endpointID)))
	return append(dst, h.endpointID...)
}
