// Package contactd is a demonstration TCPCL listener.
//
// Each accepted connection is sent the local contact header first, then the
// peer's contact headers are decoded through a per-connection accumulator
// until the peer closes, goes idle past the read timeout, or sends bytes that
// violate the wire format.
package contactd
