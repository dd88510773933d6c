// Package contact owns the TCPCL contact header wire contract.
//
// Ownership boundary:
// - header model and builder
// - flag set parsing
// - encode/decode primitives and format violations
//
// Wire layout (big-endian):
//
//	offset  size  field
//	0       4     magic "dtn!"
//	4       1     version (4)
//	5       1     flags
//	6       2     keepalive seconds
//	8       8     segment MRU
//	16      8     transfer MRU
//	24      2     endpoint id length L
//	26      L     endpoint id (UTF-8)
//
// The package holds no state across calls and never retains caller buffers.
package contact
