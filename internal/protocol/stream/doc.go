// Package stream adapts the contact codec to byte streams.
//
// Ownership boundary:
// - partial-read accumulation for one connection
// - reading one header from an io.Reader without over-reading
// - writing a full header encoding to an io.Writer
package stream
