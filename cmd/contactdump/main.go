// Command contactdump writes an encoded contact header to stdout.
package main

import (
	"errors"
	"flag"
	"io"
	"os"

	"github.com/danmuck/tcpcl/internal/observability"
	"github.com/danmuck/tcpcl/internal/protocol/contact"
	"github.com/danmuck/tcpcl/internal/protocol/stream"
	"github.com/rs/zerolog/log"
)

var errKeepaliveRange = errors.New("contactdump: keepalive must fit in 16 bits")

type options struct {
	eid         string
	canTLS      bool
	keepalive   uint
	segmentMRU  uint64
	transferMRU uint64
}

func main() {
	observability.InitLogger("contactdump", os.Stderr)

	var opts options
	flag.StringVar(&opts.eid, "eid", "localhost", "endpoint id; empty sends none")
	flag.BoolVar(&opts.canTLS, "tls", true, "advertise TLS capability")
	flag.UintVar(&opts.keepalive, "keepalive", 0, "keepalive interval in seconds (0-65535)")
	flag.Uint64Var(&opts.segmentMRU, "segment-mru", 0, "maximum receivable segment size")
	flag.Uint64Var(&opts.transferMRU, "transfer-mru", 0, "maximum receivable transfer size")
	flag.Parse()

	if err := run(os.Stdout, opts); err != nil {
		log.Fatal().Err(err).Msg("contactdump failed")
	}
}

func run(w io.Writer, opts options) error {
	h, err := buildHeader(opts)
	if err != nil {
		return err
	}
	n, err := stream.WriteHeader(w, h)
	if err != nil {
		return err
	}
	log.Debug().Int("bytes", n).Str("header", h.String()).Msg("contact header written")
	return nil
}

func buildHeader(opts options) (contact.Header, error) {
	if opts.keepalive > 0xffff {
		return contact.Header{}, errKeepaliveRange
	}
	h := contact.New()
	if opts.canTLS {
		h.SetFlag(contact.FlagCanTLS)
	}
	h.WithKeepalive(uint16(opts.keepalive)).
		WithSegmentMRU(opts.segmentMRU).
		WithTransferMRU(opts.transferMRU)
	if _, err := h.SetEndpointID(opts.eid); err != nil {
		return contact.Header{}, err
	}
	return h, nil
}
