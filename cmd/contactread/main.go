// Command contactread decodes a contact header from stdin.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/danmuck/tcpcl/internal/observability"
	"github.com/danmuck/tcpcl/internal/protocol/contact"
	"github.com/rs/zerolog/log"
)

func main() {
	observability.InitLogger("contactread", os.Stderr)
	if err := run(os.Stdin, os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("contactread failed")
	}
}

func run(r io.Reader, w io.Writer) error {
	buf, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	h, n, err := contact.Decode(buf)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s\nconsumed=%d\n", h, n); err != nil {
		return err
	}
	if trailing := len(buf) - n; trailing > 0 {
		log.Warn().Int("consumed", n).Int("trailing", trailing).Msg("input continues past contact header")
	}
	return nil
}
