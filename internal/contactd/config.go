package contactd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/tcpcl/internal/protocol/contact"
)

var (
	ErrMissingListenAddr = errors.New("contactd: listen addr required")
	ErrMissingNodeID     = errors.New("contactd: node id required")
	ErrInvalidTimeout    = errors.New("contactd: read timeout must not be negative")
)

// Config defines listener and advertised header settings.
type Config struct {
	NodeID          string
	ListenAddr      string
	AdminListenAddr string
	ReadTimeout     time.Duration
	Local           contact.Header
}

// DefaultConfig advertises TLS support with endpoint id "localhost" on the
// default TCPCL port.
func DefaultConfig() Config {
	local := contact.New()
	local.SetFlag(contact.FlagCanTLS)
	_, _ = local.SetEndpointID("localhost")
	return Config{
		NodeID:      "contactd",
		ListenAddr:  "127.0.0.1:4556",
		ReadTimeout: 5 * time.Second,
		Local:       local,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.NodeID) == "" {
		return ErrMissingNodeID
	}
	if strings.TrimSpace(c.ListenAddr) == "" {
		return ErrMissingListenAddr
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, c.ReadTimeout)
	}
	return nil
}
