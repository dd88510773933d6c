package testlog

import (
	"testing"

	"github.com/danmuck/tcpcl/internal/logging"
	"github.com/rs/zerolog"
)

// Start configures the test logging profile and returns a logger bound to t.
func Start(t *testing.T) zerolog.Logger {
	t.Helper()
	cfg := logging.ConfigureTests()
	logger := zerolog.New(zerolog.NewTestWriter(t)).Level(cfg.Level).With().Str("test", t.Name()).Logger()
	logger.Debug().Msg("start")
	return logger
}
