package observability

import (
	"io"

	"github.com/danmuck/tcpcl/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger configures the runtime logging profile and installs an app
// scoped logger writing to out (stdout when nil) as the global logger.
func InitLogger(app string, out io.Writer) zerolog.Logger {
	cfg := logging.Configure(logging.ProfileRuntime)
	if out != nil {
		cfg.Out = out
	}
	logger := logging.New(cfg).With().Str("app", app).Logger()
	log.Logger = logger
	return logger
}
