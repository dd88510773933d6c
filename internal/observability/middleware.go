package observability

import (
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HeaderRequestID carries the admin request id, echoed from the caller when set.
const HeaderRequestID = "X-Request-Id"

var adminRequestSeq atomic.Uint64

// AdminObserver logs and counts each admin request for node. Scrapes of
// /metrics log at trace level so a Prometheus poller does not flood the log.
func AdminObserver(node string, logger zerolog.Logger) gin.HandlerFunc {
	logger = logger.With().Str("node", node).Logger()
	return func(c *gin.Context) {
		start := time.Now()
		id := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if id == "" {
			id = node + "-" + strconv.FormatUint(adminRequestSeq.Add(1), 10)
		}
		c.Header(HeaderRequestID, id)
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		elapsed := time.Since(start)
		RecordHTTPRequest(node, c.Request.Method, path, status, elapsed)

		event := logger.Debug()
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		case path == "/metrics":
			event = logger.Trace()
		}
		event.
			Str("request_id", id).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("duration", elapsed).
			Str("remote", c.ClientIP()).
			Msg("admin request")
	}
}
