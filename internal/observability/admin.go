package observability

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// NewAdminRouter builds the admin HTTP surface: /health and /metrics.
func NewAdminRouter(node string, logger zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	RegisterMetrics()

	started := time.Now()
	r := gin.New()
	r.Use(gin.Recovery(), AdminObserver(node, logger))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"node":    node,
			"uptime":  time.Since(started).Round(time.Second).String(),
			"service": "contactd",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}
