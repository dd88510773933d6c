package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Decode outcome labels.
const (
	OutcomeComplete = "complete"
	OutcomeInvalid  = "invalid"
	OutcomeTimeout  = "timeout"
	OutcomeEOF      = "eof"
)

// Byte direction labels.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tcpcl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tcpcl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	contactDecodes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tcpcl",
			Subsystem: "contact",
			Name:      "decode_total",
			Help:      "Contact header read attempts by outcome.",
		},
		[]string{"node", "outcome"},
	)
	contactBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tcpcl",
			Subsystem: "contact",
			Name:      "bytes_total",
			Help:      "Contact header bytes sent and received.",
		},
		[]string{"node", "direction"},
	)
	activeConns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "tcpcl",
			Subsystem: "contactd",
			Name:      "active_connections",
			Help:      "Open contactd connections.",
		},
		[]string{"node"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, contactDecodes, contactBytes, activeConns)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordContactDecode(node, outcome string) {
	RegisterMetrics()
	contactDecodes.WithLabelValues(node, outcome).Inc()
}

func RecordContactBytes(node, direction string, n int) {
	if n <= 0 {
		return
	}
	RegisterMetrics()
	contactBytes.WithLabelValues(node, direction).Add(float64(n))
}

func AddActiveConnections(node string, delta int) {
	RegisterMetrics()
	activeConns.WithLabelValues(node).Add(float64(delta))
}
