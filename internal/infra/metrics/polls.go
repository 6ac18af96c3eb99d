package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(pollsTotal, backendRequestSeconds) }

var pollsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "research_polls_total",
		Help: "Total status polls observed, labeled by outcome.",
	},
	[]string{"outcome"}, // 'running', 'completed', 'failed', 'error'
)

var backendRequestSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "research_backend_request_seconds",
		Help:    "Round-trip time of backend HTTP requests.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"provider", "method"},
)

func IncPoll(outcome string) { pollsTotal.WithLabelValues(outcome).Inc() }

func ObserveBackendRequest(provider, method string, elapsed time.Duration) {
	backendRequestSeconds.WithLabelValues(provider, method).Observe(elapsed.Seconds())
}
