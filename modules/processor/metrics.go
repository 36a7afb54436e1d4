package processor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pagescout",
		Name:      "processor_requests_total",
		Help:      "Processing requests answered, by reply status.",
	}, []string{"status"})
	metricRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pagescout",
		Name:      "processor_request_duration_seconds",
		Help:      "Wall-clock time from accepting a connection to replying.",
		Buckets:   prometheus.DefBuckets,
	})
	metricActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pagescout",
		Name:      "processor_active_connections",
		Help:      "Connections currently being served.",
	})
)
