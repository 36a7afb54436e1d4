package wire

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricClientCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pagescout",
		Name:      "processing_client_calls_total",
		Help:      "Total processing RPC calls by outcome.",
	}, []string{"outcome"})
	metricClientCallDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pagescout",
		Name:      "processing_client_call_duration_seconds",
		Help:      "Time spent on one processing RPC round trip.",
		Buckets:   prometheus.DefBuckets,
	})
)
