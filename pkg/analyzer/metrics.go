package analyzer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricAnalyzerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pagescout",
		Name:      "analyzer_duration_seconds",
		Help:      "Time spent in each analyzer.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"analyzer"})
	metricAnalyzerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pagescout",
		Name:      "analyzer_failures_total",
		Help:      "Total analyzer runs that failed or panicked.",
	}, []string{"analyzer"})
)
