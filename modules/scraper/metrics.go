package scraper

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricPipelines = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pagescout",
		Name:      "pipelines_total",
		Help:      "Finished scrape pipelines by outcome (success, partial, failed).",
	}, []string{"outcome"})
	metricPipelinesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pagescout",
		Name:      "pipelines_active",
		Help:      "Scrape pipelines currently running.",
	})
	metricPipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pagescout",
		Name:      "pipeline_duration_seconds",
		Help:      "End-to-end scrape pipeline duration.",
		Buckets:   prometheus.DefBuckets,
	})
)
