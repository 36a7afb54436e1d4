package frontend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pagescout",
		Name:      "frontend_requests_total",
		Help:      "HTTP requests served, by route and status code.",
	}, []string{"route", "status"})
	metricRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pagescout",
		Name:      "frontend_request_duration_seconds",
		Help:      "HTTP request duration by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
	metricCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pagescout",
		Name:      "frontend_cache_lookups_total",
		Help:      "Result cache consultations on submission, by outcome.",
	}, []string{"outcome"})
	metricRateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pagescout",
		Name:      "frontend_rate_limited_total",
		Help:      "Submissions rejected by the per-domain rate limiter.",
	})
)
