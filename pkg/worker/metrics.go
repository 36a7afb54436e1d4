package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricWorkQueueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pagescout",
		Name:      "work_queue_length",
		Help:      "Current length of the work queue.",
	})
	metricWorkQueueMax = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pagescout",
		Name:      "work_queue_max",
		Help:      "Maximum number of items in the work queue.",
	})
	metricJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pagescout",
		Name:      "worker_jobs_total",
		Help:      "Total jobs run by outcome.",
	}, []string{"outcome"})
)
