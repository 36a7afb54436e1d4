package main

import "github.com/prometheus/client_golang/prometheus"

const namespace = "pagescout_prober"

var (
	metricProbesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "probes_total",
		Help:      "The total number of probe cycles started",
	})
	metricProbeErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "probe_errors_total",
		Help:      "The total number of probe failures by type",
	}, []string{"error"})
	metricErrorTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "error_total",
		Help:      "The total number of errors",
	})
)

func init() {
	prometheus.MustRegister(metricProbesTotal)
	prometheus.MustRegister(metricProbeErrors)
	prometheus.MustRegister(metricErrorTotal)
}
