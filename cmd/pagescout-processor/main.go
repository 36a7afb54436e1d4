package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/go-kit/log/level"
	dslog "github.com/grafana/dskit/log"
	"github.com/grafana/dskit/services"
	"github.com/grafana/dskit/signals"
	"github.com/prometheus/client_golang/prometheus"
	ver "github.com/prometheus/client_golang/prometheus/collectors/version"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/version"

	"github.com/pagescout/pagescout/modules/processor"
	"github.com/pagescout/pagescout/pkg/tracing"
	"github.com/pagescout/pagescout/pkg/util/log"
)

const appName = "pagescout-processor"

var (
	printVersion            bool
	logFormat               string
	logLevel                dslog.Level
	prometheusListenAddress string
	prometheusPath          string

	cfg processor.Config
)

func init() {
	prometheus.MustRegister(ver.NewCollector(appName))

	flag.BoolVar(&printVersion, "version", false, "Print this builds version information")
	flag.StringVar(&logFormat, "log.format", "logfmt", "Log format: logfmt or json.")
	flag.StringVar(&prometheusPath, "prometheus-path", "/metrics", "The path to publish Prometheus metrics to.")
	flag.StringVar(&prometheusListenAddress, "prometheus-listen-address", ":9010", "The address to listen on for Prometheus scrapes.")

	logLevel.RegisterFlags(flag.CommandLine)
	cfg.RegisterFlagsAndApplyDefaults("", flag.CommandLine)
}

func main() {
	flag.Parse()

	if printVersion {
		fmt.Println(version.Print(appName))
		os.Exit(0)
	}

	logger := log.InitLogger(logFormat, logLevel)

	// Init tracer if OTEL_TRACES_EXPORTER, OTEL_EXPORTER_OTLP_ENDPOINT or OTEL_EXPORTER_OTLP_TRACES_ENDPOINT is set
	if os.Getenv("OTEL_TRACES_EXPORTER") != "" || os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" || os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT") != "" {
		shutdownTracer, err := tracing.InstallOpenTelemetryTracer(appName, version.Version)
		if err != nil {
			level.Error(logger).Log("msg", "error initialising tracer", "err", err)
			os.Exit(1)
		}
		defer shutdownTracer()
	}

	http.Handle(prometheusPath, promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(prometheusListenAddress, nil); err != nil {
			level.Error(logger).Log("msg", "prometheus listener failed", "err", err)
		}
	}()

	proc := processor.New(cfg, logger)
	if err := services.StartAndAwaitRunning(context.Background(), proc); err != nil {
		level.Error(logger).Log("msg", "error starting processing server", "err", err)
		os.Exit(1)
	}

	level.Info(logger).Log("msg", "processing server up", "addr", proc.Addr(), "version", version.Info())

	// Block until a termination signal arrives, then drain.
	handler := signals.NewHandler(logger)
	handler.Loop()

	if err := services.StopAndAwaitTerminated(context.Background(), proc); err != nil {
		level.Error(logger).Log("msg", "error stopping processing server", "err", err)
		os.Exit(1)
	}
}
