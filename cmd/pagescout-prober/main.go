package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-test/deep"
	zaplogfmt "github.com/jsternberg/zap-logfmt"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pagescout/pagescout/pkg/api"
	"github.com/pagescout/pagescout/pkg/httpclient"
	"github.com/pagescout/pagescout/pkg/model"
)

var (
	prometheusListenAddress string
	prometheusPath          string

	pagescoutEndpoint    string
	probeURL             string
	probeBackoffDuration time.Duration
	probeTimeoutDuration time.Duration
	probePollInterval    time.Duration

	logger *zap.Logger
)

type probeMetrics struct {
	requested       int
	requestFailed   int
	notCached       int
	incorrectResult int
}

func init() {
	flag.StringVar(&prometheusPath, "prometheus-path", "/metrics", "The path to publish Prometheus metrics to.")
	flag.StringVar(&prometheusListenAddress, "prometheus-listen-address", ":80", "The address to listen on for Prometheus scrapes.")

	flag.StringVar(&pagescoutEndpoint, "pagescout-endpoint", "", "The URL (scheme://hostname:port) at which to reach the scraper front-end.")
	flag.StringVar(&probeURL, "probe-url", "", "The URL the prober submits for scraping.")
	flag.DurationVar(&probeBackoffDuration, "probe-backoff-duration", 30*time.Second, "The amount of time to pause between probe cycles")
	flag.DurationVar(&probeTimeoutDuration, "probe-timeout-duration", 2*time.Minute, "The time budget of one probe cycle")
	flag.DurationVar(&probePollInterval, "probe-poll-interval", 1500*time.Millisecond, "The delay between task status polls")
}

func main() {
	flag.Parse()

	config := zap.NewDevelopmentEncoderConfig()
	logger = zap.New(zapcore.NewCore(
		zaplogfmt.NewEncoder(config),
		os.Stdout,
		zapcore.DebugLevel,
	))

	logger.Info("pagescout prober starting")

	if pagescoutEndpoint == "" {
		logger.Fatal("-pagescout-endpoint is required")
	}
	if probeURL == "" {
		logger.Fatal("-probe-url is required")
	}

	client := httpclient.New(strings.TrimSuffix(pagescoutEndpoint, "/"))
	client.PollInterval = probePollInterval

	ticker := time.NewTicker(probeBackoffDuration)
	go func() {
		for now := range ticker.C {
			// a fresh seed per cycle defeats the result cache for the first
			// submission while keeping the resubmission a guaranteed hit
			target, err := seededProbeURL(probeURL, now)
			if err != nil {
				logger.Error("invalid probe url", zap.Error(err))
				metricErrorTotal.Inc()
				continue
			}

			pm, err := probePageScout(client, target)
			if err != nil {
				metricErrorTotal.Inc()
			}

			metricProbesTotal.Add(float64(pm.requested))
			metricProbeErrors.WithLabelValues("requestfailed").Add(float64(pm.requestFailed))
			metricProbeErrors.WithLabelValues("notcached").Add(float64(pm.notCached))
			metricProbeErrors.WithLabelValues("incorrectresult").Add(float64(pm.incorrectResult))
		}
	}()

	http.Handle(prometheusPath, promhttp.Handler())
	log.Fatal(http.ListenAndServe(prometheusListenAddress, nil))
}

func seededProbeURL(raw string, seed time.Time) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("seed", strconv.FormatInt(seed.Unix(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// probePageScout runs one probe cycle: scrape target end to end, check the
// document, then resubmit and check the cached copy matches.
func probePageScout(client *httpclient.Client, target string) (probeMetrics, error) {
	pm := probeMetrics{
		requested: 1,
	}

	log := logger.With(
		zap.String("probe_url", target),
	)
	log.Info("submitting probe")

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeoutDuration)
	defer cancel()

	start := time.Now()
	first, err := client.ScrapeAndWait(ctx, target)
	if err != nil {
		pm.requestFailed++
		log.Error("error scraping via pagescout", zap.Error(err))
		return pm, err
	}
	log.Info("probe completed", zap.Duration("elapsed", time.Since(start)), zap.String("status", first.Status))

	if bad := checkResult(first, target); bad != "" {
		pm.incorrectResult++
		log.Error("incorrect result document", zap.String("problem", bad))
	}

	// the same URL submitted again must be answered from cache with the
	// same document
	sub, err := client.Submit(ctx, target)
	if err != nil {
		pm.requestFailed++
		log.Error("error resubmitting probe", zap.Error(err))
		return pm, err
	}
	if !sub.Cached {
		pm.notCached++
		log.Error("resubmission was not answered from cache", zap.String("task_id", sub.TaskID))
		return pm, nil
	}

	second, err := client.Result(ctx, sub.TaskID)
	if err != nil {
		pm.requestFailed++
		log.Error("error fetching cached result", zap.Error(err))
		return pm, err
	}

	if !equalResults(first.Result, second.Result) {
		pm.incorrectResult++
		if diff := deep.Equal(first.Result, second.Result); diff != nil {
			for _, d := range diff {
				log.Error("cached result does not match",
					zap.String("expected -> response", d),
				)
			}
		}
	}

	return pm, nil
}

func checkResult(res *api.ResultResponse, target string) string {
	switch res.Status {
	case model.ResultStatusSuccess, model.ResultStatusPartial:
	default:
		return "unexpected status " + res.Status
	}
	if res.URL != target {
		return "url mismatch: " + res.URL
	}
	if res.ScrapingData == nil {
		return "missing scraping data"
	}
	if _, err := time.Parse(model.TimestampFormat, res.Timestamp); err != nil {
		return "unparsable timestamp " + res.Timestamp
	}
	return ""
}

func equalResults(a, b model.Result) bool {
	return reflect.DeepEqual(a, b)
}
