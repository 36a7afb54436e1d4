// Package scraper runs the scrape pipeline: fetch the page, parse it,
// delegate enrichment to the processing back-end, merge and publish the
// result.
package scraper

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/grafana/dskit/services"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/pagescout/pagescout/pkg/cache"
	"github.com/pagescout/pagescout/pkg/fetch"
	"github.com/pagescout/pagescout/pkg/model"
	"github.com/pagescout/pagescout/pkg/scrape"
	"github.com/pagescout/pagescout/pkg/task"
	"github.com/pagescout/pagescout/pkg/wire"
)

// Scraper owns the background pipelines. It is an idle service: stopping it
// cancels in-flight pipelines and waits for them to record their outcome.
type Scraper struct {
	services.Service

	cfg    Config
	logger log.Logger

	fetcher *fetch.Fetcher
	client  *wire.Client
	tasks   *task.Manager
	store   cache.Cache

	sem    *semaphore.Weighted
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func New(cfg Config, tasks *task.Manager, store cache.Cache, logger log.Logger) *Scraper {
	inflight := cfg.MaxInflight
	if inflight <= 0 {
		inflight = 64
	}

	s := &Scraper{
		cfg:     cfg,
		logger:  logger,
		fetcher: fetch.New(cfg.Fetch),
		client:  wire.NewClient(cfg.Processing, logger),
		tasks:   tasks,
		store:   store,
		sem:     semaphore.NewWeighted(int64(inflight)),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.Service = services.NewIdleService(s.starting, s.stopping)
	return s
}

func (s *Scraper) starting(_ context.Context) error { return nil }

func (s *Scraper) stopping(_ error) error {
	s.cancel()
	s.wg.Wait()
	return nil
}

// Schedule launches the pipeline for an already-created task. It returns
// immediately; the pipeline runs on its own goroutine, bounded by the
// in-flight semaphore.
func (s *Scraper) Schedule(id, url string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if err := s.sem.Acquire(s.ctx, 1); err != nil {
			s.fail(id, "Cancelled")
			return
		}
		defer s.sem.Release(1)

		s.pipeline(s.ctx, id, url)
	}()
}

func (s *Scraper) pipeline(ctx context.Context, id, url string) {
	start := time.Now()
	metricPipelinesActive.Inc()
	defer metricPipelinesActive.Dec()
	defer func() {
		metricPipelineDuration.Observe(time.Since(start).Seconds())
	}()

	if err := s.tasks.SetStatus(id, task.StatusScraping, ""); err != nil {
		level.Warn(s.logger).Log("msg", "skipping pipeline", "task", id, "err", err)
		return
	}

	fetchStart := time.Now()
	html, err := s.fetcher.Text(ctx, url)
	if err != nil {
		s.fail(id, fetchFailure(err))
		level.Warn(s.logger).Log("msg", "fetch failed", "task", id, "url", url, "err", err)
		return
	}
	level.Debug(s.logger).Log("msg", "page fetched", "task", id, "url", url,
		"size", humanize.Bytes(uint64(len(html))), "elapsed", time.Since(fetchStart))

	sd, imageURLs, err := scrape.Parse(html, url)
	if err != nil {
		s.fail(id, err.Error())
		level.Warn(s.logger).Log("msg", "parse failed", "task", id, "url", url, "err", err)
		return
	}

	if err := s.tasks.SetStatus(id, task.StatusProcessing, ""); err != nil {
		level.Warn(s.logger).Log("msg", "abandoning pipeline", "task", id, "err", err)
		return
	}

	resp := s.process(ctx, url, html, imageURLs, sd)
	result := buildResult(url, sd, resp)

	if err := s.tasks.SetResult(id, result); err != nil {
		level.Warn(s.logger).Log("msg", "could not record result", "task", id, "err", err)
		return
	}
	s.store.Set(ctx, url, result)

	metricPipelines.WithLabelValues(result.Status).Inc()
}

// process calls the back-end with every analysis flag set. RPC failures are
// folded into an error response so the pipeline completes partial instead of
// failing the task.
func (s *Scraper) process(ctx context.Context, url, html string, imageURLs []string, sd *model.ScrapingData) *wire.Response {
	images := imageURLs
	if len(images) > s.cfg.ImageLimit {
		images = images[:s.cfg.ImageLimit]
	}

	resp, err := s.client.Call(ctx, &wire.Request{
		URL:          url,
		Tasks:        wire.AllTasks(),
		ImageURLs:    images,
		HTML:         html,
		ScrapingData: sd,
	})
	if err != nil {
		level.Warn(s.logger).Log("msg", "processing call failed", "url", url, "err", err)
		return &wire.Response{Status: wire.StatusError, Error: err.Error()}
	}
	return resp
}

func buildResult(url string, sd *model.ScrapingData, resp *wire.Response) *model.Result {
	result := &model.Result{
		URL:          url,
		Timestamp:    time.Now().UTC().Format(model.TimestampFormat),
		ScrapingData: sd,
		Status:       model.ResultStatusSuccess,
	}

	if resp.Status == wire.StatusSuccess {
		result.ProcessingData = resp.ProcessingData
		if len(result.ProcessingData) == 0 {
			result.ProcessingData = json.RawMessage(`{}`)
		}
		return result
	}

	result.Status = model.ResultStatusPartial
	result.ProcessingData = json.RawMessage(`{}`)
	result.ProcessingError = resp.Error
	if result.ProcessingError == "" {
		result.ProcessingError = "processing failed"
	}
	return result
}

func (s *Scraper) fail(id, msg string) {
	metricPipelines.WithLabelValues("failed").Inc()
	if err := s.tasks.SetStatus(id, task.StatusFailed, msg); err != nil {
		level.Warn(s.logger).Log("msg", "could not fail task", "task", id, "err", err)
	}
}

func fetchFailure(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "Cancelled"
	case fetch.IsTimeout(err):
		return "Timeout"
	default:
		return err.Error()
	}
}
