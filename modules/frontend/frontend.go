// Package frontend is the HTTP face of the scraper: it validates and admits
// submissions, consults the result cache, schedules pipelines and serves
// task status, results and operational endpoints.
package frontend

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gorilla/mux"
	"github.com/grafana/dskit/services"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"github.com/pagescout/pagescout/pkg/api"
	"github.com/pagescout/pagescout/pkg/cache"
	"github.com/pagescout/pagescout/pkg/ratelimit"
	"github.com/pagescout/pagescout/pkg/task"
)

var tracer = otel.Tracer("modules/frontend")

// Scheduler starts the background pipeline for a created task.
type Scheduler interface {
	Schedule(id, url string)
}

// Frontend owns the HTTP server. It is a dskit service: starting binds the
// listener, running serves, stopping shuts the server down gracefully.
type Frontend struct {
	services.Service

	cfg    Config
	logger log.Logger

	tasks     *task.Manager
	store     cache.Cache
	limiter   *ratelimit.Limiter
	scheduler Scheduler
	runtime   interface{}

	listener net.Listener
	server   *http.Server
}

// New builds the front-end. runtimeConfig is the whole-process configuration
// served as yaml on /config.
func New(cfg Config, tasks *task.Manager, store cache.Cache, scheduler Scheduler, runtimeConfig interface{}, logger log.Logger) *Frontend {
	f := &Frontend{
		cfg:       cfg,
		logger:    logger,
		tasks:     tasks,
		store:     store,
		limiter:   ratelimit.New(cfg.RateLimitPerMinute),
		scheduler: scheduler,
		runtime:   runtimeConfig,
	}
	f.Service = services.NewBasicService(f.starting, f.running, f.stopping)
	return f
}

// Addr returns the bound listen address. Useful when the configured port
// is 0.
func (f *Frontend) Addr() net.Addr {
	if f.listener == nil {
		return nil
	}
	return f.listener.Addr()
}

func (f *Frontend) starting(_ context.Context) error {
	listener, err := net.Listen("tcp", net.JoinHostPort(f.cfg.ListenIP, strconv.Itoa(f.cfg.ListenPort)))
	if err != nil {
		return errors.Wrap(err, "binding http listener")
	}
	f.listener = listener

	f.server = &http.Server{
		Handler:      f.router(),
		ReadTimeout:  f.cfg.ReadTimeout,
		WriteTimeout: f.cfg.WriteTimeout,
		IdleTimeout:  f.cfg.IdleTimeout,
	}

	level.Info(f.logger).Log("msg", "http front-end up", "addr", listener.Addr())
	return nil
}

func (f *Frontend) running(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- f.server.Serve(f.listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		return nil
	}
}

func (f *Frontend) stopping(_ error) error {
	if f.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), f.cfg.ShutdownTimeout)
	defer cancel()
	return f.server.Shutdown(ctx)
}

func (f *Frontend) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc(api.PathScrape, f.instrument("scrape", f.handleScrape)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc(api.PathStatus, f.instrument("status", f.handleStatus)).Methods(http.MethodGet)
	r.HandleFunc(api.PathResult, f.instrument("result", f.handleResult)).Methods(http.MethodGet)
	r.HandleFunc(api.PathTasks, f.instrument("tasks", f.handleTasks)).Methods(http.MethodGet)
	r.HandleFunc(api.PathReady, f.instrument("ready", f.handleReady)).Methods(http.MethodGet)
	r.HandleFunc(api.PathConfig, f.instrument("config", f.handleConfig)).Methods(http.MethodGet)
	r.Handle(api.PathMetrics, promhttp.Handler()).Methods(http.MethodGet)
	return r
}

// instrument wraps a handler with a span and per-route request metrics.
func (f *Frontend) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, span := tracer.Start(r.Context(), "frontend."+route)
		defer span.End()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, r.WithContext(ctx))

		metricRequests.WithLabelValues(route, strconv.Itoa(sw.status)).Inc()
		metricRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
