// Package app wires the scraper process: one task manager and one result
// cache shared by the scrape pipelines and the HTTP front-end, run under a
// single service manager.
package app

import (
	"context"
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/grafana/dskit/services"
	"github.com/grafana/dskit/signals"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pagescout/pagescout/modules/frontend"
	"github.com/pagescout/pagescout/modules/scraper"
	"github.com/pagescout/pagescout/pkg/cache"
	"github.com/pagescout/pagescout/pkg/task"
)

// App holds the process services.
type App struct {
	cfg    Config
	logger log.Logger

	tasks *task.Manager
	store cache.Cache

	serviceMap map[string]services.Service
}

// New builds the process services from cfg. Nothing is started yet.
func New(cfg Config, logger log.Logger) (*App, error) {
	tasks := task.NewManager()

	store, err := cache.New(cfg.Cache, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return nil, errors.Wrap(err, "building result cache")
	}

	scr := scraper.New(cfg.Scraper, tasks, store, logger)
	fe := frontend.New(cfg.Frontend, tasks, store, scr, cfg, logger)

	return &App{
		cfg:    cfg,
		logger: logger,
		tasks:  tasks,
		store:  store,
		serviceMap: map[string]services.Service{
			"scraper":  scr,
			"frontend": fe,
		},
	}, nil
}

// Run starts all services and blocks until a termination signal arrives or
// one of them fails.
func (a *App) Run() error {
	servs := []services.Service(nil)
	for _, s := range a.serviceMap {
		servs = append(servs, s)
	}

	sm, err := services.NewManager(servs...)
	if err != nil {
		return fmt.Errorf("failed to build service manager %w", err)
	}

	// Listen for events from this manager and log them.
	healthy := func() { level.Info(a.logger).Log("msg", "PageScout started") }
	stopped := func() { level.Info(a.logger).Log("msg", "PageScout stopped") }
	serviceFailed := func(service services.Service) {
		// if any service fails, stop everything
		sm.StopAsync()

		for name, s := range a.serviceMap {
			if s == service {
				level.Error(a.logger).Log("msg", "service failed", "service", name, "err", service.FailureCase())
				return
			}
		}
		level.Error(a.logger).Log("msg", "service failed", "service", "unknown", "err", service.FailureCase())
	}
	sm.AddListener(services.NewManagerListener(healthy, stopped, serviceFailed))

	// If a signal arrives, stop the manager, which stops all the services.
	handler := signals.NewHandler(a.logger)
	go func() {
		handler.Loop()
		sm.StopAsync()
	}()

	if err := sm.StartAsync(context.Background()); err != nil {
		return fmt.Errorf("failed to start service manager %w", err)
	}

	err = sm.AwaitStopped(context.Background())
	a.store.Stop()
	return err
}
