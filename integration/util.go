package integration

// Collection of utilities to share between our end to end tests

import (
	"context"
	"flag"
	"net"
	"strconv"
	"time"

	"github.com/go-kit/log"
	"github.com/grafana/dskit/services"
	"github.com/pkg/errors"

	"github.com/pagescout/pagescout/modules/frontend"
	"github.com/pagescout/pagescout/modules/processor"
	"github.com/pagescout/pagescout/modules/scraper"
	"github.com/pagescout/pagescout/pkg/cache"
	"github.com/pagescout/pagescout/pkg/httpclient"
	"github.com/pagescout/pagescout/pkg/task"
)

// StackConfig carries the knobs the tests exercise.
type StackConfig struct {
	// RateLimitPerMinute is the per-domain submission budget. Zero
	// disables limiting, which suits tests whose every target lives on
	// 127.0.0.1.
	RateLimitPerMinute int
	CacheTTL           time.Duration

	// StartProcessor runs a processing back-end on an ephemeral port.
	// When false the scraper is aimed at ProcessorAddr instead, so tests
	// can point it at a dead endpoint.
	StartProcessor bool
	ProcessorAddr  string
}

func DefaultStackConfig() StackConfig {
	return StackConfig{
		CacheTTL:       time.Hour,
		StartProcessor: true,
	}
}

// Stack is PageScout running in process: processing back-end, scrape
// pipelines and HTTP front-end wired together the way the binaries wire
// them, every listener on an ephemeral loopback port.
type Stack struct {
	Tasks *task.Manager
	Store cache.Cache

	Processor *processor.Processor
	Scraper   *scraper.Scraper
	Frontend  *frontend.Frontend

	running []services.Service
}

func NewStack(cfg StackConfig) (*Stack, error) {
	logger := log.NewNopLogger()

	s := &Stack{
		Tasks: task.NewManager(),
		Store: cache.NewInMemory(cfg.CacheTTL),
	}

	procAddr := cfg.ProcessorAddr
	if cfg.StartProcessor {
		pcfg := processor.Config{}
		pcfg.RegisterFlagsAndApplyDefaults("", flag.NewFlagSet("", flag.PanicOnError))
		pcfg.ListenIP = "127.0.0.1"
		pcfg.ListenPort = 0
		s.Processor = processor.New(pcfg, logger)
		if err := s.start(s.Processor); err != nil {
			return nil, errors.Wrap(err, "starting processor")
		}
		procAddr = s.Processor.Addr().String()
	}

	scfg := scraper.Config{}
	scfg.RegisterFlagsAndApplyDefaults("", flag.NewFlagSet("", flag.PanicOnError))
	if err := aimProcessing(&scfg, procAddr); err != nil {
		_ = s.Stop()
		return nil, err
	}
	s.Scraper = scraper.New(scfg, s.Tasks, s.Store, logger)
	if err := s.start(s.Scraper); err != nil {
		_ = s.Stop()
		return nil, errors.Wrap(err, "starting scraper")
	}

	fcfg := frontend.Config{}
	fcfg.RegisterFlagsAndApplyDefaults("", flag.NewFlagSet("", flag.PanicOnError))
	fcfg.ListenIP = "127.0.0.1"
	fcfg.ListenPort = 0
	fcfg.RateLimitPerMinute = cfg.RateLimitPerMinute
	s.Frontend = frontend.New(fcfg, s.Tasks, s.Store, s.Scraper, fcfg, logger)
	if err := s.start(s.Frontend); err != nil {
		_ = s.Stop()
		return nil, errors.Wrap(err, "starting frontend")
	}

	return s, nil
}

func (s *Stack) start(svc services.Service) error {
	if err := services.StartAndAwaitRunning(context.Background(), svc); err != nil {
		return err
	}
	s.running = append(s.running, svc)
	return nil
}

// Client returns an API client aimed at the front-end, polling fast enough
// for tests.
func (s *Stack) Client() *httpclient.Client {
	c := httpclient.New("http://" + s.Frontend.Addr().String())
	c.PollInterval = 10 * time.Millisecond
	return c
}

// Stop tears the stack down front to back so pipelines drain before the
// processing server goes away.
func (s *Stack) Stop() error {
	var firstErr error
	for i := len(s.running) - 1; i >= 0; i-- {
		if err := services.StopAndAwaitTerminated(context.Background(), s.running[i]); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.running = nil
	s.Store.Stop()
	return firstErr
}

func aimProcessing(cfg *scraper.Config, procAddr string) error {
	host, portStr, err := net.SplitHostPort(procAddr)
	if err != nil {
		return errors.Wrap(err, "bad processing address")
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return errors.Wrap(err, "bad processing port")
	}
	cfg.Processing.IP = host
	cfg.Processing.Port = port
	return nil
}
