// Package processor implements the processing back-end: a TCP server that
// answers length-prefixed analysis requests from a bounded worker pool. One
// connection carries exactly one request and one response.
package processor

import (
	"context"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/grafana/dskit/backoff"
	"github.com/grafana/dskit/services"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/pagescout/pagescout/pkg/analyzer"
	"github.com/pagescout/pagescout/pkg/model"
	"github.com/pagescout/pagescout/pkg/wire"
	"github.com/pagescout/pagescout/pkg/worker"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// Processor is the processing back-end service.
type Processor struct {
	services.Service

	cfg    Config
	logger log.Logger

	analyzer *analyzer.Analyzer
	pool     *worker.Pool
	listener net.Listener
	handlers sync.WaitGroup
}

func New(cfg Config, logger log.Logger) *Processor {
	p := &Processor{
		cfg:      cfg,
		logger:   logger,
		analyzer: analyzer.New(cfg.Analyzer, logger),
		pool:     worker.New(cfg.Workers),
	}
	p.Service = services.NewBasicService(p.starting, p.running, p.stopping)
	return p
}

// Addr returns the bound listen address. Useful when the configured port
// is 0.
func (p *Processor) Addr() net.Addr {
	if p.listener == nil {
		return nil
	}
	return p.listener.Addr()
}

func (p *Processor) starting(_ context.Context) error {
	listener, err := net.Listen("tcp", net.JoinHostPort(p.cfg.ListenIP, strconv.Itoa(p.cfg.ListenPort)))
	if err != nil {
		return errors.Wrap(err, "binding processing listener")
	}
	p.listener = listener
	p.pool.Start()

	level.Info(p.logger).Log("msg", "processing server up", "addr", listener.Addr(), "workers", p.pool.Workers())
	return nil
}

func (p *Processor) running(ctx context.Context) error {
	// unblock Accept when the service is told to stop
	go func() {
		<-ctx.Done()
		_ = p.listener.Close()
	}()

	boff := backoff.New(ctx, backoff.Config{
		MinBackoff: 100 * time.Millisecond,
		MaxBackoff: time.Second,
	})

	for {
		conn, err := p.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			level.Warn(p.logger).Log("msg", "accept failed", "err", err)
			boff.Wait()
			continue
		}
		boff.Reset()

		p.handlers.Add(1)
		go func() {
			defer p.handlers.Done()
			p.handleConn(ctx, conn)
		}()
	}
}

func (p *Processor) stopping(_ error) error {
	var err error
	if p.listener != nil {
		if cerr := p.listener.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = multierr.Append(err, cerr)
		}
	}
	p.handlers.Wait()
	p.pool.Stop()
	return err
}

func (p *Processor) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	start := time.Now()
	defer func() {
		metricRequestDuration.Observe(time.Since(start).Seconds())
	}()

	metricActiveConnections.Inc()
	defer metricActiveConnections.Dec()

	if p.cfg.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(p.cfg.ReadTimeout))
	}

	var req wire.Request
	if err := wire.ReadMessage(conn, &req); err != nil {
		if errors.Is(err, io.EOF) {
			return
		}
		level.Warn(p.logger).Log("msg", "failed to read request", "peer", conn.RemoteAddr(), "err", err)
		p.reply(conn, &wire.Response{Status: wire.StatusError, Error: err.Error()})
		return
	}

	if req.URL == "" {
		p.reply(conn, &wire.Response{Status: wire.StatusError, Error: "missing url"})
		return
	}

	value, err := p.pool.Submit(ctx, worker.TaskFunc(func(ctx context.Context) (interface{}, error) {
		return p.analyzer.Process(ctx, &req), nil
	}))
	if err != nil {
		p.reply(conn, &wire.Response{Status: wire.StatusError, Error: err.Error()})
		return
	}

	data, err := jsonCodec.Marshal(value.(*model.ProcessingData))
	if err != nil {
		p.reply(conn, &wire.Response{Status: wire.StatusError, Error: err.Error()})
		return
	}

	p.reply(conn, &wire.Response{Status: wire.StatusSuccess, ProcessingData: data})
}

// reply writes resp best-effort: the peer may already be gone, which only
// rates a log line.
func (p *Processor) reply(conn net.Conn, resp *wire.Response) {
	metricRequests.WithLabelValues(resp.Status).Inc()

	if p.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(p.cfg.WriteTimeout))
	}
	if err := wire.WriteMessage(conn, resp); err != nil {
		level.Warn(p.logger).Log("msg", "failed to write response", "peer", conn.RemoteAddr(), "err", err)
	}
}
