package cache

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	instr "github.com/grafana/dskit/instrument"
	"github.com/grafana/gomemcache/memcache"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pagescout/pagescout/pkg/model"
)

// MemcachedConfig is config to make a Memcached cache.
type MemcachedConfig struct {
	Addresses    []string      `yaml:"addresses"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
}

func (cfg *MemcachedConfig) applyDefaults() {
	cfg.Addresses = []string{"localhost:11211"}
	cfg.Timeout = 500 * time.Millisecond
	cfg.MaxIdleConns = 16
}

// MemcachedClient is the subset of the gomemcache client the cache uses.
type MemcachedClient interface {
	Get(key string, opts ...memcache.Option) (*memcache.Item, error)
	Set(item *memcache.Item) error
	Close()
}

// Memcached stores JSON-encoded results with per-item expiration.
type Memcached struct {
	cfg             MemcachedConfig
	memcache        MemcachedClient
	ttl             time.Duration
	requestDuration *instr.HistogramCollector
	logger          log.Logger
}

func NewMemcached(cfg MemcachedConfig, client MemcachedClient, ttl time.Duration, logger log.Logger, reg prometheus.Registerer) *Memcached {
	return &Memcached{
		cfg:             cfg,
		memcache:        client,
		ttl:             ttl,
		requestDuration: requestDurationCollector(BackendMemcached, reg),
		logger:          logger,
	}
}

func memcacheStatusCode(err error) string {
	// See https://godoc.org/github.com/bradfitz/gomemcache/memcache#pkg-variables
	if errors.Is(err, memcache.ErrCacheMiss) {
		return "404"
	}
	if errors.Is(err, memcache.ErrMalformedKey) {
		return "400"
	}
	if err != nil {
		return "500"
	}
	return "200"
}

func (c *Memcached) Get(ctx context.Context, url string) (*model.Result, bool) {
	var item *memcache.Item
	err := measureRequest(ctx, "Memcache.Get", c.requestDuration, memcacheStatusCode, func(_ context.Context) error {
		var err error
		item, err = c.memcache.Get(url)
		return err
	})
	if err != nil {
		if !errors.Is(err, memcache.ErrCacheMiss) {
			level.Warn(c.logger).Log("msg", "memcached get failed, treating as miss", "err", err, "url", url)
		}
		return nil, false
	}

	result := &model.Result{}
	if err := jsonCodec.Unmarshal(item.Value, result); err != nil {
		level.Warn(c.logger).Log("msg", "discarding undecodable cache entry", "err", err, "url", url)
		return nil, false
	}
	return result, true
}

func (c *Memcached) Set(ctx context.Context, url string, result *model.Result) {
	buf, err := jsonCodec.Marshal(result)
	if err != nil {
		level.Warn(c.logger).Log("msg", "failed to encode result for memcached", "err", err, "url", url)
		return
	}

	err = measureRequest(ctx, "Memcache.Put", c.requestDuration, memcacheStatusCode, func(_ context.Context) error {
		return c.memcache.Set(&memcache.Item{
			Key:        url,
			Value:      buf,
			Expiration: int32(c.ttl.Seconds()),
		})
	})
	if err != nil {
		level.Warn(c.logger).Log("msg", "failed to store result in memcached", "err", err, "url", url)
	}
}

func (c *Memcached) Stop() {
	c.memcache.Close()
}
