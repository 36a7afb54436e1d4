// Package cache stores completed scrape results keyed by URL. Three backends
// are available: an in-process map (the default), redis and memcached. Remote
// backend failures always degrade to cache misses, never to request failures.
package cache

import (
	"context"
	"flag"
	"time"

	"github.com/go-kit/log"
	instr "github.com/grafana/dskit/instrument"
	"github.com/grafana/gomemcache/memcache"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pagescout/pagescout/pkg/model"
)

const (
	BackendInMemory  = "inmemory"
	BackendRedis     = "redis"
	BackendMemcached = "memcached"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// Cache is the result cache consulted on every submission. Get returns the
// last result published for the URL within the TTL; readers never observe a
// partial entry.
type Cache interface {
	Get(ctx context.Context, url string) (*model.Result, bool)
	Set(ctx context.Context, url string, result *model.Result)
	Stop()
}

// Config selects and configures a backend.
type Config struct {
	Backend    string          `yaml:"backend"`
	TTLSeconds int             `yaml:"ttl_seconds"`
	Redis      RedisConfig     `yaml:"redis"`
	Memcached  MemcachedConfig `yaml:"memcached"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(_ string, f *flag.FlagSet) {
	cfg.Backend = BackendInMemory
	f.IntVar(&cfg.TTLSeconds, "cache-ttl", 3600, "Result cache TTL in seconds.")
	cfg.Redis.applyDefaults()
	cfg.Memcached.applyDefaults()
}

// TTL returns the configured time to live as a duration.
func (cfg *Config) TTL() time.Duration {
	return time.Duration(cfg.TTLSeconds) * time.Second
}

// New builds the configured backend. An empty backend selects inmemory.
func New(cfg Config, logger log.Logger, reg prometheus.Registerer) (Cache, error) {
	switch cfg.Backend {
	case BackendInMemory, "":
		return NewInMemory(cfg.TTL()), nil
	case BackendRedis:
		return NewRedis(cfg.Redis, cfg.TTL(), logger, reg), nil
	case BackendMemcached:
		client := memcache.New(cfg.Memcached.Addresses...)
		client.Timeout = cfg.Memcached.Timeout
		client.MaxIdleConns = cfg.Memcached.MaxIdleConns
		return NewMemcached(cfg.Memcached, client, cfg.TTL(), logger, reg), nil
	default:
		return nil, errors.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

func measureRequest(ctx context.Context, method string, col instr.Collector, toStatusCode func(error) string, f func(context.Context) error) error {
	start := time.Now()
	col.Before(ctx, method, start)
	err := f(ctx)
	col.After(ctx, method, toStatusCode(err), start)
	return err
}

func requestDurationCollector(backend string, reg prometheus.Registerer) *instr.HistogramCollector {
	return instr.NewHistogramCollector(
		promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pagescout",
			Name:      "cache_request_duration_seconds",
			Help:      "Total time spent in seconds doing cache requests.",
			// Cache requests are very quick: smallest bucket is 16us, biggest is 1s.
			Buckets:     prometheus.ExponentialBuckets(0.000016, 4, 8),
			ConstLabels: prometheus.Labels{"backend": backend},
		}, []string{"method", "status_code"}),
	)
}
