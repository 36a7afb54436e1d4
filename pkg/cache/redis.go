package cache

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/go-redis/redis/v8"
	instr "github.com/grafana/dskit/instrument"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pagescout/pagescout/pkg/model"
)

// RedisConfig is config to make a Redis cache.
type RedisConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Timeout  time.Duration `yaml:"timeout"`
}

func (cfg *RedisConfig) applyDefaults() {
	cfg.Endpoint = "localhost:6379"
	cfg.Timeout = 2 * time.Second
}

// Redis stores JSON-encoded results with native key expiry.
type Redis struct {
	client          *redis.Client
	ttl             time.Duration
	requestDuration *instr.HistogramCollector
	logger          log.Logger
}

func NewRedis(cfg RedisConfig, ttl time.Duration, logger log.Logger, reg prometheus.Registerer) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Endpoint,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	return &Redis{
		client:          client,
		ttl:             ttl,
		requestDuration: requestDurationCollector(BackendRedis, reg),
		logger:          logger,
	}
}

func redisStatusCode(err error) string {
	switch {
	case err == nil:
		return "200"
	case errors.Is(err, redis.Nil):
		return "404"
	default:
		return "500"
	}
}

func (c *Redis) Get(ctx context.Context, url string) (*model.Result, bool) {
	var buf []byte
	err := measureRequest(ctx, "Redis.Get", c.requestDuration, redisStatusCode, func(ctx context.Context) error {
		var err error
		buf, err = c.client.Get(ctx, url).Bytes()
		return err
	})
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			level.Warn(c.logger).Log("msg", "redis get failed, treating as miss", "err", err, "url", url)
		}
		return nil, false
	}

	result := &model.Result{}
	if err := jsonCodec.Unmarshal(buf, result); err != nil {
		level.Warn(c.logger).Log("msg", "discarding undecodable cache entry", "err", err, "url", url)
		return nil, false
	}
	return result, true
}

func (c *Redis) Set(ctx context.Context, url string, result *model.Result) {
	buf, err := jsonCodec.Marshal(result)
	if err != nil {
		level.Warn(c.logger).Log("msg", "failed to encode result for redis", "err", err, "url", url)
		return
	}

	err = measureRequest(ctx, "Redis.Set", c.requestDuration, redisStatusCode, func(ctx context.Context) error {
		return c.client.Set(ctx, url, buf, c.ttl).Err()
	})
	if err != nil {
		level.Warn(c.logger).Log("msg", "failed to store result in redis", "err", err, "url", url)
	}
}

func (c *Redis) Stop() {
	if err := c.client.Close(); err != nil {
		level.Warn(c.logger).Log("msg", "error closing redis client", "err", err)
	}
}
