package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	s := miniredis.RunT(t)
	c := NewRedis(RedisConfig{Endpoint: s.Addr(), Timeout: time.Second}, ttl, log.NewNopLogger(), prometheus.NewPedanticRegistry())
	t.Cleanup(c.Stop)

	return c, s
}

func TestRedisRoundTrip(t *testing.T) {
	c, _ := newTestRedis(t, time.Hour)
	ctx := context.Background()

	_, ok := c.Get(ctx, "https://example.com")
	require.False(t, ok)

	want := testResult("https://example.com")
	c.Set(ctx, "https://example.com", want)

	got, ok := c.Get(ctx, "https://example.com")
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestRedisTTLExpiry(t *testing.T) {
	c, s := newTestRedis(t, time.Minute)
	ctx := context.Background()

	c.Set(ctx, "https://example.com", testResult("https://example.com"))

	_, ok := c.Get(ctx, "https://example.com")
	require.True(t, ok)

	s.FastForward(2 * time.Minute)

	_, ok = c.Get(ctx, "https://example.com")
	require.False(t, ok)
}

func TestRedisDegradesToMiss(t *testing.T) {
	c, s := newTestRedis(t, time.Hour)
	ctx := context.Background()

	s.Close()

	// A dead backend must read as a miss and swallow writes.
	_, ok := c.Get(ctx, "https://example.com")
	require.False(t, ok)
	c.Set(ctx, "https://example.com", testResult("https://example.com"))
}

func TestRedisCorruptEntryIsMiss(t *testing.T) {
	c, s := newTestRedis(t, time.Hour)

	require.NoError(t, s.Set("https://example.com", "not json"))

	_, ok := c.Get(context.Background(), "https://example.com")
	require.False(t, ok)
}
