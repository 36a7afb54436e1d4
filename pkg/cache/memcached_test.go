package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/grafana/gomemcache/memcache"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockMemcachedClient struct {
	items  map[string]*memcache.Item
	err    error
	closed bool
}

func newMockMemcachedClient() *mockMemcachedClient {
	return &mockMemcachedClient{items: map[string]*memcache.Item{}}
}

func (m *mockMemcachedClient) Get(key string, _ ...memcache.Option) (*memcache.Item, error) {
	if m.err != nil {
		return nil, m.err
	}
	item, ok := m.items[key]
	if !ok {
		return nil, memcache.ErrCacheMiss
	}
	return item, nil
}

func (m *mockMemcachedClient) Set(item *memcache.Item) error {
	if m.err != nil {
		return m.err
	}
	m.items[item.Key] = item
	return nil
}

func (m *mockMemcachedClient) Close() {
	m.closed = true
}

func newTestMemcached(client MemcachedClient) *Memcached {
	return NewMemcached(MemcachedConfig{}, client, time.Hour, log.NewNopLogger(), prometheus.NewPedanticRegistry())
}

func TestMemcachedRoundTrip(t *testing.T) {
	client := newMockMemcachedClient()
	c := newTestMemcached(client)
	ctx := context.Background()

	_, ok := c.Get(ctx, "https://example.com")
	require.False(t, ok)

	want := testResult("https://example.com")
	c.Set(ctx, "https://example.com", want)

	require.EqualValues(t, 3600, client.items["https://example.com"].Expiration)

	got, ok := c.Get(ctx, "https://example.com")
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestMemcachedDegradesToMiss(t *testing.T) {
	client := newMockMemcachedClient()
	client.err = errors.New("memcache: connect timeout")
	c := newTestMemcached(client)
	ctx := context.Background()

	_, ok := c.Get(ctx, "https://example.com")
	require.False(t, ok)
	c.Set(ctx, "https://example.com", testResult("https://example.com"))
}

func TestMemcachedCorruptEntryIsMiss(t *testing.T) {
	client := newMockMemcachedClient()
	client.items["https://example.com"] = &memcache.Item{Key: "https://example.com", Value: []byte("not json")}
	c := newTestMemcached(client)

	_, ok := c.Get(context.Background(), "https://example.com")
	require.False(t, ok)
}

func TestMemcachedStopClosesClient(t *testing.T) {
	client := newMockMemcachedClient()
	c := newTestMemcached(client)

	c.Stop()
	require.True(t, client.closed)
}
