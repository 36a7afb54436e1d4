package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pagescout/pagescout/pkg/model"
)

type inMemoryEntry struct {
	insertedAt time.Time
	result     *model.Result
}

// InMemory is the default backend: a mutex-guarded map with lazy expiry. An
// entry is a hit while now - insertedAt <= ttl; the first read past that
// removes it.
type InMemory struct {
	mtx     sync.Mutex
	ttl     time.Duration
	entries map[string]inMemoryEntry

	now func() time.Time
}

func NewInMemory(ttl time.Duration) *InMemory {
	return &InMemory{
		ttl:     ttl,
		entries: make(map[string]inMemoryEntry),
		now:     time.Now,
	}
}

func (c *InMemory) Get(_ context.Context, url string) (*model.Result, bool) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	e, ok := c.entries[url]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.insertedAt) > c.ttl {
		delete(c.entries, url)
		return nil, false
	}
	return e.result, true
}

func (c *InMemory) Set(_ context.Context, url string, result *model.Result) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.entries[url] = inMemoryEntry{insertedAt: c.now(), result: result}
}

func (c *InMemory) Stop() {}
