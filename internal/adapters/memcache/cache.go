package memcache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/matteolefer/escapedia/internal/adapters/observability"
)

type entry struct {
	b   []byte
	exp time.Time
}

// Cache is the fallback when no Redis address is configured. Entries
// live in one map guarded by a mutex; expiry is checked on read, so a
// mostly idle server holds at most one stale generation of keys.
type Cache struct {
	mu  sync.Mutex
	m   map[string]entry
	now func() time.Time
}

func New() *Cache {
	return &Cache{m: make(map[string]entry), now: time.Now}
}

func (c *Cache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	e, ok := c.m[key]
	if ok && !e.exp.IsZero() && c.now().After(e.exp) {
		delete(c.m, key)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		observability.ObserveCache("memory", "miss")
		return false, nil
	}
	observability.ObserveCache("memory", "hit")
	return true, json.Unmarshal(e.b, dst)
}

func (c *Cache) Set(_ context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var exp time.Time
	if ttlSec > 0 {
		exp = c.now().Add(time.Duration(ttlSec) * time.Second)
	}
	c.mu.Lock()
	c.m[key] = entry{b: b, exp: exp}
	c.mu.Unlock()
	observability.ObserveCache("memory", "set")
	return nil
}

func (c *Cache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
	observability.ObserveCache("memory", "del")
	return nil
}

func (c *Cache) Reset(_ context.Context) error {
	c.mu.Lock()
	c.m = make(map[string]entry)
	c.mu.Unlock()
	observability.ObserveCache("memory", "reset")
	return nil
}
