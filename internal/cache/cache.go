// Package cache provides the bounded in-memory response cache used to
// memoize prompt/response pairs from the chat-completion provider.
package cache

import (
	"sync"
	"time"

	"github.com/parchment-labs/quarry/internal/core/ports/driven"
	"github.com/parchment-labs/quarry/internal/logger"
	"github.com/parchment-labs/quarry/internal/texthash"
)

// DefaultMaxEntries bounds the cache size.
const DefaultMaxEntries = 1000

// DefaultTTL is how long an entry stays servable after insertion.
const DefaultTTL = 24 * time.Hour

type entry struct {
	response string
	storedAt time.Time
}

// ResponseCache is a bounded map with insertion-order eviction and
// lazy TTL expiry. Keys are rolling hashes of context+prompt, so
// collisions are possible and accepted. Safe for concurrent use.
//
// Eviction removes the oldest-inserted entry, not the least recently
// used one: no access-order tracking is maintained, and overwriting an
// existing key keeps its original insertion position.
type ResponseCache struct {
	mu         sync.Mutex
	entries    map[string]entry
	order      []string
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

// Option configures the cache.
type Option func(*ResponseCache)

// WithMaxEntries overrides the capacity bound.
func WithMaxEntries(n int) Option {
	return func(c *ResponseCache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// WithTTL overrides the entry lifetime.
func WithTTL(d time.Duration) Option {
	return func(c *ResponseCache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithClock injects a time source. Tests use this to age entries.
func WithClock(now func() time.Time) Option {
	return func(c *ResponseCache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates an empty cache.
func New(opts ...Option) *ResponseCache {
	c := &ResponseCache{
		entries:    make(map[string]entry),
		maxEntries: DefaultMaxEntries,
		ttl:        DefaultTTL,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

var _ driven.ResponseCache = (*ResponseCache)(nil)

// Get returns the cached response for a prompt and optional context.
// An entry past its TTL is deleted and reported as a miss.
func (c *ResponseCache) Get(prompt, context string) (string, bool) {
	key := cacheKey(prompt, context)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		delete(c.entries, key)
		c.dropFromOrder(key)
		logger.Debug("cache entry %s expired", key)
		return "", false
	}
	return e.response, true
}

// Set stores a response. When the cache is full, the oldest-inserted
// entry is evicted first.
func (c *ResponseCache) Set(prompt, context, response string) {
	key := cacheKey(prompt, context)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		if len(c.entries) >= c.maxEntries && len(c.order) > 0 {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
			logger.Debug("cache full, evicted entry %s", oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = entry{response: response, storedAt: c.now()}
}

// Len reports the number of stored entries, expired or not; expired
// entries only leave on the lookup that notices them.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *ResponseCache) dropFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// cacheKey derives the stable hash key from context and prompt.
func cacheKey(prompt, context string) string {
	return texthash.Key(context + prompt)
}
