package pricecache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/simaogato/shareledger/internal/domain"
	"github.com/simaogato/shareledger/internal/logger"
)

// DefaultTTL is how long a fetched quote is served without a new lookup
const DefaultTTL = 30 * time.Second

// Fetcher performs the uncached resolve and quote lookup
type Fetcher interface {
	Fetch(ctx context.Context, symbol string) (*domain.PriceQuote, error)
}

type entry struct {
	quote     domain.PriceQuote
	fetchedAt time.Time
}

// Cache memoizes quotes per requested symbol string for a fixed TTL.
// Failed lookups are never stored. Entries are never evicted.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration
	now     func() time.Time
	logger  *logger.Logger

	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group
}

// Option configures a Cache
type Option func(*Cache)

// WithClock replaces the wall clock, for tests
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger used for lookup failures
func WithLogger(log *logger.Logger) Option {
	return func(c *Cache) { c.logger = log }
}

// New creates a Cache in front of fetcher. A non-positive ttl means DefaultTTL.
func New(fetcher Fetcher, ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		fetcher: fetcher,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger.Discard(),
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the quote for symbol, or false when it is unavailable.
// Concurrent misses on the same symbol share one lookup. The shared lookup
// is detached from the caller's cancellation, so a caller that gives up
// does not fail the others waiting on it.
func (c *Cache) Get(ctx context.Context, symbol string) (domain.PriceQuote, bool) {
	if q, ok := c.fresh(symbol); ok {
		return q, true
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(symbol, func() (interface{}, error) {
		if q, ok := c.fresh(symbol); ok {
			return q, nil
		}

		q, err := c.fetcher.Fetch(fetchCtx, symbol)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[symbol] = entry{quote: *q, fetchedAt: c.now()}
		c.mu.Unlock()

		return *q, nil
	})

	select {
	case <-ctx.Done():
		c.logger.Debug("lookup of %s abandoned: %v", symbol, ctx.Err())
		return domain.PriceQuote{}, false
	case res := <-ch:
		if res.Err != nil {
			c.logger.Warning("price for %s unavailable: %v", symbol, res.Err)
			return domain.PriceQuote{}, false
		}
		return res.Val.(domain.PriceQuote), true
	}
}

// Invalidate drops the cached quote of symbol
func (c *Cache) Invalidate(symbol string) {
	c.mu.Lock()
	delete(c.entries, symbol)
	c.mu.Unlock()
}

// Len returns the number of cached symbols
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// TTL returns the freshness window
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

func (c *Cache) fresh(symbol string) (domain.PriceQuote, bool) {
	c.mu.RLock()
	e, ok := c.entries[symbol]
	c.mu.RUnlock()

	if !ok || c.now().Sub(e.fetchedAt) >= c.ttl {
		return domain.PriceQuote{}, false
	}
	return e.quote, true
}
