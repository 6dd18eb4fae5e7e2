package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"quantdash/internal/metrics"
	"quantdash/internal/model"
)

// SeriesCache is an explicit, externally owned cache of fetched price series,
// keyed by (ticker, start, end). Invalidation is a visible operation — the
// gateway's refresh endpoint calls it — not a hidden process-wide memo.
type SeriesCache struct {
	client *goredis.Client
	ttl    time.Duration
}

// CacheConfig configures the Redis-backed series cache.
type CacheConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration // 0 = no expiry
}

// NewSeriesCache connects to Redis and pings it.
func NewSeriesCache(cfg CacheConfig) (*SeriesCache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[series-cache] connected to %s (ttl=%v)", cfg.Addr, cfg.TTL)
	return &SeriesCache{client: client, ttl: cfg.TTL}, nil
}

// Client exposes the underlying Redis client for health checks.
func (c *SeriesCache) Client() *goredis.Client { return c.client }

// Get returns the cached series for the key, or (nil, false) on a miss.
// An empty-but-present series is a valid hit: "no data" is cacheable too.
func (c *SeriesCache) Get(ctx context.Context, ticker string, start, end time.Time) (model.PriceSeries, bool) {
	data, err := c.client.Get(ctx, seriesKey(ticker, start, end)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			log.Printf("[series-cache] get error: %v", err)
		}
		return nil, false
	}

	var series model.PriceSeries
	if err := json.Unmarshal(data, &series); err != nil {
		log.Printf("[series-cache] corrupt entry for %s, dropping: %v", ticker, err)
		c.client.Del(ctx, seriesKey(ticker, start, end))
		return nil, false
	}
	return series, true
}

// Put stores a fetched series under its (ticker, start, end) key.
func (c *SeriesCache) Put(ctx context.Context, ticker string, start, end time.Time, series model.PriceSeries) error {
	data, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("marshal series: %w", err)
	}
	return c.client.Set(ctx, seriesKey(ticker, start, end), data, c.ttl).Err()
}

// Invalidate removes the cached entry for one (ticker, start, end) key.
func (c *SeriesCache) Invalidate(ctx context.Context, ticker string, start, end time.Time) error {
	return c.client.Del(ctx, seriesKey(ticker, start, end)).Err()
}

// InvalidateTicker removes every cached range for a ticker.
func (c *SeriesCache) InvalidateTicker(ctx context.Context, ticker string) error {
	iter := c.client.Scan(ctx, 0, seriesKeyPrefix(ticker)+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close releases the Redis connection.
func (c *SeriesCache) Close() error { return c.client.Close() }

func seriesKey(ticker string, start, end time.Time) string {
	return fmt.Sprintf("%s%s:%s", seriesKeyPrefix(ticker),
		start.Format("2006-01-02"), end.Format("2006-01-02"))
}

func seriesKeyPrefix(ticker string) string {
	return "series:" + ticker + ":"
}

// CachedProvider wraps a Provider with the series cache and records fetch and
// cache metrics. prom may be nil (CLI usage).
type CachedProvider struct {
	inner Provider
	cache *SeriesCache
	prom  *metrics.Metrics
}

// NewCachedProvider wraps inner with cache lookups.
func NewCachedProvider(inner Provider, cache *SeriesCache, prom *metrics.Metrics) *CachedProvider {
	return &CachedProvider{inner: inner, cache: cache, prom: prom}
}

// Fetch serves from the cache when possible, otherwise delegates to the
// wrapped provider and caches the result.
func (p *CachedProvider) Fetch(ctx context.Context, ticker string, start, end time.Time) (model.PriceSeries, error) {
	if series, ok := p.cache.Get(ctx, ticker, start, end); ok {
		p.count(func(m *metrics.Metrics) { m.CacheHitsTotal.Inc() })
		return series, nil
	}
	p.count(func(m *metrics.Metrics) { m.CacheMissesTotal.Inc() })

	fetchStart := time.Now()
	series, err := p.inner.Fetch(ctx, ticker, start, end)
	p.count(func(m *metrics.Metrics) { m.FetchesTotal.Inc() })
	if err != nil {
		p.count(func(m *metrics.Metrics) { m.FetchErrorsTotal.Inc() })
		return nil, err
	}
	p.count(func(m *metrics.Metrics) { m.FetchDur.Observe(time.Since(fetchStart).Seconds()) })

	if err := p.cache.Put(ctx, ticker, start, end, series); err != nil {
		log.Printf("[series-cache] put for %s failed: %v", ticker, err)
	}
	return series, nil
}

// Invalidate drops the cached entry so the next Fetch re-fetches on demand.
func (p *CachedProvider) Invalidate(ctx context.Context, ticker string, start, end time.Time) error {
	p.count(func(m *metrics.Metrics) { m.CacheInvalidations.Inc() })
	return p.cache.Invalidate(ctx, ticker, start, end)
}

func (p *CachedProvider) count(fn func(*metrics.Metrics)) {
	if p.prom != nil {
		fn(p.prom)
	}
}
