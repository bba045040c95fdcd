// Package cache provides caching decorators over the venue collaborators.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/curvebot/internal/domain"
)

// CachedPriceSource decorates a PriceSource with write-through caching.
// Successful quotes are recorded in the cache; when the venue fails, a
// cached quote no older than maxStale is served instead so one flaky
// request does not blind the monitoring loop.
type CachedPriceSource struct {
	src      domain.PriceSource
	cache    domain.PriceCache
	maxStale time.Duration
	logger   *slog.Logger

	// keyFn maps a route to the cache key. Quotes are cached per curve.
	keyFn func(domain.Route) string
}

// NewCachedPriceSource wraps src with the given cache.
func NewCachedPriceSource(src domain.PriceSource, cache domain.PriceCache, maxStale time.Duration, logger *slog.Logger) *CachedPriceSource {
	return &CachedPriceSource{
		src:      src,
		cache:    cache,
		maxStale: maxStale,
		logger:   logger.With(slog.String("component", "price_cache")),
		keyFn:    func(r domain.Route) string { return r.BondingCurve },
	}
}

// Price quotes the live price, recording it in the cache. On venue failure
// it falls back to a sufficiently fresh cached quote.
func (c *CachedPriceSource) Price(ctx context.Context, route domain.Route) (float64, error) {
	key := c.keyFn(route)

	price, err := c.src.Price(ctx, route)
	if err == nil {
		if cacheErr := c.cache.SetPrice(ctx, key, price, time.Now().UTC()); cacheErr != nil {
			c.logger.WarnContext(ctx, "price cache write failed",
				slog.String("key", key),
				slog.String("error", cacheErr.Error()),
			)
		}
		return price, nil
	}

	cached, ts, cacheErr := c.cache.GetPrice(ctx, key)
	if cacheErr != nil {
		return 0, err
	}
	if age := time.Since(ts); age > c.maxStale {
		return 0, fmt.Errorf("cache: quote for %s is %s old: %w", key, age.Round(time.Second), domain.ErrPriceUnavailable)
	}

	c.logger.WarnContext(ctx, "venue quote failed, serving cached price",
		slog.String("key", key),
		slog.Float64("price", cached),
		slog.String("error", err.Error()),
	)
	return cached, nil
}

// Compile-time interface check.
var _ domain.PriceSource = (*CachedPriceSource)(nil)
