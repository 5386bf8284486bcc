package geocode

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/skycast/skycast/internal/observability"
	"github.com/skycast/skycast/internal/weather"
)

// Cached wraps a Geocoder with an in-memory LRU cache keyed by the normalized
// query. Only non-empty results are cached so a transient "not found" can be
// retried.
type Cached struct {
	inner   Geocoder
	cache   *lru.Cache[string, []weather.Location]
	metrics *observability.Metrics
}

func NewCached(inner Geocoder, maxEntries int, metrics *observability.Metrics) (*Cached, error) {
	cache, err := lru.New[string, []weather.Location](maxEntries)
	if err != nil {
		return nil, err
	}
	return &Cached{
		inner:   inner,
		cache:   cache,
		metrics: metrics,
	}, nil
}

func (c *Cached) Search(ctx context.Context, query string) ([]weather.Location, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if locs, ok := c.cache.Get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return locs, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	locs, err := c.inner.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(locs) > 0 {
		c.cache.Add(key, locs)
	}
	return locs, nil
}
