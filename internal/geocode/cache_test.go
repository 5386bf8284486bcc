package geocode

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast/skycast/internal/observability"
	"github.com/skycast/skycast/internal/weather"
)

type countingGeocoder struct {
	matches []weather.Location
	err     error
	calls   int
}

func (c *countingGeocoder) Search(_ context.Context, _ string) ([]weather.Location, error) {
	c.calls++
	return c.matches, c.err
}

func TestCachedHit(t *testing.T) {
	inner := &countingGeocoder{matches: []weather.Location{{Name: "Paris", Lat: 48.85, Lon: 2.35}}}
	c, err := NewCached(inner, 10, observability.NewMetricsForTesting())
	require.NoError(t, err)

	ctx := context.Background()
	_, err = c.Search(ctx, "Paris")
	require.NoError(t, err)

	// Same query under different casing and whitespace is one cache key.
	locs, err := c.Search(ctx, "  paris ")
	require.NoError(t, err)
	assert.Equal(t, "Paris", locs[0].Name)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedDoesNotCacheEmpty(t *testing.T) {
	inner := &countingGeocoder{}
	c, err := NewCached(inner, 10, observability.NewMetricsForTesting())
	require.NoError(t, err)

	ctx := context.Background()
	_, _ = c.Search(ctx, "Atlantis")
	_, _ = c.Search(ctx, "Atlantis")
	assert.Equal(t, 2, inner.calls, "empty results must stay retryable")
}

func TestCachedDoesNotCacheErrors(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("upstream down")}
	c, err := NewCached(inner, 10, observability.NewMetricsForTesting())
	require.NoError(t, err)

	ctx := context.Background()
	_, err = c.Search(ctx, "Paris")
	require.Error(t, err)
	_, err = c.Search(ctx, "Paris")
	require.Error(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedEviction(t *testing.T) {
	inner := &countingGeocoder{matches: []weather.Location{{Name: "Somewhere"}}}
	c, err := NewCached(inner, 2, observability.NewMetricsForTesting())
	require.NoError(t, err)

	ctx := context.Background()
	for _, q := range []string{"a", "b", "c"} {
		_, _ = c.Search(ctx, q)
	}
	// "a" was evicted by "c".
	_, _ = c.Search(ctx, "a")
	assert.Equal(t, 4, inner.calls)
}
