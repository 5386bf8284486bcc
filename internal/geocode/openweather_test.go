package geocode

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast/skycast/internal/weather"
)

func TestOpenWeatherClientSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geo/1.0/direct", r.URL.Path)
		assert.Equal(t, "Paris", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Write([]byte(`[
			{"name": "Paris", "lat": 48.8589, "lon": 2.32, "country": "FR"},
			{"name": "Paris", "lat": 33.66, "lon": -95.55, "country": "US"}
		]`))
	}))
	defer srv.Close()

	c := NewOpenWeatherClient("key", srv.URL, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	locs, err := c.Search(context.Background(), "Paris")
	require.NoError(t, err)

	require.Len(t, locs, 2)
	assert.Equal(t, "FR", locs[0].Country)
	assert.Equal(t, 48.8589, locs[0].Lat)
}

func TestOpenWeatherClientNoMatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewOpenWeatherClient("key", srv.URL, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	locs, err := c.Search(context.Background(), "Atlantis")
	require.NoError(t, err, "zero matches is not an error")
	assert.Empty(t, locs)
}

func TestOpenWeatherClientUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewOpenWeatherClient("key", srv.URL, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := c.Search(context.Background(), "Paris")

	var upstream *weather.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusTooManyRequests, upstream.Status)
}

type stubGeocoder struct {
	matches []weather.Location
	err     error
	calls   int
}

func (s *stubGeocoder) Search(_ context.Context, _ string) ([]weather.Location, error) {
	s.calls++
	return s.matches, s.err
}

func TestWithFallbackSecondaryOnError(t *testing.T) {
	primary := &stubGeocoder{err: &weather.UpstreamError{Provider: "openweather-geo", Status: 500}}
	secondary := &stubGeocoder{matches: []weather.Location{{Name: "Paris"}}}
	g := &WithFallback{Primary: primary, Secondary: secondary}

	locs, err := g.Search(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, "Paris", locs[0].Name)
}

func TestWithFallbackZeroMatchesIsFinal(t *testing.T) {
	primary := &stubGeocoder{}
	secondary := &stubGeocoder{matches: []weather.Location{{Name: "Paris"}}}
	g := &WithFallback{Primary: primary, Secondary: secondary}

	locs, err := g.Search(context.Background(), "Atlantis")
	require.NoError(t, err)
	assert.Empty(t, locs, "an authoritative empty answer is not retried elsewhere")
	assert.Zero(t, secondary.calls)
}
