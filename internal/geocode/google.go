package geocode

import (
	"context"

	"github.com/kelvins/geocoder"

	"github.com/skycast/skycast/internal/weather"
)

// GoogleClient implements Geocoder against the Google Geocoding API. It is
// the fallback when the primary geocoder's endpoint is down, not a second
// opinion on empty results.
type GoogleClient struct{}

// NewGoogleClient configures the underlying library's API key and returns the
// client. The library holds the key in package state, so only one key per
// process is supported.
func NewGoogleClient(apiKey string) *GoogleClient {
	geocoder.ApiKey = apiKey
	return &GoogleClient{}
}

func (c *GoogleClient) Search(_ context.Context, query string) ([]weather.Location, error) {
	loc, err := geocoder.Geocoding(geocoder.Address{City: query})
	if err != nil {
		return nil, &weather.UpstreamError{Provider: "google-geo", Status: 0, Message: err.Error()}
	}

	return []weather.Location{{
		Lat:  loc.Latitude,
		Lon:  loc.Longitude,
		Name: query,
	}}, nil
}

// WithFallback chains geocoders: the secondary is consulted only when the
// primary call itself fails. A clean zero-match answer is final.
type WithFallback struct {
	Primary   Geocoder
	Secondary Geocoder
}

func (g *WithFallback) Search(ctx context.Context, query string) ([]weather.Location, error) {
	locs, err := g.Primary.Search(ctx, query)
	if err == nil || g.Secondary == nil {
		return locs, err
	}
	return g.Secondary.Search(ctx, query)
}
