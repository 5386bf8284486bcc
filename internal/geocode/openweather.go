// Package geocode turns free-form city text into coordinates and canonical
// display names.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/skycast/skycast/internal/weather"
)

// Geocoder converts a city query into candidate locations. Zero matches with
// a nil error means the query is simply unknown; errors mean the lookup
// itself failed.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]weather.Location, error)
}

// OpenWeatherClient implements Geocoder against the OpenWeather direct
// geocoding API.
type OpenWeatherClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	limit      int
}

func NewOpenWeatherClient(apiKey, baseURL string, timeout time.Duration, logger *slog.Logger) *OpenWeatherClient {
	return &OpenWeatherClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		limit:      5,
	}
}

func (c *OpenWeatherClient) Search(ctx context.Context, query string) ([]weather.Location, error) {
	values := url.Values{}
	values.Set("q", query)
	values.Set("limit", fmt.Sprintf("%d", c.limit))
	values.Set("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/geo/1.0/direct?"+values.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create geocode request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &weather.UpstreamError{Provider: "openweather-geo", Status: resp.StatusCode, Message: string(body)}
	}

	var payload []struct {
		Name    string  `json:"name"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
		Country string  `json:"country"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &weather.MalformedResponseError{Provider: "openweather-geo", Detail: err.Error()}
	}

	locs := make([]weather.Location, 0, len(payload))
	for _, m := range payload {
		locs = append(locs, weather.Location{
			Lat:     m.Lat,
			Lon:     m.Lon,
			Name:    m.Name,
			Country: m.Country,
		})
	}
	return locs, nil
}
