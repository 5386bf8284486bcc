package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 24, cfg.HourlyWindow)
	assert.Equal(t, 7, cfg.MaxForecastDays)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "Chennai", cfg.DefaultLocation.Name)
	assert.Equal(t, "IN", cfg.DefaultLocation.Country)
	assert.InDelta(t, 13.0827, cfg.DefaultLocation.Lat, 0.0001)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "ow-key")
	t.Setenv("HOURLY_WINDOW", "12")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("DEFAULT_LOCATION", "51.5074,-0.1278,London,GB")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ow-key", cfg.OpenWeatherAPIKey)
	assert.Equal(t, 12, cfg.HourlyWindow)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, "London", cfg.DefaultLocation.Name)
	assert.Equal(t, "GB", cfg.DefaultLocation.Country)
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("CACHE_TTL", "tomorrow")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CACHE_TTL")
}

func TestLoadForecastDaysRange(t *testing.T) {
	t.Setenv("MAX_FORECAST_DAYS", "11")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_FORECAST_DAYS")
}

func TestParseDefaultLocation(t *testing.T) {
	loc, err := parseDefaultLocation("48.85, 2.35, Paris, FR")
	require.NoError(t, err)
	assert.Equal(t, "Paris", loc.Name)
	assert.Equal(t, "FR", loc.Country)

	loc, err = parseDefaultLocation("48.85,2.35,Paris")
	require.NoError(t, err)
	assert.Empty(t, loc.Country)

	_, err = parseDefaultLocation("not-a-lat,2.35,Paris")
	assert.Error(t, err)

	_, err = parseDefaultLocation("48.85")
	assert.Error(t, err)
}
