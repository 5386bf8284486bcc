package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/skycast/skycast/internal/weather"
)

// AppConfig holds all service settings, populated from environment variables.
type AppConfig struct {
	OpenWeatherAPIKey string
	WeatherAPIKey     string
	GoogleAPIKey      string

	// Upstream base URLs, overridable for tests.
	OpenWeatherBaseURL string
	WeatherAPIBaseURL  string
	OpenMeteoBaseURL   string
	GeoIPBaseURL       string
	TileBaseURL        string

	// DefaultLocation is the tier-5 resolution fallback. A config value, not
	// a behavior baked into the resolver.
	DefaultLocation weather.Location

	HourlyWindow    int // fixed hourly window size
	MaxForecastDays int // cap on daily points

	HTTPTimeout     time.Duration // outbound provider calls
	DeviceTimeout   time.Duration // device geolocation attempt
	DeviceFixMaxAge time.Duration // accepted staleness of a cached fix
	CacheTTL        time.Duration // weather response cache
	PrewarmInterval time.Duration // scheduler refresh cadence

	GeocodeCacheSize int
	SQLitePath       string

	Port      string
	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment with defaults. Validation
// errors name the offending variable.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		WeatherAPIKey:     os.Getenv("WEATHERAPI_API_KEY"),
		GoogleAPIKey:      os.Getenv("GOOGLE_API_KEY"),

		OpenWeatherBaseURL: getenvDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org"),
		WeatherAPIBaseURL:  getenvDefault("WEATHERAPI_BASE_URL", "https://api.weatherapi.com"),
		OpenMeteoBaseURL:   getenvDefault("OPENMETEO_BASE_URL", "https://api.open-meteo.com"),
		GeoIPBaseURL:       getenvDefault("GEOIP_BASE_URL", "http://ip-api.com"),
		TileBaseURL:        getenvDefault("TILE_BASE_URL", "https://tile.openweathermap.org/map/precipitation_new"),

		HourlyWindow:     getenvInt("HOURLY_WINDOW", 24),
		MaxForecastDays:  getenvInt("MAX_FORECAST_DAYS", 7),
		GeocodeCacheSize: getenvInt("GEOCODE_CACHE_SIZE", 1000),
		SQLitePath:       getenvDefault("SQLITE_PATH", "skycast.db"),

		Port:      getenvDefault("PORT", "8080"),
		LogLevel:  getenvDefault("LOG_LEVEL", "info"),
		LogFormat: getenvDefault("LOG_FORMAT", "json"),
	}

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.DeviceTimeout, err = getenvDuration("DEVICE_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.DeviceFixMaxAge, err = getenvDuration("DEVICE_FIX_MAX_AGE", "5m"); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getenvDuration("CACHE_TTL", "10m"); err != nil {
		return nil, err
	}
	if cfg.PrewarmInterval, err = getenvDuration("PREWARM_INTERVAL", "15m"); err != nil {
		return nil, err
	}

	if cfg.DefaultLocation, err = parseDefaultLocation(getenvDefault("DEFAULT_LOCATION", "13.0827,80.2707,Chennai,IN")); err != nil {
		return nil, err
	}

	if cfg.HourlyWindow <= 0 {
		return nil, fmt.Errorf("HOURLY_WINDOW must be positive")
	}
	if cfg.MaxForecastDays <= 0 || cfg.MaxForecastDays > 10 {
		return nil, fmt.Errorf("MAX_FORECAST_DAYS must be between 1 and 10")
	}

	return cfg, nil
}

// parseDefaultLocation parses "lat,lon,name[,countryCode]".
func parseDefaultLocation(s string) (weather.Location, error) {
	parts := strings.Split(s, ",")
	if len(parts) < 3 {
		return weather.Location{}, fmt.Errorf("invalid DEFAULT_LOCATION %q: want lat,lon,name[,country]", s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return weather.Location{}, fmt.Errorf("invalid DEFAULT_LOCATION latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return weather.Location{}, fmt.Errorf("invalid DEFAULT_LOCATION longitude: %w", err)
	}

	loc := weather.Location{
		Lat:  lat,
		Lon:  lon,
		Name: strings.TrimSpace(parts[2]),
	}
	if len(parts) > 3 {
		loc.Country = strings.TrimSpace(parts[3])
	}
	return loc, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	v := getenvDefault(key, def)
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return d, nil
}
