package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	httpapi "github.com/skycast/skycast/internal/api/http"
	"github.com/skycast/skycast/internal/config"
	"github.com/skycast/skycast/internal/geocode"
	"github.com/skycast/skycast/internal/locate"
	"github.com/skycast/skycast/internal/observability"
	"github.com/skycast/skycast/internal/scheduler"
	"github.com/skycast/skycast/internal/store"
	"github.com/skycast/skycast/internal/weather"
	"github.com/skycast/skycast/internal/weather/providers"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Durable session store; an in-memory store keeps the service usable when
	// the database path is not writable.
	var sessions store.SessionStore
	sqlStore, err := store.NewSQLiteStore(cfg.SQLitePath)
	if err != nil {
		logger.Warn("sqlite store unavailable, sessions will not survive restarts", "path", cfg.SQLitePath, "error", err)
		sessions = store.NewMemoryStore()
	} else {
		defer sqlStore.Close()
		sessions = sqlStore
	}

	// Geocoding chain: OpenWeather direct geocoding, Google as fallback when
	// a key is configured, LRU cache in front.
	var geocoder locate.Geocoder = geocode.NewOpenWeatherClient(cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL, cfg.HTTPTimeout, logger)
	if cfg.GoogleAPIKey != "" {
		geocoder = &geocode.WithFallback{Primary: geocoder, Secondary: geocode.NewGoogleClient(cfg.GoogleAPIKey)}
	}
	cachedGeocoder, err := geocode.NewCached(geocoder, cfg.GeocodeCacheSize, metrics)
	if err != nil {
		log.Fatalf("failed to build geocode cache: %v", err)
	}

	device := locate.NewIPLocator(cfg.GeoIPBaseURL, cfg.DeviceTimeout, cfg.DeviceFixMaxAge, clock)
	resolver := locate.NewResolver(cachedGeocoder, device, sessions, cfg.DefaultLocation, cfg.DeviceTimeout, logger, metrics)

	// Providers in fallback order. Keyless Open-Meteo always closes the chain.
	var provs []weather.Provider
	if cfg.OpenWeatherAPIKey != "" {
		provs = append(provs, providers.NewOpenWeather(httpClient, cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL))
	}
	if cfg.WeatherAPIKey != "" {
		provs = append(provs, providers.NewWeatherAPI(httpClient, cfg.WeatherAPIKey, cfg.WeatherAPIBaseURL, cfg.MaxForecastDays))
	}
	provs = append(provs, providers.NewOpenMeteo(httpClient, cfg.OpenMeteoBaseURL, cfg.MaxForecastDays))

	cache := weather.NewTTLCache(cfg.CacheTTL, clock)
	service := weather.NewService(provs, cache, clock, logger, metrics, cfg.HourlyWindow, cfg.MaxForecastDays)

	sched := scheduler.New(service, sessions, cfg.DefaultLocation, cfg.PrewarmInterval, logger)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "skycast",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, httpapi.Handlers{
		Resolver:    resolver,
		Weather:     service,
		Sessions:    sessions,
		Geocoder:    cachedGeocoder,
		Metrics:     metrics,
		Clock:       clock,
		TileBaseURL: cfg.TileBaseURL,
		TileAPIKey:  cfg.OpenWeatherAPIKey,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("server stopped", "error", err)
		}
	}()
	logger.Info("listening", "port", cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
