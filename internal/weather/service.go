package weather

import (
	"errors"
	"log/slog"

	"context"

	"github.com/jonboulle/clockwork"

	"github.com/skycast/skycast/internal/observability"
)

// Service is the fallback orchestrator: it walks the configured providers in
// priority order, accepts the first response that survives normalization, and
// shapes forecasts into the fixed-length hourly window and capped daily
// outlook. One attempt per provider per request; callers may re-invoke the
// whole orchestration if they want a retry.
type Service struct {
	providers []Provider
	cache     Cache
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics

	windowSize int
	maxDays    int
}

// NewService creates a Service. cache may be nil to disable response caching.
func NewService(providers []Provider, cache Cache, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, windowSize, maxDays int) *Service {
	return &Service{
		providers:  providers,
		cache:      cache,
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
		windowSize: windowSize,
		maxDays:    maxDays,
	}
}

// ErrNoProviders is returned when orchestration runs with an empty provider list.
var ErrNoProviders = errors.New("no weather providers configured")

// Current returns canonical current conditions for the location, falling back
// through the provider priority order. The resolved location's display name is
// filled from the provider response when the caller only had coordinates.
func (s *Service) Current(ctx context.Context, loc Location) (CurrentConditions, error) {
	if len(s.providers) == 0 {
		return CurrentConditions{}, ErrNoProviders
	}

	key := loc.Key()
	if s.cache != nil {
		if c, ok := s.cache.GetCurrent(key); ok {
			s.metrics.CacheLookups.WithLabelValues("current", "hit").Inc()
			return c, nil
		}
		s.metrics.CacheLookups.WithLabelValues("current", "miss").Inc()
	}

	var (
		lastErr  error
		lastName string
	)
	for i, p := range s.providers {
		cond, err := p.FetchCurrent(ctx, loc)
		if err != nil {
			s.metrics.ProviderRequests.WithLabelValues(p.Name(), "current", "error").Inc()
			s.logger.Warn("current fetch failed, trying next provider",
				"provider", p.Name(), "location", key, "error", err)
			lastErr = err
			lastName = p.Name()
			if i < len(s.providers)-1 {
				s.metrics.Fallbacks.WithLabelValues("current").Inc()
			}
			continue
		}
		s.metrics.ProviderRequests.WithLabelValues(p.Name(), "current", "success").Inc()

		if s.cache != nil {
			s.cache.PutCurrent(key, cond)
		}
		return cond, nil
	}

	return CurrentConditions{}, &StageError{Stage: "current", Provider: lastName, Err: lastErr}
}

// Forecast returns the hourly window and daily outlook for the location. A
// provider response is accepted only when both shaped arrays are non-empty;
// otherwise the next provider is tried. On total failure the last error is
// propagated, annotated with the stage, rather than an empty forecast.
func (s *Service) Forecast(ctx context.Context, loc Location) (Forecast, error) {
	if len(s.providers) == 0 {
		return Forecast{}, ErrNoProviders
	}

	key := loc.Key()
	if s.cache != nil {
		if f, ok := s.cache.GetForecast(key); ok {
			s.metrics.CacheLookups.WithLabelValues("forecast", "hit").Inc()
			return f, nil
		}
		s.metrics.CacheLookups.WithLabelValues("forecast", "miss").Inc()
	}

	var (
		lastErr  error
		lastName string
	)
	for i, p := range s.providers {
		raw, err := p.FetchForecast(ctx, loc)
		if err == nil {
			shaped := s.shape(raw)
			if len(shaped.Hourly) == 0 || len(shaped.Daily) == 0 {
				err = &MalformedResponseError{Provider: p.Name(), Detail: "empty forecast after normalization"}
			} else {
				s.metrics.ProviderRequests.WithLabelValues(p.Name(), "forecast", "success").Inc()
				if s.cache != nil {
					s.cache.PutForecast(key, shaped)
				}
				return shaped, nil
			}
		}

		s.metrics.ProviderRequests.WithLabelValues(p.Name(), "forecast", "error").Inc()
		s.logger.Warn("forecast fetch failed, trying next provider",
			"provider", p.Name(), "location", key, "error", err)
		lastErr = err
		lastName = p.Name()
		if i < len(s.providers)-1 {
			s.metrics.Fallbacks.WithLabelValues("forecast").Inc()
		}
	}

	return Forecast{}, &StageError{Stage: "forecast", Provider: lastName, Err: lastErr}
}

// shape enforces the window and daily invariants on a provider-native
// forecast. Providers that only deliver hourly data get their daily outlook
// derived by calendar-date aggregation.
func (s *Service) shape(raw Forecast) Forecast {
	hourly := BuildHourlyWindow(raw.Hourly, s.clock.Now(), s.windowSize)

	daily := raw.Daily
	if len(daily) == 0 {
		daily = AggregateDaily(raw.Hourly, s.maxDays)
	} else if len(daily) > s.maxDays {
		daily = daily[:s.maxDays]
	}

	return Forecast{Hourly: hourly, Daily: daily}
}
