// Package locate turns an ambiguous location request into one authoritative
// Location.
package locate

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/skycast/skycast/internal/observability"
	"github.com/skycast/skycast/internal/store"
	"github.com/skycast/skycast/internal/weather"
)

// Geocoder is the slice of the geocoding surface the resolver needs.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]weather.Location, error)
}

// Request carries the caller's location hints. Nil pointers mean "not given".
type Request struct {
	City string
	Lat  *float64
	Lon  *float64
}

// Resolver picks a single authoritative location using a fixed priority
// order: explicit city, explicit coordinates, session record, device
// geolocation, configured default. Every successful resolution updates the
// session store before returning.
type Resolver struct {
	geocoder      Geocoder
	device        DeviceLocator // may be nil
	sessions      store.SessionStore
	defaultLoc    weather.Location
	deviceTimeout time.Duration
	logger        *slog.Logger
	metrics       *observability.Metrics

	titleCaser cases.Caser
}

func NewResolver(geocoder Geocoder, device DeviceLocator, sessions store.SessionStore, defaultLoc weather.Location, deviceTimeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	return &Resolver{
		geocoder:      geocoder,
		device:        device,
		sessions:      sessions,
		defaultLoc:    defaultLoc,
		deviceTimeout: deviceTimeout,
		logger:        logger,
		metrics:       metrics,
		titleCaser:    cases.Title(language.English),
	}
}

// Resolve walks the priority tiers and returns the first satisfiable
// location. City lookups that find nothing fail with NotFoundError; a failing
// geocoder call surfaces as-is. Device failures are silent, lower tiers
// always exist, so with no hints at all the configured default wins rather
// than an error.
func (r *Resolver) Resolve(ctx context.Context, req Request) (weather.Location, error) {
	if req.City != "" {
		return r.resolveCity(ctx, req.City)
	}

	if req.Lat != nil && req.Lon != nil {
		loc := weather.Location{Lat: *req.Lat, Lon: *req.Lon}
		r.metrics.ResolveTier.WithLabelValues("coords").Inc()
		r.persist(ctx, "", loc)
		return loc, nil
	}

	if rec, err := r.sessions.Get(ctx); err == nil && rec.LastLocation != nil {
		r.metrics.ResolveTier.WithLabelValues("session").Inc()
		return *rec.LastLocation, nil
	}

	if r.device != nil {
		deviceCtx, cancel := context.WithTimeout(ctx, r.deviceTimeout)
		fix, err := r.device.CurrentFix(deviceCtx)
		cancel()
		if err == nil {
			loc := weather.Location{Lat: fix.Lat, Lon: fix.Lon}
			r.metrics.ResolveTier.WithLabelValues("device").Inc()
			r.persist(ctx, "", loc)
			return loc, nil
		}
		r.logger.Debug("device location unavailable, using default", "error", err)
	}

	r.metrics.ResolveTier.WithLabelValues("default").Inc()
	r.persist(ctx, "", r.defaultLoc)
	return r.defaultLoc, nil
}

func (r *Resolver) resolveCity(ctx context.Context, city string) (weather.Location, error) {
	matches, err := r.geocoder.Search(ctx, city)
	if err != nil {
		return weather.Location{}, err
	}
	if len(matches) == 0 {
		return weather.Location{}, &weather.NotFoundError{Query: city}
	}

	loc := matches[0]
	loc.Name = r.titleCaser.String(loc.Name)

	r.metrics.ResolveTier.WithLabelValues("city").Inc()
	r.persist(ctx, city, loc)
	return loc, nil
}

// persist records the resolution outcome. Failures here are advisory: the
// resolution itself already succeeded.
func (r *Resolver) persist(ctx context.Context, cityQuery string, loc weather.Location) {
	rec := store.SessionRecord{LastCityQuery: cityQuery, LastLocation: &loc}
	if err := r.sessions.Put(ctx, rec); err != nil {
		r.logger.Warn("failed to persist session location", "error", err)
	}
	if cityQuery != "" {
		if err := r.sessions.AddRecentSearch(ctx, cityQuery); err != nil {
			r.logger.Warn("failed to record recent search", "error", err)
		}
	}
}
