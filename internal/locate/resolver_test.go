package locate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast/skycast/internal/observability"
	"github.com/skycast/skycast/internal/store"
	"github.com/skycast/skycast/internal/weather"
)

type fakeGeocoder struct {
	matches []weather.Location
	err     error
	queries []string
}

func (f *fakeGeocoder) Search(_ context.Context, query string) ([]weather.Location, error) {
	f.queries = append(f.queries, query)
	return f.matches, f.err
}

type fakeDevice struct {
	fix   Fix
	err   error
	calls int
}

func (f *fakeDevice) CurrentFix(_ context.Context) (Fix, error) {
	f.calls++
	return f.fix, f.err
}

var defaultLoc = weather.Location{Lat: 13.0827, Lon: 80.2707, Name: "Chennai", Country: "IN"}

func newResolver(geocoder Geocoder, device DeviceLocator, sessions store.SessionStore) *Resolver {
	return NewResolver(geocoder, device, sessions, defaultLoc, time.Second,
		slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
}

func TestResolveCityBeatsEverything(t *testing.T) {
	sessions := store.NewMemoryStore()
	cached := weather.Location{Lat: 51.5, Lon: -0.12, Name: "London"}
	require.NoError(t, sessions.Put(context.Background(), store.SessionRecord{LastLocation: &cached}))

	geocoder := &fakeGeocoder{matches: []weather.Location{{Lat: 48.85, Lon: 2.35, Name: "paris", Country: "FR"}}}
	device := &fakeDevice{fix: Fix{Lat: 1, Lon: 1}}
	r := newResolver(geocoder, device, sessions)

	loc, err := r.Resolve(context.Background(), Request{City: "paris"})
	require.NoError(t, err)
	assert.Equal(t, "Paris", loc.Name, "display name is title-cased")
	assert.Equal(t, 48.85, loc.Lat)
	assert.Zero(t, device.calls)

	// The session now points at the new city, and the query is in recents.
	rec, err := sessions.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "paris", rec.LastCityQuery)
	assert.Equal(t, 48.85, rec.LastLocation.Lat)

	recent, err := sessions.RecentSearches(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"paris"}, recent)
}

func TestResolveCityNotFound(t *testing.T) {
	r := newResolver(&fakeGeocoder{}, nil, store.NewMemoryStore())

	_, err := r.Resolve(context.Background(), Request{City: "Atlantis"})
	var notFound *weather.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "Atlantis", notFound.Query)
}

func TestResolveCityGeocoderFailurePropagates(t *testing.T) {
	wantErr := &weather.UpstreamError{Provider: "openweather-geo", Status: 503}
	r := newResolver(&fakeGeocoder{err: wantErr}, nil, store.NewMemoryStore())

	_, err := r.Resolve(context.Background(), Request{City: "Paris"})
	var upstream *weather.UpstreamError
	require.ErrorAs(t, err, &upstream, "a broken geocoder must not masquerade as an unknown city")
}

func TestResolveCoords(t *testing.T) {
	sessions := store.NewMemoryStore()
	r := newResolver(&fakeGeocoder{}, nil, sessions)

	lat, lon := 40.71, -74.0
	loc, err := r.Resolve(context.Background(), Request{Lat: &lat, Lon: &lon})
	require.NoError(t, err)
	assert.Equal(t, 40.71, loc.Lat)

	rec, err := sessions.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, -74.0, rec.LastLocation.Lon)
}

func TestResolveSessionTier(t *testing.T) {
	sessions := store.NewMemoryStore()
	cached := weather.Location{Lat: 51.5, Lon: -0.12, Name: "London"}
	require.NoError(t, sessions.Put(context.Background(), store.SessionRecord{LastLocation: &cached}))

	device := &fakeDevice{fix: Fix{Lat: 1, Lon: 1}}
	r := newResolver(&fakeGeocoder{}, device, sessions)

	loc, err := r.Resolve(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "London", loc.Name)
	assert.Zero(t, device.calls, "session hit must not trigger a device lookup")
}

func TestResolveDeviceTier(t *testing.T) {
	device := &fakeDevice{fix: Fix{Lat: 35.68, Lon: 139.69}}
	r := newResolver(&fakeGeocoder{}, device, store.NewMemoryStore())

	loc, err := r.Resolve(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, 35.68, loc.Lat)
}

func TestResolveDefaultTier(t *testing.T) {
	device := &fakeDevice{err: &weather.LocationUnavailableError{Reason: "refused"}}
	sessions := store.NewMemoryStore()
	r := newResolver(&fakeGeocoder{}, device, sessions)

	loc, err := r.Resolve(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, defaultLoc, loc, "no hints and no device still resolves, never errors")

	rec, err := sessions.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Chennai", rec.LastLocation.Name)
}

func TestResolveDefaultWithoutDevice(t *testing.T) {
	r := newResolver(&fakeGeocoder{}, nil, store.NewMemoryStore())

	loc, err := r.Resolve(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, defaultLoc, loc)
}

func TestResolvePersistFailureIsAdvisory(t *testing.T) {
	geocoder := &fakeGeocoder{matches: []weather.Location{{Lat: 48.85, Lon: 2.35, Name: "Paris"}}}
	r := newResolver(geocoder, nil, failingStore{})

	loc, err := r.Resolve(context.Background(), Request{City: "Paris"})
	require.NoError(t, err, "a broken session store must not fail resolution")
	assert.Equal(t, 48.85, loc.Lat)
}

type failingStore struct{}

func (failingStore) Get(context.Context) (store.SessionRecord, error) {
	return store.SessionRecord{}, errors.New("db locked")
}
func (failingStore) Put(context.Context, store.SessionRecord) error { return errors.New("db locked") }
func (failingStore) Clear(context.Context) error                    { return errors.New("db locked") }
func (failingStore) AddRecentSearch(context.Context, string) error  { return errors.New("db locked") }
func (failingStore) RecentSearches(context.Context, int) ([]string, error) {
	return nil, errors.New("db locked")
}
