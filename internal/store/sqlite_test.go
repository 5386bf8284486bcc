package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast/skycast/internal/weather"
)

func newTestStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestSQLiteEmptyStore(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Get(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteRoundtrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	loc := weather.Location{Lat: 48.85, Lon: 2.35, Name: "Paris", Country: "FR"}
	require.NoError(t, s.Put(ctx, SessionRecord{LastCityQuery: "paris", LastLocation: &loc}))

	rec, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "paris", rec.LastCityQuery)
	require.NotNil(t, rec.LastLocation)
	assert.Equal(t, loc, *rec.LastLocation)
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	loc := weather.Location{Lat: 51.5, Lon: -0.12, Name: "London"}
	require.NoError(t, s.Put(ctx, SessionRecord{LastLocation: &loc}))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	rec, err := reopened.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, rec.LastLocation)
	assert.Equal(t, "London", rec.LastLocation.Name)
}

func TestSQLitePartialPutKeepsOtherKeys(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	loc := weather.Location{Lat: 48.85, Lon: 2.35, Name: "Paris"}
	require.NoError(t, s.Put(ctx, SessionRecord{LastCityQuery: "paris", LastLocation: &loc}))

	// A coordinate-only resolution updates the location but not the city.
	other := weather.Location{Lat: 40.71, Lon: -74.0}
	require.NoError(t, s.Put(ctx, SessionRecord{LastLocation: &other}))

	rec, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "paris", rec.LastCityQuery)
	assert.Equal(t, 40.71, rec.LastLocation.Lat)
}

func TestSQLiteClear(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	loc := weather.Location{Lat: 1, Lon: 2}
	require.NoError(t, s.Put(ctx, SessionRecord{LastCityQuery: "x", LastLocation: &loc}))
	require.NoError(t, s.AddRecentSearch(ctx, "x"))

	require.NoError(t, s.Clear(ctx))

	_, err := s.Get(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	recent, err := s.RecentSearches(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestSQLiteRecentSearches(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, q := range []string{"paris", "london", "Paris", "tokyo"} {
		require.NoError(t, s.AddRecentSearch(ctx, q))
	}

	recent, err := s.RecentSearches(ctx, 10)
	require.NoError(t, err)
	// Most recent first, case-insensitive dedup keeps the newest spelling.
	assert.Equal(t, []string{"tokyo", "Paris", "london"}, recent)
}

func TestSQLiteRecentSearchesBounded(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	queries := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	for _, q := range queries {
		require.NoError(t, s.AddRecentSearch(ctx, q))
	}

	recent, err := s.RecentSearches(ctx, 20)
	require.NoError(t, err)
	assert.Len(t, recent, 10)
	assert.Equal(t, "l", recent[0])
}

func TestPushRecent(t *testing.T) {
	list := pushRecent(nil, "paris")
	list = pushRecent(list, "london")
	list = pushRecent(list, "PARIS")
	assert.Equal(t, []string{"PARIS", "london"}, list)
}
