package store

import (
	"context"
	"errors"
	"strings"

	"github.com/skycast/skycast/internal/weather"
)

// ErrNotFound is returned when the session record has never been written.
var ErrNotFound = errors.New("no session record")

// SessionRecord is the persisted last-known-location state, the server-side
// counterpart of the client's localStorage keys. Overwritten on every
// successful resolution; last write wins, concurrent writers are not
// reconciled.
type SessionRecord struct {
	LastCityQuery string            `json:"lastCityQuery,omitempty"`
	LastLocation  *weather.Location `json:"lastLocation,omitempty"`
}

// SessionStore is a small durable key-value store consulted as a fallback
// source of truth during location resolution. Implementations must survive
// process restarts (except the in-memory test double).
type SessionStore interface {
	Get(ctx context.Context) (SessionRecord, error)
	Put(ctx context.Context, rec SessionRecord) error
	Clear(ctx context.Context) error

	// AddRecentSearch records a query in the bounded most-recent-first,
	// de-duplicated search list.
	AddRecentSearch(ctx context.Context, query string) error
	RecentSearches(ctx context.Context, limit int) ([]string, error)
}

// maxRecentSearches bounds the recent search list.
const maxRecentSearches = 10

// pushRecent prepends query to list, de-duplicating case-insensitively and
// enforcing the bound. Shared by both implementations.
func pushRecent(list []string, query string) []string {
	out := make([]string, 0, len(list)+1)
	out = append(out, query)
	for _, q := range list {
		if strings.EqualFold(q, query) {
			continue
		}
		out = append(out, q)
	}
	if len(out) > maxRecentSearches {
		out = out[:maxRecentSearches]
	}
	return out
}
