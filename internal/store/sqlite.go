package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Key names mirror the browser localStorage keys this store replaces.
const (
	keyLastCity       = "lastSearchedCity"
	keyLastLocation   = "lastKnownLocation"
	keyRecentSearches = "recentSearches"
)

// SQLiteStore is the durable SessionStore implementation: a single key-value
// table, last-write-wins per key, no cross-key transactional guarantees.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and ensures the
// schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS session_kv (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create session schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Get(ctx context.Context) (SessionRecord, error) {
	var rec SessionRecord

	city, err := s.getKey(ctx, keyLastCity)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return SessionRecord{}, err
	}
	rec.LastCityQuery = city

	locJSON, err := s.getKey(ctx, keyLastLocation)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if rec.LastCityQuery == "" {
				return SessionRecord{}, ErrNotFound
			}
			return rec, nil
		}
		return SessionRecord{}, err
	}

	if err := json.Unmarshal([]byte(locJSON), &rec.LastLocation); err != nil {
		// A corrupt value is advisory state, not fatal; treat as absent.
		rec.LastLocation = nil
	}
	return rec, nil
}

func (s *SQLiteStore) Put(ctx context.Context, rec SessionRecord) error {
	if rec.LastCityQuery != "" {
		if err := s.putKey(ctx, keyLastCity, rec.LastCityQuery); err != nil {
			return err
		}
	}
	if rec.LastLocation != nil {
		data, err := json.Marshal(rec.LastLocation)
		if err != nil {
			return fmt.Errorf("marshal last location: %w", err)
		}
		if err := s.putKey(ctx, keyLastLocation, string(data)); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session_kv`)
	return err
}

func (s *SQLiteStore) AddRecentSearch(ctx context.Context, query string) error {
	if query == "" {
		return nil
	}

	list, err := s.RecentSearches(ctx, maxRecentSearches)
	if err != nil {
		return err
	}

	data, err := json.Marshal(pushRecent(list, query))
	if err != nil {
		return fmt.Errorf("marshal recent searches: %w", err)
	}
	return s.putKey(ctx, keyRecentSearches, string(data))
}

func (s *SQLiteStore) RecentSearches(ctx context.Context, limit int) ([]string, error) {
	raw, err := s.getKey(ctx, keyRecentSearches)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, nil
	}
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *SQLiteStore) getKey(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM session_kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) putKey(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_kv(key, value, updated_at) VALUES(?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}
