// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// CacheEntry is one row of the TTL cache.
type CacheEntry struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// UpsertCacheEntry inserts or replaces a cache entry.
func (r *Repository) UpsertCacheEntry(ctx context.Context, key, value string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cache_entries (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expiresAt)
	return err
}

// GetCacheEntry retrieves a cache entry by key, expired or not.
func (r *Repository) GetCacheEntry(ctx context.Context, key string) (*CacheEntry, error) {
	var entry CacheEntry
	err := r.db.GetContext(ctx, &entry, `SELECT * FROM cache_entries WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteCacheEntry removes a cache entry by key.
func (r *Repository) DeleteCacheEntry(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key)
	return err
}

// DeleteExpiredCacheEntries removes all entries past their deadline.
func (r *Repository) DeleteExpiredCacheEntries(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE expires_at < ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
