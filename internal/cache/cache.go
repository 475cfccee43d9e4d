// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package cache is the injected TTL cache for backend lookups. It
// replaces ad-hoc module-level caching: one storage backend, one TTL
// policy, explicit invalidation.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Gayathri240502/persft-web-sub000/internal/repository"
)

// DefaultTTL is used when the service is created with a non-positive
// TTL.
const DefaultTTL = 15 * time.Minute

// Service caches JSON-encodable values with a fixed TTL.
type Service struct {
	repo *repository.Repository
	ttl  time.Duration
	now  func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a cache service.
func New(repo *repository.Repository, ttl time.Duration, opts ...Option) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Service{repo: repo, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get loads the cached value for key into out. It reports false on a
// miss; an expired entry is deleted and counts as a miss.
func (s *Service) Get(ctx context.Context, key string, out any) (bool, error) {
	entry, err := s.repo.GetCacheEntry(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read cache entry: %w", err)
	}

	if s.now().After(entry.ExpiresAt) {
		_ = s.repo.DeleteCacheEntry(ctx, key)
		return false, nil
	}

	if err := json.Unmarshal([]byte(entry.Value), out); err != nil {
		return false, fmt.Errorf("decode cache entry: %w", err)
	}
	return true, nil
}

// Set stores value under key for the service TTL.
func (s *Service) Set(ctx context.Context, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	return s.repo.UpsertCacheEntry(ctx, key, string(encoded), s.now().Add(s.ttl))
}

// Invalidate removes the entry for key.
func (s *Service) Invalidate(ctx context.Context, key string) error {
	return s.repo.DeleteCacheEntry(ctx, key)
}

// PurgeExpired removes all expired entries and returns how many were
// dropped.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredCacheEntries(ctx, s.now())
}
