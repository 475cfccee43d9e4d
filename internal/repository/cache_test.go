// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/Gayathri240502/persft-web-sub000/internal/repository"
	"github.com/Gayathri240502/persft-web-sub000/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheEntry_RoundTrip(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

	require.NoError(t, repo.UpsertCacheEntry(ctx, "menu:admin", `[{"id":"m1"}]`, expires))

	entry, err := repo.GetCacheEntry(ctx, "menu:admin")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"m1"}]`, entry.Value)
	assert.True(t, entry.ExpiresAt.Equal(expires))
}

func TestCacheEntry_UpsertReplaces(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	expires := time.Now().Add(time.Hour)

	require.NoError(t, repo.UpsertCacheEntry(ctx, "k", "v1", expires))
	require.NoError(t, repo.UpsertCacheEntry(ctx, "k", "v2", expires))

	entry, err := repo.GetCacheEntry(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", entry.Value)
}

func TestCacheEntry_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	_, err := repo.GetCacheEntry(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCacheEntry_Delete(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertCacheEntry(ctx, "k", "v", time.Now().Add(time.Hour)))
	require.NoError(t, repo.DeleteCacheEntry(ctx, "k"))

	_, err := repo.GetCacheEntry(ctx, "k")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteExpiredCacheEntries(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.UpsertCacheEntry(ctx, "old", "v", now.Add(-time.Minute)))
	require.NoError(t, repo.UpsertCacheEntry(ctx, "fresh", "v", now.Add(time.Hour)))

	deleted, err := repo.DeleteExpiredCacheEntries(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.GetCacheEntry(ctx, "old")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetCacheEntry(ctx, "fresh")
	assert.NoError(t, err)
}
