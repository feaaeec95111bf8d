package storage

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/widgetflow/internal/common"
	"github.com/Veraticus/widgetflow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStorage_Tiers(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.GetTier(ctx, "owner")
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, store.SetTier(ctx, "owner", " Plus "))
	tier, err := store.GetTier(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, model.TierPlus, tier)

	require.NoError(t, store.SetTier(ctx, "owner", model.TierPremium))
	tier, err = store.GetTier(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, model.TierPremium, tier, "SetTier invalidates the cached tier")

	assert.ErrorIs(t, store.SetTier(ctx, "owner", ""), ErrInvalidTier)
	assert.ErrorIs(t, store.SetTier(ctx, "", model.TierFree), ErrEmptyString)
}

func TestSQLiteStorage_TierCacheExpires(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.SetTier(ctx, "owner", model.TierPlus))
	_, err := store.GetTier(ctx, "owner")
	require.NoError(t, err)

	// Change the row behind the cache's back.
	_, err = store.db.ExecContext(ctx, `UPDATE user_tiers SET tier = 'premium' WHERE owner_id = 'owner'`)
	require.NoError(t, err)

	tier, err := store.GetTier(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, model.TierPlus, tier, "served from cache")

	now = now.Add(tierCacheTTL + time.Second)
	tier, err = store.GetTier(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, model.TierPremium, tier)
}
