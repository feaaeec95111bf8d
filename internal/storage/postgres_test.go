package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/Veraticus/widgetflow/internal/common"
	"github.com/Veraticus/widgetflow/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createPostgresStorage connects to WIDGETFLOW_TEST_POSTGRES_URL or skips.
func createPostgresStorage(t *testing.T) *PostgresStorage {
	t.Helper()
	url := os.Getenv("WIDGETFLOW_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("WIDGETFLOW_TEST_POSTGRES_URL not set")
	}

	ctx := context.Background()
	store, err := NewPostgresStorage(ctx, url)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPostgresStorage_InsertAndReplay(t *testing.T) {
	store := createPostgresStorage(t)
	ctx := context.Background()
	owner := "pg-" + uuid.NewString()

	batch := goalBatch(owner, uuid.NewString())
	first, err := store.InsertWidgets(ctx, batch, 3)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{first[0].Position, first[1].Position, first[2].Position})

	second, err := store.InsertWidgets(ctx, batch, 3)
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID)

	count, err := store.CountActiveWidgets(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	_, err = store.InsertWidgets(ctx, []model.Widget{testWidget(owner, uuid.NewString())}, 3)
	assert.ErrorIs(t, err, common.ErrQuotaExceeded)

	require.NoError(t, store.DeactivateWidget(ctx, first[0].ID))
	active, err := store.GetActiveWidgets(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	assert.ErrorIs(t, store.DeactivateWidget(ctx, uuid.NewString()), common.ErrNotFound)
}

func TestPostgresStorage_ConcurrentInsertsNeverExceedLimit(t *testing.T) {
	store := createPostgresStorage(t)
	ctx := context.Background()
	owner := "pg-" + uuid.NewString()

	const limit = 3
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.InsertWidgets(ctx, []model.Widget{testWidget(owner, fmt.Sprintf("%s-%d", owner, i))}, limit)
			if err != nil && !errors.Is(err, common.ErrQuotaExceeded) {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, limit, accepted)
	count, err := store.CountActiveWidgets(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, limit, count)
}

func TestPostgresStorage_Tiers(t *testing.T) {
	store := createPostgresStorage(t)
	ctx := context.Background()
	owner := "pg-" + uuid.NewString()

	_, err := store.GetTier(ctx, owner)
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, store.SetTier(ctx, owner, model.TierPlus))
	tier, err := store.GetTier(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, model.TierPlus, tier)
}

func TestNewPostgresStorage_RejectsEmptyURL(t *testing.T) {
	_, err := NewPostgresStorage(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyString)
}
