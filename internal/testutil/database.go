// Package testutil provides shared test helpers for widgetflow packages.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/Veraticus/widgetflow/internal/model"
	"github.com/Veraticus/widgetflow/internal/storage"
)

// TestDB wraps a migrated in-memory SQLite store.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database.
// It automatically handles migrations and cleanup.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// SeedWidgets stores n habit widgets for the owner without a quota check.
func (db *TestDB) SeedWidgets(ownerID string, n int) []model.Widget {
	db.t.Helper()

	widgets := make([]model.Widget, 0, n)
	for i := 0; i < n; i++ {
		widgets = append(widgets, model.Widget{
			ID:      fmt.Sprintf("%s-seed-%d", ownerID, i),
			OwnerID: ownerID,
			Type:    model.WidgetTypeHabit,
			Title:   fmt.Sprintf("Seed %d", i),
			Payload: model.HabitFields{Items: []string{"Uống nước"}},
			Active:  true,
		})
	}
	if n == 0 {
		return widgets
	}

	stored, err := db.Storage.InsertWidgets(context.Background(), widgets, model.Unlimited)
	if err != nil {
		db.t.Fatalf("failed to seed widgets: %v", err)
	}
	return stored
}

// SetTier records a tier for the owner or fails the test.
func (db *TestDB) SetTier(ownerID string, tier model.Tier) {
	db.t.Helper()
	if err := db.Storage.SetTier(context.Background(), ownerID, tier); err != nil {
		db.t.Fatalf("failed to set tier: %v", err)
	}
}
