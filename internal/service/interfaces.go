// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/Veraticus/widgetflow/internal/model"
)

// WidgetCounter reports how many active widgets an owner has.
type WidgetCounter interface {
	CountActiveWidgets(ctx context.Context, ownerID string) (int, error)
}

// WidgetStore defines the contract for widget persistence.
type WidgetStore interface {
	WidgetCounter

	// InsertWidgets stores the batch atomically. Inside one transaction it
	// skips widgets whose IDs already exist, re-counts the owner's active
	// widgets, and fails with common.ErrQuotaExceeded when limit is not
	// model.Unlimited and the count has reached it. Positions are assigned
	// after the owner's current maximum. The returned widgets carry their
	// stored positions and creation times.
	InsertWidgets(ctx context.Context, widgets []model.Widget, limit int) ([]model.Widget, error)

	DeactivateWidget(ctx context.Context, widgetID string) error
	GetActiveWidgets(ctx context.Context, ownerID string) ([]model.Widget, error)

	Migrate(ctx context.Context) error
	Close() error
}

// TierResolver looks up an owner's subscription tier.
type TierResolver interface {
	GetTier(ctx context.Context, ownerID string) (model.Tier, error)
}

// TierStore persists tier assignments.
type TierStore interface {
	TierResolver
	SetTier(ctx context.Context, ownerID string, tier model.Tier) error
}
