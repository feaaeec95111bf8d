// Package quota enforces per-tier limits on active widgets.
package quota

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/widgetflow/internal/common"
	"github.com/Veraticus/widgetflow/internal/model"
	"github.com/Veraticus/widgetflow/internal/service"
)

// Decision is the outcome of a quota check.
type Decision struct {
	Tier         model.Tier
	CurrentCount int
	Limit        int
	Allowed      bool
}

// Unlimited reports whether the decision was made for an unlimited tier.
func (d Decision) Unlimited() bool {
	return d.Limit == model.Unlimited
}

// Remaining returns how many more widgets fit, or model.Unlimited.
func (d Decision) Remaining() int {
	if d.Unlimited() {
		return model.Unlimited
	}
	if d.CurrentCount >= d.Limit {
		return 0
	}
	return d.Limit - d.CurrentCount
}

// Err returns a *QuotaExceededError for a rejected decision and nil otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &QuotaExceededError{Tier: d.Tier, CurrentCount: d.CurrentCount, Limit: d.Limit}
}

// QuotaExceededError carries the numbers behind a rejection.
type QuotaExceededError struct {
	Tier         model.Tier
	CurrentCount int
	Limit        int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("tier %s allows %d active widgets, owner has %d", e.Tier, e.Limit, e.CurrentCount)
}

// Unwrap lets errors.Is match common.ErrQuotaExceeded.
func (e *QuotaExceededError) Unwrap() error {
	return common.ErrQuotaExceeded
}

// Gate answers whether an owner may add widgets.
type Gate struct {
	counter service.WidgetCounter
	quota   model.TierQuota
}

// NewGate creates a Gate. A zero TierQuota is replaced by the default table.
func NewGate(counter service.WidgetCounter, quota model.TierQuota) *Gate {
	if len(quota.Tiers()) == 0 {
		quota = model.DefaultTierQuota()
	}
	return &Gate{counter: counter, quota: quota}
}

// Quota returns the tier table the gate enforces.
func (g *Gate) Quota() model.TierQuota {
	return g.quota
}

// Authorize checks the owner's active widget count against the tier limit.
// Unknown tiers are treated as the lowest tier. Unlimited tiers never touch
// the store. Only a failing store produces an error.
func (g *Gate) Authorize(ctx context.Context, ownerID string, tier model.Tier) (Decision, error) {
	resolved, limit := g.quota.Limit(tier)
	if !g.quota.Known(tier) {
		slog.Debug("Unknown tier, applying lowest", "owner_id", ownerID, "tier", tier, "applied", resolved)
	}

	if limit == model.Unlimited {
		return Decision{Allowed: true, Tier: resolved, Limit: model.Unlimited}, nil
	}

	count, err := g.counter.CountActiveWidgets(ctx, ownerID)
	if err != nil {
		return Decision{}, common.StoreError("count active widgets", err)
	}

	return Decision{
		Allowed:      count < limit,
		CurrentCount: count,
		Limit:        limit,
		Tier:         resolved,
	}, nil
}
