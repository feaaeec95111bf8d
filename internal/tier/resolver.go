package tier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Veraticus/widgetflow/internal/common"
	"github.com/Veraticus/widgetflow/internal/model"
	"github.com/Veraticus/widgetflow/internal/service"
)

// FallbackResolver never fails: lookup errors and unknown tiers resolve to
// the quota table's lowest tier.
type FallbackResolver struct {
	inner service.TierResolver
	quota model.TierQuota
}

// NewFallbackResolver wraps inner. A nil inner always yields the lowest tier.
func NewFallbackResolver(inner service.TierResolver, quota model.TierQuota) *FallbackResolver {
	if len(quota.Tiers()) == 0 {
		quota = model.DefaultTierQuota()
	}
	return &FallbackResolver{inner: inner, quota: quota}
}

// GetTier implements service.TierResolver.
func (f *FallbackResolver) GetTier(ctx context.Context, ownerID string) (model.Tier, error) {
	lowest := f.quota.Lowest()
	if f.inner == nil {
		return lowest, nil
	}

	tier, err := f.inner.GetTier(ctx, ownerID)
	switch {
	case errors.Is(err, common.ErrNotFound):
		slog.Debug("No tier recorded, using lowest", "owner_id", ownerID, "tier", lowest)
		return lowest, nil
	case err != nil && common.IsRetryable(err):
		slog.Warn("Tier lookup unavailable, using lowest", "owner_id", ownerID, "tier", lowest, "error", err)
		return lowest, nil
	case err != nil:
		common.LogError(err, "Tier lookup failed, using lowest", common.Fields{"owner_id": ownerID, "tier": lowest})
		return lowest, nil
	case !f.quota.Known(tier):
		slog.Warn("Unknown tier, using lowest", "owner_id", ownerID, "tier", tier, "applied", lowest)
		return lowest, nil
	}
	return model.NormalizeTier(string(tier)), nil
}

// ChainResolver asks each resolver in turn until one knows the owner.
type ChainResolver struct {
	resolvers []service.TierResolver
}

// NewChainResolver creates a resolver over the given sources, in order.
func NewChainResolver(resolvers ...service.TierResolver) *ChainResolver {
	return &ChainResolver{resolvers: resolvers}
}

// GetTier implements service.TierResolver. Not-found answers move on to the
// next source; the first other error is returned once every source is tried.
func (c *ChainResolver) GetTier(ctx context.Context, ownerID string) (model.Tier, error) {
	var firstErr error
	for _, r := range c.resolvers {
		tier, err := r.GetTier(ctx, ownerID)
		if err == nil {
			return tier, nil
		}
		if !errors.Is(err, common.ErrNotFound) && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return "", firstErr
	}
	return "", fmt.Errorf("%w: tier for %s", common.ErrNotFound, ownerID)
}

// FixedResolver applies one tier to every owner.
type FixedResolver struct {
	tier model.Tier
}

// NewFixedResolver creates a resolver that always answers t.
func NewFixedResolver(t model.Tier) *FixedResolver {
	return &FixedResolver{tier: model.NormalizeTier(string(t))}
}

// GetTier implements service.TierResolver.
func (f *FixedResolver) GetTier(_ context.Context, _ string) (model.Tier, error) {
	return f.tier, nil
}

// StaticResolver serves tiers from memory.
type StaticResolver struct {
	tiers map[string]model.Tier
	mu    sync.RWMutex
}

// NewStaticResolver creates a resolver seeded with tiers.
func NewStaticResolver(tiers map[string]model.Tier) *StaticResolver {
	copied := make(map[string]model.Tier, len(tiers))
	for owner, t := range tiers {
		copied[owner] = model.NormalizeTier(string(t))
	}
	return &StaticResolver{tiers: copied}
}

// GetTier implements service.TierResolver.
func (s *StaticResolver) GetTier(_ context.Context, ownerID string) (model.Tier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tiers[ownerID]
	if !ok {
		return "", fmt.Errorf("%w: tier for %s", common.ErrNotFound, ownerID)
	}
	return t, nil
}

// SetTier implements service.TierStore.
func (s *StaticResolver) SetTier(_ context.Context, ownerID string, tier model.Tier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tiers[ownerID] = model.NormalizeTier(string(tier))
	return nil
}
