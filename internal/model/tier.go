package model

import (
	"fmt"
	"sort"
	"strings"
)

// Tier is a user's subscription level.
type Tier string

// Known tiers.
const (
	TierFree    Tier = "free"
	TierPlus    Tier = "plus"
	TierPremium Tier = "premium"
)

// Unlimited marks a tier without a widget limit.
const Unlimited = -1

// TierQuota maps tiers to their active-widget limits.
type TierQuota struct {
	limits map[Tier]int
	lowest Tier
}

// DefaultTierQuota returns the built-in tier table.
func DefaultTierQuota() TierQuota {
	q, _ := NewTierQuota(map[Tier]int{
		TierFree:    3,
		TierPlus:    10,
		TierPremium: Unlimited,
	}, TierFree)
	return q
}

// NewTierQuota builds a quota table. The lowest tier is used for unknown names
// and must be present with a finite limit.
func NewTierQuota(limits map[Tier]int, lowest Tier) (TierQuota, error) {
	if len(limits) == 0 {
		return TierQuota{}, fmt.Errorf("tier table is empty")
	}
	normalized := make(map[Tier]int, len(limits))
	for tier, limit := range limits {
		if limit < Unlimited {
			return TierQuota{}, fmt.Errorf("tier %q has invalid limit %d", tier, limit)
		}
		normalized[NormalizeTier(string(tier))] = limit
	}
	lowest = NormalizeTier(string(lowest))
	limit, ok := normalized[lowest]
	if !ok {
		return TierQuota{}, fmt.Errorf("lowest tier %q is not in the tier table", lowest)
	}
	if limit == Unlimited {
		return TierQuota{}, fmt.Errorf("lowest tier %q cannot be unlimited", lowest)
	}
	return TierQuota{limits: normalized, lowest: lowest}, nil
}

// NormalizeTier lowercases and trims a tier name.
func NormalizeTier(s string) Tier {
	return Tier(strings.ToLower(strings.TrimSpace(s)))
}

// Resolve returns the tier to apply for the given name, falling back to the lowest tier.
func (q TierQuota) Resolve(tier Tier) Tier {
	tier = NormalizeTier(string(tier))
	if _, ok := q.limits[tier]; ok {
		return tier
	}
	return q.lowest
}

// Known reports whether the tier has an entry in the table.
func (q TierQuota) Known(tier Tier) bool {
	_, ok := q.limits[NormalizeTier(string(tier))]
	return ok
}

// Limit returns the resolved tier and its limit.
func (q TierQuota) Limit(tier Tier) (Tier, int) {
	resolved := q.Resolve(tier)
	return resolved, q.limits[resolved]
}

// Lowest returns the fallback tier.
func (q TierQuota) Lowest() Tier {
	return q.lowest
}

// Tiers returns the configured tier names in sorted order.
func (q TierQuota) Tiers() []Tier {
	tiers := make([]Tier, 0, len(q.limits))
	for t := range q.limits {
		tiers = append(tiers, t)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i] < tiers[j] })
	return tiers
}
