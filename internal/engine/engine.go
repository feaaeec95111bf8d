// Package engine wires the suggestion pipeline to quota enforcement and persistence.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/widgetflow/internal/common"
	"github.com/Veraticus/widgetflow/internal/model"
	"github.com/Veraticus/widgetflow/internal/quota"
	"github.com/Veraticus/widgetflow/internal/service"
	"github.com/Veraticus/widgetflow/internal/suggest"
)

// ErrNoWidgets is returned when Confirm is called with an empty batch.
var ErrNoWidgets = errors.New("no widgets to save")

// ErrOwnerMismatch is returned when a widget belongs to a different owner than the caller.
var ErrOwnerMismatch = errors.New("widget owner does not match")

// Service runs conversational turns through the suggestion pipeline and
// persists what the user accepts.
type Service struct {
	suggester Suggester
	gate      *quota.Gate
	store     service.WidgetStore
	tiers     service.TierResolver
	quota     model.TierQuota
}

// Config holds configuration options for the service.
type Config struct {
	Quota model.TierQuota
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{Quota: model.DefaultTierQuota()}
}

// ConfirmResult is the outcome of a confirmation. Widgets is empty when the
// decision was a rejection.
type ConfirmResult struct {
	Decision quota.Decision
	Widgets  []model.Widget
}

// Saved reports whether the batch was persisted.
func (r ConfirmResult) Saved() bool {
	return r.Decision.Allowed
}

// New creates a service with the default tier table.
func New(suggester Suggester, store service.WidgetStore, tiers service.TierResolver) *Service {
	return NewWithConfig(suggester, store, tiers, DefaultConfig())
}

// NewWithConfig creates a service with a custom configuration.
func NewWithConfig(suggester Suggester, store service.WidgetStore, tiers service.TierResolver, config Config) *Service {
	gate := quota.NewGate(store, config.Quota)
	return &Service{
		suggester: suggester,
		gate:      gate,
		store:     store,
		tiers:     tiers,
		quota:     gate.Quota(),
	}
}

// Suggest evaluates one turn. It performs no I/O and never persists.
func (s *Service) Suggest(ctx context.Context, turn *suggest.TurnContext) *model.Suggestion {
	if ctx.Err() != nil {
		return nil
	}
	return s.suggester.Run(turn)
}

// Confirm persists widgets the user accepted. The batch is checked against
// the owner's tier once, then written in a single transaction that repeats
// the check, so concurrent confirmations cannot push the owner past the limit.
// The store has the final say: a batch whose IDs are all saved already is
// returned as stored even when the owner is at the limit. A refused batch is
// reported through the decision, not as an error.
func (s *Service) Confirm(ctx context.Context, ownerID string, widgets []model.Widget) (ConfirmResult, error) {
	if len(widgets) == 0 {
		return ConfirmResult{}, ErrNoWidgets
	}
	for _, w := range widgets {
		if w.OwnerID != ownerID {
			return ConfirmResult{}, fmt.Errorf("%w: widget %s", ErrOwnerMismatch, w.ID)
		}
	}

	tier := s.resolveTier(ctx, ownerID)

	decision, err := s.gate.Authorize(ctx, ownerID, tier)
	if err != nil {
		return ConfirmResult{}, common.NewUserError("Could not check your widget quota", err)
	}
	if !decision.Allowed {
		common.LogDebug("Owner at quota, checking for a replayed batch", common.Fields{
			"owner_id": ownerID,
			"count":    decision.CurrentCount,
			"limit":    decision.Limit,
		})
	}

	if err := ctx.Err(); err != nil {
		return ConfirmResult{}, err
	}

	saved, err := s.store.InsertWidgets(ctx, widgets, decision.Limit)
	if errors.Is(err, common.ErrQuotaExceeded) {
		return s.rejected(ctx, ownerID, decision)
	}
	if err != nil {
		return ConfirmResult{}, common.NewUserError("Could not save widgets, nothing was changed", err)
	}

	decision.Allowed = true
	if !decision.Unlimited() {
		decision.CurrentCount = s.recount(ctx, ownerID, decision.CurrentCount)
	}

	common.LogInfo("Saved widgets", common.Fields{
		"owner_id": ownerID,
		"count":    len(saved),
		"tier":     decision.Tier,
	})

	return ConfirmResult{Decision: decision, Widgets: saved}, nil
}

// rejected reports a batch the store refused because the owner holds limit
// active widgets, either before the call or after a concurrent confirmation.
func (s *Service) rejected(ctx context.Context, ownerID string, prior quota.Decision) (ConfirmResult, error) {
	decision := quota.Decision{Tier: prior.Tier, Limit: prior.Limit}
	decision.CurrentCount = s.recount(ctx, ownerID, prior.Limit)

	common.LogInfo("Widget quota reached", common.Fields{
		"owner_id": ownerID,
		"tier":     decision.Tier,
		"count":    decision.CurrentCount,
		"limit":    decision.Limit,
	})
	return ConfirmResult{Decision: decision}, nil
}

// recount returns the owner's active widget count, or fallback when the
// store cannot answer.
func (s *Service) recount(ctx context.Context, ownerID string, fallback int) int {
	count, err := s.store.CountActiveWidgets(ctx, ownerID)
	if err != nil {
		common.LogError(err, "Failed to recount active widgets", common.Fields{"owner_id": ownerID})
		return fallback
	}
	return count
}

func (s *Service) resolveTier(ctx context.Context, ownerID string) model.Tier {
	lowest := s.quota.Lowest()
	if s.tiers == nil {
		return lowest
	}
	tier, err := s.tiers.GetTier(ctx, ownerID)
	if err != nil {
		common.LogWarn("Tier lookup failed, using lowest tier", common.Fields{
			"owner_id": ownerID,
			"tier":     lowest,
			"error":    err,
		})
		return lowest
	}
	return tier
}

// Deactivate marks a widget inactive. Dismissing an already inactive widget succeeds.
func (s *Service) Deactivate(ctx context.Context, widgetID string) error {
	err := s.store.DeactivateWidget(ctx, widgetID)
	if errors.Is(err, common.ErrNotFound) {
		return common.NewUserError("No widget with id "+widgetID, err)
	}
	if err != nil {
		return common.NewUserError("Could not dismiss widget "+widgetID, err)
	}
	common.LogDebug("Deactivated widget", common.Fields{"widget_id": widgetID})
	return nil
}

// ListWidgets returns the owner's active widgets in display order.
func (s *Service) ListWidgets(ctx context.Context, ownerID string) ([]model.Widget, error) {
	widgets, err := s.store.GetActiveWidgets(ctx, ownerID)
	if err != nil {
		return nil, common.NewUserError("Could not load your widgets", err)
	}
	return widgets, nil
}

// Status reports the owner's current quota standing without saving anything.
func (s *Service) Status(ctx context.Context, ownerID string) (quota.Decision, error) {
	decision, err := s.gate.Authorize(ctx, ownerID, s.resolveTier(ctx, ownerID))
	if err != nil {
		return quota.Decision{}, common.NewUserError("Could not check your widget quota", err)
	}
	return decision, nil
}
