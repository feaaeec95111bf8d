package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/widgetflow/internal/common"
	"github.com/Veraticus/widgetflow/internal/model"
)

// GetTier returns the stored tier for an owner, or common.ErrNotFound.
func (s *SQLiteStorage) GetTier(ctx context.Context, ownerID string) (model.Tier, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return "", err
	}

	if tier, ok := s.getCachedTier(ownerID); ok {
		return tier, nil
	}

	var tier string
	err := s.db.QueryRowContext(ctx, `SELECT tier FROM user_tiers WHERE owner_id = ?`, ownerID).Scan(&tier)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: tier for %s", common.ErrNotFound, ownerID)
	}
	if err != nil {
		return "", common.StoreError("get tier", err)
	}

	resolved := model.NormalizeTier(tier)
	s.cacheTier(ownerID, resolved)
	return resolved, nil
}

// SetTier records an owner's tier.
func (s *SQLiteStorage) SetTier(ctx context.Context, ownerID string, tier model.Tier) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return err
	}
	if err := validateTier(tier); err != nil {
		return err
	}

	tier = model.NormalizeTier(string(tier))
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_tiers (owner_id, tier, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(owner_id) DO UPDATE SET tier = excluded.tier, updated_at = excluded.updated_at
	`, ownerID, string(tier), s.now())
	if err != nil {
		return common.StoreError("set tier", err)
	}

	s.invalidateTier(ownerID)
	return nil
}
