// Package tier resolves an owner's subscription tier from the configured sources.
package tier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/widgetflow/internal/common"
	"github.com/Veraticus/widgetflow/internal/model"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces the tier hash.
const DefaultKeyPrefix = "widgetflow"

// hashClient is the subset of *redis.Client the resolver uses.
type hashClient interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HSet(ctx context.Context, key string, values ...any) *redis.IntCmd
}

// RedisResolver reads tiers from the hash <prefix>:tiers, keyed by owner id.
type RedisResolver struct {
	client hashClient
	key    string
}

// ConnectRedis creates a client from a redis:// URL.
func ConnectRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// NewRedisResolver creates a resolver. An empty prefix uses DefaultKeyPrefix.
func NewRedisResolver(client hashClient, prefix string) *RedisResolver {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisResolver{client: client, key: prefix + ":tiers"}
}

// Key returns the hash the resolver reads.
func (r *RedisResolver) Key() string {
	return r.key
}

// GetTier implements service.TierResolver. A missing field is reported as
// common.ErrNotFound; any other failure as common.ErrTierUnavailable.
func (r *RedisResolver) GetTier(ctx context.Context, ownerID string) (model.Tier, error) {
	val, err := r.client.HGet(ctx, r.key, ownerID).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%w: tier for %s", common.ErrNotFound, ownerID)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrTierUnavailable, err)
	}
	return model.NormalizeTier(val), nil
}

// SetTier implements service.TierStore.
func (r *RedisResolver) SetTier(ctx context.Context, ownerID string, tier model.Tier) error {
	if err := r.client.HSet(ctx, r.key, ownerID, string(model.NormalizeTier(string(tier)))).Err(); err != nil {
		return fmt.Errorf("%w: %w", common.ErrTierUnavailable, err)
	}
	return nil
}
