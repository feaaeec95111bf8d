package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/widgetflow/internal/classification"
	"github.com/Veraticus/widgetflow/internal/config"
	"github.com/Veraticus/widgetflow/internal/engine"
	"github.com/Veraticus/widgetflow/internal/extract"
	"github.com/Veraticus/widgetflow/internal/model"
	"github.com/Veraticus/widgetflow/internal/service"
	"github.com/Veraticus/widgetflow/internal/storage"
	"github.com/Veraticus/widgetflow/internal/suggest"
	"github.com/Veraticus/widgetflow/internal/tier"
	"github.com/Veraticus/widgetflow/internal/widget"
	"github.com/spf13/viper"
)

// app bundles everything a command needs. Close releases the store and Redis.
type app struct {
	cfg     *config.Config
	store   storage.Store
	tiers   service.TierResolver
	svc     *engine.Service
	closers []func() error
}

// initStorage opens the configured store and brings its schema up to date.
func initStorage(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	store, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initClassifier builds the classifier from the rule file when one is
// configured. A threshold in the rule file wins over the configured one.
func initClassifier(cfg *config.Config) (*classification.Classifier, error) {
	if cfg.Classification.RulesFile == "" {
		return classification.NewClassifier(classification.DefaultRules(), cfg.Classification.Threshold)
	}

	rf, err := classification.LoadRules(cfg.Classification.RulesFile)
	if err != nil {
		return nil, err
	}
	threshold := cfg.Classification.Threshold
	if rf.ThresholdSet {
		threshold = rf.Threshold
	}
	slog.Debug("Loaded classification rules",
		"path", cfg.Classification.RulesFile,
		"rules", len(rf.Rules),
		"threshold", threshold)
	return classification.NewClassifier(rf.Rules, threshold)
}

// initTierResolver asks Redis first when configured, then the store. Lookup
// failures and unknown tiers fall back to the lowest tier.
func initTierResolver(cfg *config.Config, store service.TierResolver) (service.TierResolver, func() error, error) {
	sources := make([]service.TierResolver, 0, 2)
	closer := func() error { return nil }

	if cfg.Redis.Enabled() {
		client, err := tier.ConnectRedis(cfg.Redis.URL)
		if err != nil {
			return nil, nil, err
		}
		sources = append(sources, tier.NewRedisResolver(client, cfg.Redis.Prefix))
		closer = client.Close
	}
	if store != nil {
		sources = append(sources, store)
	}

	return tier.NewFallbackResolver(tier.NewChainResolver(sources...), cfg.Quota), closer, nil
}

// newCoordinator wires the default strategies around classifier.
func newCoordinator(classifier suggest.Classifier) *suggest.Coordinator {
	return suggest.NewDefaultCoordinator(classifier, extract.New(), widget.NewAssembler())
}

// initApp loads configuration and wires the full pipeline.
func initApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	classifier, err := initClassifier(cfg)
	if err != nil {
		return nil, err
	}

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tiers, closeTiers, err := initTierResolver(cfg, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	if override := viper.GetString("tier_override"); override != "" {
		t, err := parseTier(cfg, override)
		if err != nil {
			_ = closeTiers()
			_ = store.Close()
			return nil, err
		}
		slog.Debug("Using tier override for every owner", "tier", t)
		tiers = tier.NewFallbackResolver(tier.NewFixedResolver(t), cfg.Quota)
	}

	svc := engine.NewWithConfig(newCoordinator(classifier), store, tiers, engine.Config{Quota: cfg.Quota})

	return &app{
		cfg:     cfg,
		store:   store,
		tiers:   tiers,
		svc:     svc,
		closers: []func() error{closeTiers, store.Close},
	}, nil
}

// Close releases every resource the app opened.
func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ownerFor returns the explicit owner or the configured default.
func ownerFor(cfg *config.Config, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return cfg.Owner
}

// parseTier validates a tier name against the configured table.
func parseTier(cfg *config.Config, name string) (model.Tier, error) {
	t := model.NormalizeTier(name)
	if !cfg.Quota.Known(t) {
		return "", fmt.Errorf("unknown tier %q (known: %v)", name, cfg.Quota.Tiers())
	}
	return t, nil
}
