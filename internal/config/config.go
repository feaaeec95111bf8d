package config

import (
	"fmt"
	"strings"

	"github.com/Veraticus/widgetflow/internal/common"
	"github.com/Veraticus/widgetflow/internal/model"
	"github.com/spf13/viper"
)

// DefaultDatabasePath is where the SQLite database lives unless configured.
const DefaultDatabasePath = "$HOME/.local/share/widgetflow/widgetflow.db"

// Config is the typed view of the viper settings.
type Config struct {
	Database       DatabaseConfig
	Redis          RedisConfig
	Classification ClassificationConfig
	Quota          model.TierQuota
	Owner          string
}

// DatabaseConfig selects the widget store.
type DatabaseConfig struct {
	Driver string
	Path   string
	URL    string
}

// DSN returns the path or URL the driver expects.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "postgres" {
		return d.URL
	}
	return d.Path
}

// RedisConfig points at the tier hash. An empty URL disables Redis.
type RedisConfig struct {
	URL    string
	Prefix string
}

// Enabled reports whether a Redis URL is configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

// ClassificationConfig tunes the classifier.
type ClassificationConfig struct {
	RulesFile string
	Threshold float64
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("redis.prefix", "widgetflow")
	v.SetDefault("classification.threshold", 0.80)
	v.SetDefault("quota.default_tier", string(model.TierFree))
	v.SetDefault("quota.tiers", map[string]any{
		string(model.TierFree):    3,
		string(model.TierPlus):    10,
		string(model.TierPremium): model.Unlimited,
	})
	v.SetDefault("owner", "local")
}

// Load builds a Config from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom builds a Config from v. Defaults are applied for unset keys.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		Database: DatabaseConfig{
			Driver: strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
			Path:   ExpandPath(v.GetString("database.path")),
			URL:    v.GetString("database.url"),
		},
		Redis: RedisConfig{
			URL:    v.GetString("redis.url"),
			Prefix: v.GetString("redis.prefix"),
		},
		Classification: ClassificationConfig{
			Threshold: v.GetFloat64("classification.threshold"),
			RulesFile: ExpandPath(v.GetString("classification.rules_file")),
		},
		Owner: v.GetString("owner"),
	}

	switch cfg.Database.Driver {
	case "sqlite", "sqlite3":
		cfg.Database.Driver = "sqlite"
	case "postgres", "postgresql":
		cfg.Database.Driver = "postgres"
		if strings.TrimSpace(cfg.Database.URL) == "" {
			return nil, fmt.Errorf("%w: database.url is required for postgres", common.ErrMissingConfig)
		}
	default:
		return nil, fmt.Errorf("%w: unknown database.driver %q", common.ErrInvalidConfig, cfg.Database.Driver)
	}

	if t := cfg.Classification.Threshold; t <= 0 || t > 1 {
		return nil, fmt.Errorf("%w: classification.threshold must be in (0, 1], got %v", common.ErrInvalidConfig, t)
	}

	quota, err := loadQuota(v)
	if err != nil {
		return nil, err
	}
	cfg.Quota = quota

	return cfg, nil
}

func loadQuota(v *viper.Viper) (model.TierQuota, error) {
	raw := map[string]int{}
	if err := v.UnmarshalKey("quota.tiers", &raw); err != nil {
		return model.TierQuota{}, fmt.Errorf("%w: quota.tiers: %v", common.ErrInvalidConfig, err)
	}

	limits := make(map[model.Tier]int, len(raw))
	for name, limit := range raw {
		limits[model.Tier(name)] = limit
	}

	quota, err := model.NewTierQuota(limits, model.Tier(v.GetString("quota.default_tier")))
	if err != nil {
		return model.TierQuota{}, fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}
	return quota, nil
}
