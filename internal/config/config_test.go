package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/widgetflow/internal/common"
	"github.com/Veraticus/widgetflow/internal/model"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.True(t, strings.HasSuffix(cfg.Database.Path, filepath.Join(".local", "share", "widgetflow", "widgetflow.db")))
	assert.Equal(t, cfg.Database.Path, cfg.Database.DSN())
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "widgetflow", cfg.Redis.Prefix)
	assert.InDelta(t, 0.80, cfg.Classification.Threshold, 1e-9)
	assert.Equal(t, "local", cfg.Owner)

	assert.Equal(t, model.TierFree, cfg.Quota.Lowest())
	_, limit := cfg.Quota.Limit(model.TierPlus)
	assert.Equal(t, 10, limit)
	_, limit = cfg.Quota.Limit(model.TierPremium)
	assert.Equal(t, model.Unlimited, limit)
}

func TestLoadFrom_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
database:
  driver: postgresql
  url: postgres://localhost/widgetflow
redis:
  url: redis://localhost:6379/0
  prefix: app
classification:
  threshold: 0.9
quota:
  default_tier: basic
  tiers:
    basic: 2
    pro: 25
    enterprise: -1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/widgetflow", cfg.Database.DSN())
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "app", cfg.Redis.Prefix)
	assert.InDelta(t, 0.9, cfg.Classification.Threshold, 1e-9)
	assert.Equal(t, model.Tier("basic"), cfg.Quota.Lowest())
	assert.Equal(t, []model.Tier{"basic", "enterprise", "pro"}, cfg.Quota.Tiers())
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		set     map[string]any
		wantErr error
		name    string
	}{
		{name: "unknown driver", set: map[string]any{"database.driver": "oracle"}, wantErr: common.ErrInvalidConfig},
		{name: "postgres without url", set: map[string]any{"database.driver": "postgres"}, wantErr: common.ErrMissingConfig},
		{name: "threshold above one", set: map[string]any{"classification.threshold": 1.5}, wantErr: common.ErrInvalidConfig},
		{name: "zero threshold", set: map[string]any{"classification.threshold": 0}, wantErr: common.ErrInvalidConfig},
		{name: "lowest tier missing", set: map[string]any{"quota.default_tier": "bronze"}, wantErr: common.ErrInvalidConfig},
		{name: "unlimited lowest tier", set: map[string]any{"quota.default_tier": "premium"}, wantErr: common.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			for k, val := range tt.set {
				v.Set(k, val)
			}
			_, err := LoadFrom(v)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("WIDGETFLOW_TEST_DIR", "/srv/data")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "db.sqlite"), ExpandPath("~/db.sqlite"))
	assert.Equal(t, "/srv/data/db.sqlite", ExpandPath("$WIDGETFLOW_TEST_DIR/db.sqlite"))
	assert.Equal(t, "/abs/path", ExpandPath("/abs/path"))
}
