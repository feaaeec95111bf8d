package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/widgetflow/internal/config"
	"github.com/Veraticus/widgetflow/internal/engine"
	"github.com/Veraticus/widgetflow/internal/model"
	"github.com/Veraticus/widgetflow/internal/tier"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useTempConfig points the global viper at a fresh database for one test.
func useTempConfig(t *testing.T) string {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	dbPath := filepath.Join(t.TempDir(), "widgetflow.db")
	viper.Set("database.path", dbPath)
	viper.Set("owner", "tester")
	return dbPath
}

func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReadTranscript(t *testing.T) {
	input := `{"id": "t1", "owner_id": "u1", "user": "Tạo mục tiêu", "assistant": "Ok"}

{"id": "t2", "user": "Thêm thói quen", "assistant": "- Uống nước"}
`
	turns, err := readTranscript(strings.NewReader(input), "fallback")
	require.NoError(t, err)
	require.Len(t, turns, 2)

	assert.Equal(t, engine.Turn{ID: "t1", OwnerID: "u1", UserMessage: "Tạo mục tiêu", AssistantReply: "Ok"}, turns[0])
	assert.Equal(t, "fallback", turns[1].OwnerID)
}

func TestReadTranscript_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		owner   string
		wantErr string
	}{
		{name: "invalid json", input: "{not json}\n", owner: "u", wantErr: "line 1: invalid turn"},
		{name: "missing owner", input: `{"user": "hi"}` + "\n", owner: "", wantErr: "line 1: turn has no owner_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readTranscript(strings.NewReader(tt.input), tt.owner)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseTier(t *testing.T) {
	cfg := &config.Config{Quota: model.DefaultTierQuota()}

	got, err := parseTier(cfg, " Premium ")
	require.NoError(t, err)
	assert.Equal(t, model.TierPremium, got)

	_, err = parseTier(cfg, "gold")
	assert.Error(t, err)
}

func TestFormatTier(t *testing.T) {
	assert.Equal(t, "free (3 widgets)", formatTier("free", 3))
	assert.Equal(t, "premium (unlimited widgets)", formatTier("premium", model.Unlimited))
}

func TestOwnerFor(t *testing.T) {
	cfg := &config.Config{Owner: "local"}
	assert.Equal(t, "local", ownerFor(cfg, ""))
	assert.Equal(t, "u1", ownerFor(cfg, "u1"))
}

func TestInitTierResolver(t *testing.T) {
	cfg := &config.Config{Quota: model.DefaultTierQuota()}
	store := tier.NewStaticResolver(map[string]model.Tier{"u1": model.TierPlus})

	resolver, closer, err := initTierResolver(cfg, store)
	require.NoError(t, err)
	defer func() { _ = closer() }()

	got, err := resolver.GetTier(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, model.TierPlus, got)

	got, err = resolver.GetTier(context.Background(), "stranger")
	require.NoError(t, err)
	assert.Equal(t, model.TierFree, got)
}

func TestInitTierResolver_BadRedisURL(t *testing.T) {
	cfg := &config.Config{
		Quota: model.DefaultTierQuota(),
		Redis: config.RedisConfig{URL: "not a url"},
	}
	_, _, err := initTierResolver(cfg, nil)
	assert.Error(t, err)
}

func TestClassifyCommand(t *testing.T) {
	useTempConfig(t)

	out, err := execute(t, classifyCmd(), "",
		"Tạo mục tiêu tiết kiệm 50 triệu trong 6 tháng",
		"--reply", "Tuyệt vời! Mục tiêu tiết kiệm 50 triệu trong 6 tháng là hoàn toàn khả thi.",
		"--scores")
	require.NoError(t, err)
	assert.Contains(t, out, "Detected")
	assert.Contains(t, out, "goal")
	assert.Contains(t, out, "confidence")

	out, err = execute(t, classifyCmd(), "", "cảm ơn!")
	require.NoError(t, err)
	assert.Contains(t, out, "Small talk")
}

func TestSuggestCommand(t *testing.T) {
	const (
		message = "Tạo mục tiêu tiết kiệm 50 triệu trong 6 tháng"
		reply   = "Tuyệt vời! Mục tiêu tiết kiệm 50 triệu trong 6 tháng là hoàn toàn khả thi."
	)

	t.Run("declined suggestion is not saved", func(t *testing.T) {
		useTempConfig(t)

		out, err := execute(t, suggestCmd(), "n\n", message, "--reply", reply)
		require.NoError(t, err)
		assert.Contains(t, out, "Mục tiêu 50 triệu")
		assert.Contains(t, out, "Dismissed")

		out, err = execute(t, widgetsListCmd(), "")
		require.NoError(t, err)
		assert.Contains(t, out, "no widgets")
	})

	t.Run("accepted suggestion is saved", func(t *testing.T) {
		useTempConfig(t)

		out, err := execute(t, suggestCmd(), "y\n", message, "--reply", reply)
		require.NoError(t, err)
		assert.Contains(t, out, "Saved 1 widget(s)")

		out, err = execute(t, widgetsListCmd(), "")
		require.NoError(t, err)
		assert.Contains(t, out, "Mục tiêu 50 triệu")
		assert.Contains(t, out, "1 of 3")
	})

	t.Run("quota rejection", func(t *testing.T) {
		useTempConfig(t)

		for i := 0; i < 3; i++ {
			_, err := execute(t, suggestCmd(), "", message, "--reply", reply, "--yes")
			require.NoError(t, err)
		}
		out, err := execute(t, suggestCmd(), "", message, "--reply", reply, "--yes")
		require.NoError(t, err)
		assert.Contains(t, out, "allows 3")
	})
}

func TestTierCommands(t *testing.T) {
	useTempConfig(t)

	out, err := execute(t, tierGetCmd(), "")
	require.NoError(t, err)
	assert.Contains(t, out, "free (3 widgets)")

	_, err = execute(t, tierSetCmd(), "", "premium")
	require.NoError(t, err)

	out, err = execute(t, tierGetCmd(), "", "tester")
	require.NoError(t, err)
	assert.Contains(t, out, "premium (unlimited widgets)")

	_, err = execute(t, tierSetCmd(), "", "gold")
	assert.Error(t, err)
}

func TestInitClassifier(t *testing.T) {
	rules := "rules:\n  - category: habit\n    keywords: [{text: habit}]\n    min_matches: 1\n    base_confidence: 0.9\n"
	dir := t.TempDir()

	tests := []struct {
		name   string
		file   string
		want   float64
		noFile bool
	}{
		{name: "built-in rules use configured threshold", noFile: true, want: 0.8},
		{name: "file threshold wins", file: "threshold: 0.55\n" + rules, want: 0.55},
		{name: "file without threshold uses configured", file: rules, want: 0.8},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Classification: config.ClassificationConfig{Threshold: 0.8}}
			if !tt.noFile {
				path := filepath.Join(dir, "rules"+string(rune('a'+i))+".yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.file), 0o600))
				cfg.Classification.RulesFile = path
			}

			c, err := initClassifier(cfg)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, c.Threshold(), 1e-9)
		})
	}
}

func TestTierOverride(t *testing.T) {
	useTempConfig(t)
	viper.Set("tier_override", "premium")

	out, err := execute(t, tierGetCmd(), "")
	require.NoError(t, err)
	assert.Contains(t, out, "premium (unlimited widgets)")

	out, err = execute(t, tierGetCmd(), "", "someone-else")
	require.NoError(t, err)
	assert.Contains(t, out, "someone-else")
	assert.Contains(t, out, "premium (unlimited widgets)")

	viper.Set("tier_override", "gold")
	_, err = execute(t, tierGetCmd(), "")
	assert.Error(t, err)
}

func TestMigrateStatus(t *testing.T) {
	useTempConfig(t)

	_, err := execute(t, migrateCmd(), "")
	require.NoError(t, err)

	out, err := execute(t, migrateCmd(), "", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "Current version: 3")
	assert.Contains(t, out, "Latest version: 3")
}
