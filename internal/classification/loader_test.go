package classification

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/widgetflow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRules = `
threshold: 0.7
rules:
  - category: goal
    keywords:
      - text: goal
      - text: target
      - text: '\d+\s*million'
        regex: true
    required: [goal, target]
    min_matches: 2
    base_confidence: 0.8
  - category: habit
    keywords:
      - text: habit
      - text: daily
    required: [habit]
    min_matches: 1
    base_confidence: 0.75
`

func TestParseRules(t *testing.T) {
	rf, err := ParseRules([]byte(sampleRules))
	require.NoError(t, err)

	assert.InDelta(t, 0.7, rf.Threshold, 1e-9)
	assert.True(t, rf.ThresholdSet)
	require.Len(t, rf.Rules, 2)
	assert.Equal(t, model.CategoryGoal, rf.Rules[0].Category)
	assert.True(t, rf.Rules[0].Keywords[2].IsRegex)
	assert.Equal(t, []string{"goal", "target"}, rf.Rules[0].RequiredKeywords)

	c, err := NewClassifier(rf.Rules, rf.Threshold)
	require.NoError(t, err)
	got := c.ClassifyText("My goal: 5 million")
	require.True(t, got.Detected())
	assert.Equal(t, model.CategoryGoal, *got.Category)
}

func TestParseRules_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "malformed yaml", data: "rules: [\n"},
		{name: "no rules", data: "threshold: 0.9\n"},
		{name: "invalid rule", data: "rules:\n  - category: goal\n    min_matches: 1\n    base_confidence: 0.5\n"},
		{name: "unknown category", data: "rules:\n  - category: weather\n    keywords: [{text: rain}]\n    min_matches: 1\n    base_confidence: 0.5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestNewClassifierFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleRules), 0o600))

	c, err := NewClassifierFromFile(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, c.Threshold(), 1e-9)

	_, err = NewClassifierFromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestParseRules_DefaultThreshold(t *testing.T) {
	rf, err := ParseRules([]byte("rules:\n  - category: habit\n    keywords: [{text: habit}]\n    min_matches: 1\n    base_confidence: 0.9\n"))
	require.NoError(t, err)
	assert.InDelta(t, DefaultAcceptanceThreshold, rf.Threshold, 1e-9)
	assert.False(t, rf.ThresholdSet)
}
