package classification

import (
	"fmt"
	"os"

	"github.com/Veraticus/widgetflow/internal/model"
	"gopkg.in/yaml.v3"
)

// RuleFile is the on-disk format of a rule table override.
type RuleFile struct {
	Rules     []model.ClassificationRule `yaml:"rules"`
	Threshold float64                    `yaml:"threshold"`

	// ThresholdSet is true when the file gave its own threshold.
	ThresholdSet bool `yaml:"-"`
}

// LoadRules reads a YAML rule file. A zero threshold means DefaultAcceptanceThreshold.
func LoadRules(path string) (*RuleFile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from user configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes and validates a YAML rule table.
func ParseRules(data []byte) (*RuleFile, error) {
	var rf RuleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("failed to parse rule file: %w", err)
	}
	if len(rf.Rules) == 0 {
		return nil, fmt.Errorf("rule file contains no rules")
	}
	for i := range rf.Rules {
		if err := rf.Rules[i].Validate(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}
	rf.ThresholdSet = rf.Threshold != 0
	if !rf.ThresholdSet {
		rf.Threshold = DefaultAcceptanceThreshold
	}
	return &rf, nil
}

// NewClassifierFromFile builds a classifier from a YAML rule file.
func NewClassifierFromFile(path string) (*Classifier, error) {
	rf, err := LoadRules(path)
	if err != nil {
		return nil, err
	}
	return NewClassifier(rf.Rules, rf.Threshold)
}
