package model

import (
	"fmt"
	"strings"
)

// Keyword is a single trigger term of a ClassificationRule.
type Keyword struct {
	Text    string `yaml:"text" json:"text"`
	IsRegex bool   `yaml:"regex" json:"regex"`
}

// ClassificationRule scores text for one category.
type ClassificationRule struct {
	Category         Category  `yaml:"category" json:"category"`
	Keywords         []Keyword `yaml:"keywords" json:"keywords"`
	RequiredKeywords []string  `yaml:"required" json:"required"`
	MinMatches       int       `yaml:"min_matches" json:"min_matches"`
	BaseConfidence   float64   `yaml:"base_confidence" json:"base_confidence"`
}

// Validate ensures the rule is internally consistent.
func (r *ClassificationRule) Validate() error {
	if _, err := ParseCategory(string(r.Category)); err != nil {
		return err
	}
	if len(r.Keywords) == 0 {
		return fmt.Errorf("rule %s: at least one keyword is required", r.Category)
	}
	if r.MinMatches < 1 || r.MinMatches > len(r.Keywords) {
		return fmt.Errorf("rule %s: min matches must be between 1 and %d, got %d",
			r.Category, len(r.Keywords), r.MinMatches)
	}
	if r.BaseConfidence <= 0 || r.BaseConfidence > 1 {
		return fmt.Errorf("rule %s: base confidence must be in (0, 1], got %.2f",
			r.Category, r.BaseConfidence)
	}
	for i, kw := range r.Keywords {
		if strings.TrimSpace(kw.Text) == "" {
			return fmt.Errorf("rule %s: keyword %d is empty", r.Category, i)
		}
	}
	for i, req := range r.RequiredKeywords {
		if strings.TrimSpace(req) == "" {
			return fmt.Errorf("rule %s: required keyword %d is empty", r.Category, i)
		}
	}
	return nil
}
