// Package classification scores conversational text against keyword rules and
// picks the single widget category it most confidently describes.
package classification

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Veraticus/widgetflow/internal/model"
	"golang.org/x/text/unicode/norm"
)

type compiledKeyword struct {
	regex *regexp.Regexp
	text  string
	lower string
}

type compiledRule struct {
	keywords []compiledKeyword
	required []string
	model.ClassificationRule
}

// Classifier implements deterministic keyword classification.
// It is immutable after construction and safe for concurrent use.
type Classifier struct {
	rules     []compiledRule
	threshold float64
}

// NewClassifier compiles the given rules. Regex keywords are matched case-insensitively.
func NewClassifier(rules []model.ClassificationRule, threshold float64) (*Classifier, error) {
	if threshold <= 0 || threshold > 1 {
		return nil, fmt.Errorf("acceptance threshold must be in (0, 1], got %.2f", threshold)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("at least one classification rule is required")
	}

	compiled := make([]compiledRule, 0, len(rules))
	seen := make(map[model.Category]bool, len(rules))

	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("invalid rule: %w", err)
		}
		if seen[r.Category] {
			return nil, fmt.Errorf("duplicate rule for category %s", r.Category)
		}
		seen[r.Category] = true

		cr := compiledRule{ClassificationRule: r}
		for _, kw := range r.Keywords {
			ck := compiledKeyword{text: kw.Text, lower: strings.ToLower(norm.NFC.String(kw.Text))}
			if kw.IsRegex {
				pattern := kw.Text
				if !strings.HasPrefix(pattern, "(?i)") {
					pattern = "(?i)" + pattern
				}
				re, err := regexp.Compile(pattern)
				if err != nil {
					return nil, fmt.Errorf("failed to compile keyword %q for %s: %w", kw.Text, r.Category, err)
				}
				ck.regex = re
			}
			cr.keywords = append(cr.keywords, ck)
		}
		for _, req := range r.RequiredKeywords {
			cr.required = append(cr.required, strings.ToLower(norm.NFC.String(req)))
		}
		compiled = append(compiled, cr)
	}

	return &Classifier{rules: compiled, threshold: threshold}, nil
}

// NewDefaultClassifier returns a classifier over DefaultRules.
func NewDefaultClassifier() *Classifier {
	c, err := NewClassifier(DefaultRules(), DefaultAcceptanceThreshold)
	if err != nil {
		panic(fmt.Sprintf("default classification rules are invalid: %v", err))
	}
	return c
}

// Threshold returns the acceptance threshold.
func (c *Classifier) Threshold() float64 {
	return c.threshold
}

// Classify selects the most confident actionable category for a turn.
// The user message and assistant reply are scored together.
func (c *Classifier) Classify(userMessage, assistantReply string) model.DetectionResult {
	return c.ClassifyText(userMessage + "\n" + assistantReply)
}

// ClassifyText selects the most confident actionable category for raw text.
func (c *Classifier) ClassifyText(text string) model.DetectionResult {
	var candidates []model.CategoryScore
	for _, s := range c.Scores(text) {
		if !s.Candidate || !s.Category.Actionable() {
			continue
		}
		candidates = append(candidates, s)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		return candidates[i].Category.Priority() < candidates[j].Category.Priority()
	})

	if len(candidates) == 0 || candidates[0].Confidence < c.threshold {
		return model.DetectionResult{MatchedKeywords: []string{}}
	}

	best := candidates[0]
	category := best.Category
	return model.DetectionResult{
		Category:        &category,
		Confidence:      best.Confidence,
		MatchedKeywords: best.MatchedKeywords,
	}
}

// Scores returns the score of every rule, in rule order. Rules that fail the
// required-keyword gate or the minimum match count score zero.
func (c *Classifier) Scores(text string) []model.CategoryScore {
	lower := strings.ToLower(norm.NFC.String(text))
	scores := make([]model.CategoryScore, 0, len(c.rules))

	for _, r := range c.rules {
		score := model.CategoryScore{
			Category:        r.Category,
			MatchedKeywords: []string{},
			RequiredMet:     len(r.required) == 0,
		}

		for _, kw := range r.keywords {
			if kw.matches(lower) {
				score.Matches++
				score.MatchedKeywords = append(score.MatchedKeywords, kw.text)
			}
		}

		for _, req := range r.required {
			if strings.Contains(lower, req) {
				score.RequiredMet = true
				break
			}
		}

		if score.RequiredMet && score.Matches >= r.MinMatches {
			score.Candidate = true
			score.Confidence = minFloat(1.0, float64(score.Matches)/float64(r.MinMatches)*r.BaseConfidence)
		}

		scores = append(scores, score)
	}

	return scores
}

func (k compiledKeyword) matches(lower string) bool {
	if k.regex != nil {
		return k.regex.MatchString(lower)
	}
	return strings.Contains(lower, k.lower)
}

// minFloat returns the minimum of two float64 values.
func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
