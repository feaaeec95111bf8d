// Package extract pulls typed widget fields out of free-form conversation text.
// Extraction never fails: anything that cannot be parsed falls back to a
// documented default.
package extract

import (
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/widgetflow/internal/model"
	"golang.org/x/text/unicode/norm"
)

// Extractor turns text into category-specific fields.
type Extractor struct {
	now func() time.Time
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock overrides the clock used for date offsets.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		e.now = now
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract dispatches to the extractor for the category. It returns false only
// for categories that carry no widget payload.
func (e *Extractor) Extract(category model.Category, text string) (fields model.Fields, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("Extraction panicked, using defaults", "category", category, "panic", r)
			fields, ok = model.EmptyFields(category, e.now())
		}
	}()

	switch category {
	case model.CategoryGoal:
		return e.ExtractGoal(text), true
	case model.CategoryAffirmation:
		return e.ExtractAffirmations(text), true
	case model.CategoryHabit:
		return e.ExtractHabits(text), true
	case model.CategoryCrystal:
		return e.ExtractCrystals(text), true
	default:
		return nil, false
	}
}

// ExtractGoal extracts a goal. Affirmations come from quoted or labelled
// spans, action steps from bulleted or numbered lines.
func (e *Extractor) ExtractGoal(text string) model.GoalFields {
	now := e.now()
	fields := model.GoalFields{
		TargetAmount: model.DefaultTargetAmount,
		TargetDate:   now.AddDate(0, model.DefaultGoalHorizonMonths, 0),
	}

	if amount, ok := ParseAmount(text); ok {
		fields.TargetAmount = amount
		fields.AmountDetected = true
	} else {
		slog.Debug("No goal amount found, using default", "default", model.DefaultTargetAmount)
	}

	if date, ok := ParseDuration(text, now); ok {
		fields.TargetDate = date
		fields.DateDetected = true
	} else {
		slog.Debug("No goal duration found, using default", "months", model.DefaultGoalHorizonMonths)
	}

	cands := scanCandidates(text)
	fields.Affirmations = affirmations(cands, true)
	fields.ActionSteps = actionSteps(cands, fields.Affirmations)
	fields.Crystals = CrystalNames(text)
	fields.Title = GoalTitle(fields)

	return fields.Normalize()
}

// ExtractAffirmations extracts up to MaxAffirmations first-person affirmations.
func (e *Extractor) ExtractAffirmations(text string) model.AffirmationFields {
	return model.AffirmationFields{
		Affirmations: affirmations(scanCandidates(text), false),
	}.Normalize()
}

// ExtractHabits extracts up to MaxHabitItems checklist items.
func (e *Extractor) ExtractHabits(text string) model.HabitFields {
	return model.HabitFields{
		Items: habitItems(scanCandidates(text)),
	}.Normalize()
}

// ExtractCrystals extracts crystal names, purpose, usage and placement.
func (e *Extractor) ExtractCrystals(text string) model.CrystalFields {
	return model.CrystalFields{
		CrystalNames: CrystalNames(text),
		Purpose:      CrystalPurpose(text),
		UsageGuide:   firstSentenceWith(text, usageKeywords),
		Placement:    firstSentenceWith(text, placementKeywords),
	}.Normalize()
}

// GoalTitle builds the goal title from its amount when one was found.
func GoalTitle(g model.GoalFields) string {
	if g.AmountDetected && g.TargetAmount > 0 {
		return "Mục tiêu " + FormatAmount(g.TargetAmount)
	}
	return "Mục tiêu mới"
}

// normalize lowercases text in NFC form so composed and decomposed
// Vietnamese input compare equal.
func normalize(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}
