package model

import "time"

// Extraction defaults.
const (
	// DefaultTargetAmount is the goal amount (VND) used when none can be parsed.
	DefaultTargetAmount int64 = 10_000_000
	// DefaultGoalHorizonMonths is the goal horizon used when no duration can be parsed.
	DefaultGoalHorizonMonths = 3
)

// CrystalPurpose is the coarse intent a crystal recommendation serves.
type CrystalPurpose string

// Crystal purposes, in the order they are tested.
const (
	PurposeLove       CrystalPurpose = "love"
	PurposeWealth     CrystalPurpose = "wealth"
	PurposeMeditation CrystalPurpose = "meditation"
	PurposeProtection CrystalPurpose = "protection"
	PurposeGeneral    CrystalPurpose = "general"
)

// Fields is the category-specific payload extracted from text.
// The set of implementations is closed: GoalFields, AffirmationFields,
// HabitFields and CrystalFields.
type Fields interface {
	// Category returns the category the payload belongs to.
	Category() Category
	isFields()
}

// GoalFields holds a goal with its optional amount, deadline and linked lists.
type GoalFields struct {
	TargetDate     time.Time `json:"target_date"`
	Title          string    `json:"title"`
	Affirmations   []string  `json:"affirmations"`
	ActionSteps    []string  `json:"action_steps"`
	Crystals       []string  `json:"crystals"`
	TargetAmount   int64     `json:"target_amount"`
	AmountDetected bool      `json:"amount_detected"`
	DateDetected   bool      `json:"date_detected"`
}

// AffirmationFields holds a list of affirmations.
type AffirmationFields struct {
	Affirmations []string `json:"affirmations"`
}

// HabitFields holds checklist items. It is also the payload of a goal's action checklist.
type HabitFields struct {
	Items []string `json:"items"`
}

// CrystalFields holds a crystal recommendation.
type CrystalFields struct {
	Purpose      CrystalPurpose `json:"purpose"`
	UsageGuide   string         `json:"usage_guide,omitempty"`
	Placement    string         `json:"placement,omitempty"`
	CrystalNames []string       `json:"crystal_names"`
}

// Category implements Fields.
func (GoalFields) Category() Category { return CategoryGoal }

// Category implements Fields.
func (AffirmationFields) Category() Category { return CategoryAffirmation }

// Category implements Fields.
func (HabitFields) Category() Category { return CategoryHabit }

// Category implements Fields.
func (CrystalFields) Category() Category { return CategoryCrystal }

func (GoalFields) isFields()        {}
func (AffirmationFields) isFields() {}
func (HabitFields) isFields()       {}
func (CrystalFields) isFields()     {}

// Normalize replaces nil lists with empty ones.
func (g GoalFields) Normalize() GoalFields {
	g.Affirmations = nonNil(g.Affirmations)
	g.ActionSteps = nonNil(g.ActionSteps)
	g.Crystals = nonNil(g.Crystals)
	return g
}

// Normalize replaces nil lists with empty ones.
func (a AffirmationFields) Normalize() AffirmationFields {
	a.Affirmations = nonNil(a.Affirmations)
	return a
}

// Normalize replaces nil lists with empty ones.
func (h HabitFields) Normalize() HabitFields {
	h.Items = nonNil(h.Items)
	return h
}

// Normalize replaces nil lists with empty ones and fills the default purpose.
func (c CrystalFields) Normalize() CrystalFields {
	c.CrystalNames = nonNil(c.CrystalNames)
	if c.Purpose == "" {
		c.Purpose = PurposeGeneral
	}
	return c
}

// EmptyFields returns the documented default payload for a category.
func EmptyFields(category Category, now time.Time) (Fields, bool) {
	switch category {
	case CategoryGoal:
		return GoalFields{
			TargetAmount: DefaultTargetAmount,
			TargetDate:   now.AddDate(0, DefaultGoalHorizonMonths, 0),
		}.Normalize(), true
	case CategoryAffirmation:
		return AffirmationFields{}.Normalize(), true
	case CategoryHabit:
		return HabitFields{}.Normalize(), true
	case CategoryCrystal:
		return CrystalFields{}.Normalize(), true
	default:
		return nil, false
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
