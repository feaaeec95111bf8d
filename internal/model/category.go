// Package model defines the core data structures for the widgetflow pipeline.
package model

import "fmt"

// Category is the kind of widget a piece of conversation can be classified into.
type Category string

const (
	// CategoryGoal represents a financial or life goal with an amount and a deadline.
	CategoryGoal Category = "goal"
	// CategoryAffirmation represents a set of first-person affirmations.
	CategoryAffirmation Category = "affirmation"
	// CategoryHabit represents a daily habit checklist.
	CategoryHabit Category = "habit"
	// CategoryCrystal represents a crystal recommendation.
	CategoryCrystal Category = "crystal"
	// CategoryGeneral represents general questions or advice. It is never actionable.
	CategoryGeneral Category = "general"
)

// categoryPriority is the fixed tie-break order; lower values win.
var categoryPriority = map[Category]int{
	CategoryGoal:        0,
	CategoryAffirmation: 1,
	CategoryHabit:       2,
	CategoryCrystal:     3,
	CategoryGeneral:     99,
}

// ActionableCategories returns the categories that may produce widgets, in priority order.
func ActionableCategories() []Category {
	return []Category{CategoryGoal, CategoryAffirmation, CategoryHabit, CategoryCrystal}
}

// Actionable reports whether the category may ever trigger a widget suggestion.
func (c Category) Actionable() bool {
	switch c {
	case CategoryGoal, CategoryAffirmation, CategoryHabit, CategoryCrystal:
		return true
	default:
		return false
	}
}

// Priority returns the tie-break rank of the category (lower is preferred).
func (c Category) Priority() int {
	if p, ok := categoryPriority[c]; ok {
		return p
	}
	return 100
}

// ParseCategory converts a string into a known Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if _, ok := categoryPriority[c]; !ok {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}
