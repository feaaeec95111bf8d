package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// WidgetType is the canonical kind of a persisted widget.
type WidgetType string

const (
	// WidgetTypeGoal is a goal tracker.
	WidgetTypeGoal WidgetType = "goal"
	// WidgetTypeAffirmation is an affirmation card.
	WidgetTypeAffirmation WidgetType = "affirmation"
	// WidgetTypeHabit is a habit checklist.
	WidgetTypeHabit WidgetType = "habit"
	// WidgetTypeCrystal is a crystal recommendation.
	WidgetTypeCrystal WidgetType = "crystal"
	// WidgetTypeChecklist is the action checklist attached to a goal.
	WidgetTypeChecklist WidgetType = "checklist"
)

// widgetTypeAliases maps legacy names to the canonical set.
var widgetTypeAliases = map[string]WidgetType{
	"goal":                   WidgetTypeGoal,
	"goals":                  WidgetTypeGoal,
	"goal_tracker":           WidgetTypeGoal,
	"affirmation":            WidgetTypeAffirmation,
	"affirmations":           WidgetTypeAffirmation,
	"daily_affirmation":      WidgetTypeAffirmation,
	"habit":                  WidgetTypeHabit,
	"habits":                 WidgetTypeHabit,
	"habit_tracker":          WidgetTypeHabit,
	"crystal":                WidgetTypeCrystal,
	"crystals":               WidgetTypeCrystal,
	"crystal_recommendation": WidgetTypeCrystal,
	"checklist":              WidgetTypeChecklist,
	"action_checklist":       WidgetTypeChecklist,
	"action_steps":           WidgetTypeChecklist,
	"action_plan":            WidgetTypeChecklist,
}

// ParseWidgetType normalizes a widget type name, including legacy aliases.
func ParseWidgetType(s string) (WidgetType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "-", "_")
	if t, ok := widgetTypeAliases[key]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown widget type %q", s)
}

// WidgetTypeFor returns the widget type a top-level widget of the category uses.
func WidgetTypeFor(c Category) (WidgetType, error) {
	switch c {
	case CategoryGoal:
		return WidgetTypeGoal, nil
	case CategoryAffirmation:
		return WidgetTypeAffirmation, nil
	case CategoryHabit:
		return WidgetTypeHabit, nil
	case CategoryCrystal:
		return WidgetTypeCrystal, nil
	default:
		return "", fmt.Errorf("category %q has no widget type", c)
	}
}

// Widget is one actionable item on a user's dashboard.
// ParentID is an advisory reference to another widget; parents do not point back.
type Widget struct {
	CreatedAt time.Time
	Payload   Fields
	ParentID  *string
	ID        string
	OwnerID   string
	Type      WidgetType
	Title     string
	Position  int
	Active    bool
}

// MarshalPayload encodes the widget payload as JSON.
func MarshalPayload(f Fields) ([]byte, error) {
	if f == nil {
		return nil, fmt.Errorf("payload is nil")
	}
	return json.Marshal(f)
}

// UnmarshalPayload decodes a JSON payload using the widget type to pick the variant.
func UnmarshalPayload(t WidgetType, data []byte) (Fields, error) {
	switch t {
	case WidgetTypeGoal:
		var f GoalFields
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to decode goal payload: %w", err)
		}
		return f.Normalize(), nil
	case WidgetTypeAffirmation:
		var f AffirmationFields
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to decode affirmation payload: %w", err)
		}
		return f.Normalize(), nil
	case WidgetTypeHabit, WidgetTypeChecklist:
		var f HabitFields
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to decode checklist payload: %w", err)
		}
		return f.Normalize(), nil
	case WidgetTypeCrystal:
		var f CrystalFields
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to decode crystal payload: %w", err)
		}
		return f.Normalize(), nil
	default:
		return nil, fmt.Errorf("unknown widget type %q", t)
	}
}
